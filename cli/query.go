package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/spf13/cobra"
)

func newDeleteAllCmd(cli *Cli) *cobra.Command {
	var kindV kindValue

	c := cobra.Command{
		Use:   "delete-all",
		Short: "Delete all entities of a kind",
		Long:  "Delete all entities of a kind.\nThe server must permit the deletion.",
		RunE: func(c *cobra.Command, _ []string) error {
			kind := projection.Kind(kindV)
			if err := cli.r.DeleteAll(context.Background(), kind); err != nil {
				return err
			}

			c.Printf("deleted all %s\n", common.KindPath(kind))
			return nil
		},
	}

	c.Flags().Var(&kindV, "kind", "Entity kind")

	c.MarkFlagRequired("kind")

	return &c
}

func newGetCmd(cli *Cli) *cobra.Command {
	var (
		kindV kindValue
		id    string
	)

	c := cobra.Command{
		Use:   "get",
		Short: "Get an entity by ID",
		RunE: func(c *cobra.Command, _ []string) error {
			entity, err := cli.r.FindById(context.Background(), projection.Kind(kindV), id)
			if err != nil {
				return err
			}

			b, err := json.MarshalIndent(entity, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal entity: %v", err)
			}

			c.Println(string(b))
			return nil
		},
	}

	c.Flags().Var(&kindV, "kind", "Entity kind")
	c.Flags().StringVar(&id, "id", "", "Entity ID")

	c.MarkFlagRequired("kind")
	c.MarkFlagRequired("id")

	return &c
}

func newKindsCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   "kinds",
		Short: "List entity kinds",
		Run: func(c *cobra.Command, _ []string) {
			for _, kind := range projection.Kinds() {
				c.Println(common.KindPath(kind))
			}
		},
		Annotations: map[string]string{noRemoteRequired: ""},
	}

	return &c
}

func newQueryCmd(cli *Cli) *cobra.Command {
	var (
		kindV   kindValue
		filters map[string]string
		output  string
		options projection.QueryOptions
	)

	c := cobra.Command{
		Use:   "query",
		Short: "Query entities of a kind",
		RunE: func(c *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("invalid output %s", output)
			}

			kind := projection.Kind(kindV)

			results, err := cli.r.Find(context.Background(), kind, filters, options)
			if err != nil {
				return err
			}

			if output == "json" {
				b, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal results: %v", err)
				}

				c.Println(string(b))
				return nil
			}

			c.Print(formatResults(kind, results))
			return nil
		},
	}

	c.Flags().Var(&kindV, "kind", "Entity kind")
	c.Flags().StringToStringVar(&filters, "filter", nil, "Filter, consisting of name and value")
	c.Flags().StringVar(&output, "output", "table", "Output format: table or json")

	c.MarkFlagRequired("kind")

	flagQueryOptions(&c, &options)

	return &c
}
