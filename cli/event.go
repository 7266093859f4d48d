package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/spf13/cobra"
)

func newEventCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "event",
		Short:       "Send and query events",
		RunE:        cli.help,
		Annotations: map[string]string{noRemoteRequired: ""},
	}

	c.AddCommand(newEventSendCmd(cli))
	c.AddCommand(newEventQueryCmd(cli))

	return &c
}

func newEventSendCmd(cli *Cli) *cobra.Command {
	var fileName string

	c := cobra.Command{
		Use:   "send",
		Short: "Send a batch of events",
		Long:  "Send a batch of events, read from a JSON file.\nThe file contains either an array of events or an object with an events array.",
		RunE: func(c *cobra.Command, _ []string) error {
			var r io.Reader
			if fileName == "-" {
				r = c.InOrStdin()
			} else {
				file, err := os.Open(fileName)
				if err != nil {
					return fmt.Errorf("failed to open event file %s: %v", fileName, err)
				}

				defer file.Close()
				r = file
			}

			b, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("failed to read events: %v", err)
			}

			events, err := decodeEvents(b)
			if err != nil {
				return err
			}

			result, err := cli.r.Consume(context.Background(), events)
			if err != nil && result.Audited == 0 && result.Applied == 0 {
				return err
			}

			c.Printf("message ID: %s\n", result.MessageId)
			c.Printf("audited:    %d\n", result.Audited)
			c.Printf("applied:    %d\n", result.Applied)
			c.Printf("ignored:    %d\n", result.Ignored)
			c.Printf("failed:     %d\n", len(result.Failed))

			if result.AuditError != "" {
				c.Printf("audit error: %s\n", result.AuditError)
			}

			if len(result.Failed) != 0 {
				table := newTable([]string{
					"EVENT ID",
					"EVENT TYPE",
					"ERROR TYPE",
					"ERROR",
				})

				for _, failure := range result.Failed {
					var errorType string
					if failure.ErrorType != 0 {
						errorType = failure.ErrorType.String()
					}

					table.addRow([]string{
						failure.EventId,
						failure.EventType,
						errorType,
						failure.Error,
					})
				}

				c.Println()
				c.Print(table.format())
			}

			return nil
		},
	}

	c.Flags().StringVar(&fileName, "file", "", "Path to a JSON file, containing the events - use - for stdin")

	c.MarkFlagRequired("file")
	c.MarkFlagFilename("file", ".json")

	return &c
}

func newEventQueryCmd(cli *Cli) *cobra.Command {
	var (
		filters map[string]string
		options projection.QueryOptions
	)

	c := cobra.Command{
		Use:   "query",
		Short: "Query audit events",
		RunE: func(c *cobra.Command, _ []string) error {
			results, err := cli.r.Find(context.Background(), projection.KindAuditEvent, filters, options)
			if err != nil {
				return err
			}

			table := newTable([]string{
				"MESSAGE ID",
				"SEQUENCE NUMBER",
				"EVENT ID",
				"EVENT TYPE",
				"TIMESTAMP",
				"ENTITY ID",
				"PROCESS INSTANCE ID",
			})

			for _, result := range results {
				auditEvent := result.(projection.AuditEvent)
				table.addRow([]string{
					auditEvent.MessageId,
					strconv.Itoa(auditEvent.SequenceNumber),
					auditEvent.EventId,
					auditEvent.EventType,
					formatTimestamp(auditEvent.Timestamp),
					auditEvent.EntityId,
					auditEvent.ProcessInstanceId,
				})
			}

			c.Print(table.format())
			return nil
		},
	}

	c.Flags().StringToStringVar(&filters, "filter", nil, "Filter, consisting of name and value")

	flagQueryOptions(&c, &options)

	return &c
}

// decodeEvents decodes either a JSON array of events or an object with an events array.
func decodeEvents(b []byte) ([]projection.Event, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("no events defined")
	}

	var events []projection.Event
	if b[0] == '[' {
		if err := json.Unmarshal(b, &events); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events: %v", err)
		}
		return events, nil
	}

	var batch struct {
		Events []projection.Event `json:"events"`
	}
	if err := json.Unmarshal(b, &batch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %v", err)
	}
	return batch.Events, nil
}
