package cli

import (
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/spf13/cobra"
)

func flagQueryOptions(c *cobra.Command, options *projection.QueryOptions) {
	c.Flags().IntVar(&options.Limit, "limit", 100, "")
	c.Flags().IntVar(&options.Offset, "offset", 0, "")
}
