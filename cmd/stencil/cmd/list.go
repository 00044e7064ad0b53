package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var listWhat string

func init() {
	list := &cobra.Command{
		Use:   "list",
		Short: "List template ids, control types or converters",
		Long: `List the names known to the project runtime.

By default template ids are listed. Use --kind controls or --kind converters
for the registered control types and value converters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.OutOrStdout(), listWhat)
		},
	}
	list.Flags().StringVarP(&listWhat, "kind", "k", "templates", "what to list: templates, controls or converters")
	RegisterCommand(list)
}

func runList(out io.Writer, kind string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	var names []string
	switch kind {
	case "templates":
		names = p.rt.IDs()
	case "controls":
		names = p.rt.Controls().Names()
	case "converters":
		names = p.rt.Converters().Names()
	default:
		return fmt.Errorf("unknown kind %q (want templates, controls or converters)", kind)
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return nil
}
