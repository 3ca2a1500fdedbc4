package cmd

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/HallyG/xerograb/internal/model"
	"github.com/HallyG/xerograb/internal/report"
	"github.com/HallyG/xerograb/internal/schema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [endpoint]",
	Short: "Print the tables derived for an endpoint",
	Long:  "Print the table definitions an endpoint is flattened into. Without an endpoint, list the endpoints and reports.",
	Args:  cobra.MaximumNArgs(1),
	Example: `xerograb schema
xerograb schema Invoices`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := model.Default()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return listEndpoints(cmd.OutOrStdout(), catalog)
		}

		endpoint, ok := catalog.Endpoint(args[0])
		if !ok {
			return fmt.Errorf("unknown endpoint: %s", args[0])
		}

		defs, err := schema.NewBuilder(catalog).BuildEndpoint(endpoint)
		if err != nil {
			return err
		}

		names := lo.Keys(defs)
		slices.Sort(names)

		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), defs[name])
		}

		return nil
	},
}

func listEndpoints(out io.Writer, catalog *model.Catalog) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ENDPOINT\tMODEL\tPAGING")
	for _, e := range catalog.Endpoints() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Model, e.Paging)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "REPORT\tVARIANTS")
	variants := lo.Map(report.Variants(), func(v report.Variant, _ int) string { return string(v) })
	for _, name := range catalog.Reports() {
		fmt.Fprintf(w, "%s\t%v\n", name, variants)
	}

	return w.Flush()
}
