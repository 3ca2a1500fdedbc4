package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "List the tenants the stored token can access",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}

		client, err := a.client(ctx)
		if err != nil {
			return err
		}

		connections, err := client.FetchConnections(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TENANT ID\tNAME\tTYPE")
		for _, c := range connections {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.TenantID, c.TenantName, c.TenantType)
		}

		return w.Flush()
	},
}
