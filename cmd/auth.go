package cmd

import (
	"github.com/HallyG/xerograb/internal/log"
	"github.com/HallyG/xerograb/internal/oauth"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to Xero",
	Long:  "Run the OAuth2 authorization code flow in the browser and store the token in the state file.",
	Args:  cobra.NoArgs,
	Example: `export XEROGRAB_CLIENT_ID=<client-id>
export XEROGRAB_CLIENT_SECRET=<client-secret>
xerograb auth`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}

		token, err := oauth.Exchange(ctx, a.cfg.OAuth())
		if err != nil {
			return err
		}

		if err := a.store.SetToken(token); err != nil {
			return err
		}

		log.FromContext(ctx).Info().Str("state.file", a.cfg.StateFile).Msg("stored oauth token")

		return nil
	},
}
