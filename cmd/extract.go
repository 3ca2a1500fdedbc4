package cmd

import (
	"errors"

	"github.com/HallyG/xerograb/internal/extract"
	"github.com/HallyG/xerograb/internal/log"
	"github.com/HallyG/xerograb/internal/sink"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the configured endpoints and reports",
	Args:  cobra.NoArgs,
	Example: `xerograb extract --config xerograb.yaml
XEROGRAB_DESTINATION_TYPE=sqlite XEROGRAB_DESTINATION_PATH=out/xero.db xerograb extract`,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		ctx := cmd.Context()

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}

		opts, err := a.cfg.ExtractOptions()
		if err != nil {
			return err
		}

		client, err := a.client(ctx)
		if err != nil {
			return err
		}

		out, err := sink.New(sink.Type(a.cfg.Destination.Type), a.cfg.Destination.Path)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, out.Close())
		}()

		if err := extract.New(client, a.catalog, out, a.store).Run(ctx, opts); err != nil {
			return err
		}

		log.FromContext(ctx).Info().
			Str("destination", a.cfg.Destination.Path).
			Msg("extraction complete")

		return nil
	},
}
