package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/HallyG/xerograb/internal/log"
	"github.com/spf13/cobra"
)

var (
	BuildVersion  = `(missing)`
	BuildShortSHA = `(missing)`

	rootCmd = &cobra.Command{
		Use:     "xerograb",
		Short:   "Xero accounting data extractor",
		Long:    `A CLI for extracting Xero accounting endpoints and reports into flat tables.`,
		Version: fmt.Sprintf("%s (%s)", BuildVersion, BuildShortSHA),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			jsonFormat, _ := cmd.Flags().GetBool("json")

			logger := log.New(
				log.WithWriter(cmd.ErrOrStderr()),
				log.WithVerbose(verbose),
				log.WithJSONFormat(jsonFormat),
				log.WithField("build.version", BuildVersion),
				log.WithField("build.sha", BuildShortSHA),
			)

			ctx := log.WithContext(cmd.Context(), logger)
			cmd.SetContext(ctx)
			return nil
		},
	}
)

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("json", false, "write logs as JSON")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./xerograb.yaml)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(tenantsCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(versionCmd)
}

func Main(ctx context.Context, args []string, output io.Writer, errOutput io.Writer) error {
	rootCmd.SetOut(output)
	rootCmd.SetErr(errOutput)
	rootCmd.SetArgs(args[1:])

	return rootCmd.ExecuteContext(ctx)
}
