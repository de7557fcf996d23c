package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/tukicale/internal/api"
	"github.com/terraincognita07/tukicale/internal/cli"
)

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tukicale",
		Short: "TukiCale - cycle tracking with calendar sync",
		Long: `tukicale records periods, intimacy and health notes, predicts the
next cycle and mirrors everything onto a dedicated calendar.
Settings live in tukicale.yaml (override with --config or TUKICALE_CONFIG).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file")

	root.AddCommand(
		newServeCommand(&configPath),
		newSyncCommand(&configPath),
		newPredictCommand(&configPath),
		newImportCommand(&configPath),
		newExportCommand(&configPath),
		newTokenCommand(&configPath),
		newLinkCommand(&configPath),
	)
	return root
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduled sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.RunServe(cmd.Context(), *configPath)
		},
	}
}

func newSyncCommand(configPath *string) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the mirrored calendar from the stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.RunSync(cmd.Context(), *configPath, dryRun, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the events instead of writing them")
	return cmd
}

func newPredictCommand(configPath *string) *cobra.Command {
	var forecast int
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Show cycle averages and upcoming predictions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.RunPredict(cmd.Context(), *configPath, forecast, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&forecast, "forecast", 3, "number of future period starts to list")
	return cmd
}

func newImportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <tukicale_data.json>",
		Short: "Replace all records with a legacy JSON blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunImport(cmd.Context(), *configPath, args[0], cmd.OutOrStdout())
		},
	}
}

func newExportCommand(configPath *string) *cobra.Command {
	options := cli.ExportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records as json, csv or the legacy blob",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.RunExport(cmd.Context(), *configPath, options, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&options.Format, "format", cli.ExportFormatJSON, "output format: json, csv, legacy")
	cmd.Flags().StringVarP(&options.Path, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&options.From, "from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&options.To, "to", "", "last day to include (YYYY-MM-DD)")
	return cmd
}

func newTokenCommand(configPath *string) *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.RunIssueToken(*configPath, subject, ttl, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "owner", "label stored in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", api.DefaultTokenTTL, "token lifetime")
	return cmd
}

func newLinkCommand(configPath *string) *cobra.Command {
	link := &cobra.Command{
		Use:   "link",
		Short: "Connect an external calendar account",
	}
	link.AddCommand(&cobra.Command{
		Use:   "google",
		Short: "Authorise access to Google Calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.RunLinkGoogle(cmd.Context(), *configPath, os.Stdin, cmd.OutOrStdout())
		},
	})
	return link
}
