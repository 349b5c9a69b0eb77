package commands

import (
	"context"

	"github.com/spf13/cobra"

	"adstore/cmd/adstore/output"
	"adstore/pkg/factory"
	"adstore/pkg/migrate"
)

var (
	// Migrate flags
	fromBackend string
	toBackend   string
)

// migrateCmd copies all records from one backend to the other
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy all records from one backend to the other",
	Long: `Copy every category, advertising, client, and program from the source
backend to the destination backend. Destination records get fresh IDs;
related entities are re-resolved by natural key (category name, client
email and password, advertising name/measurement/unit price).

Examples:
  adstore migrate --from relational --to document
  adstore migrate --from document --to relational`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&fromBackend, "from", "", "Source backend (relational|document)")
	migrateCmd.Flags().StringVar(&toBackend, "to", "", "Destination backend (relational|document)")
	_ = migrateCmd.MarkFlagRequired("from")
	_ = migrateCmd.MarkFlagRequired("to")
}

func runMigrate(ctx context.Context) error {
	source, err := factory.ParseBackend(fromBackend)
	if err != nil {
		return err
	}
	destination, err := factory.ParseBackend(toBackend)
	if err != nil {
		return err
	}

	pg, err := connectRelational(ctx)
	if err != nil {
		return err
	}
	defer pg.Close()

	mg, err := connectDocument(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = mg.Close(ctx) }()

	output.Section("Migration " + string(source) + " → " + string(destination))

	migrator := migrate.New(buildFactory(pg, mg), newLogger())
	report, err := migrator.Run(ctx, source, destination)
	if err != nil {
		if report != nil {
			printReport(report)
		}
		output.Error("migration aborted: %v", err)
		return err
	}

	printReport(report)
	output.Success("migration finished")
	return nil
}

func printReport(report *migrate.Report) {
	output.Info("categories:   %d", report.Categories)
	output.Info("advertisings: %d", report.Advertisings)
	output.Info("clients:      %d", report.Clients)
	output.Info("programs:     %d", report.Programs)
}
