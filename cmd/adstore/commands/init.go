package commands

import (
	"context"

	"github.com/spf13/cobra"

	"adstore/cmd/adstore/output"
)

// initCmd creates the relational schema
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the relational schema if it does not exist",
	Long: `Create the five relational tables (category, client, advertising,
program, program_advertising) if they do not exist yet. Idempotent.
The document backend needs no preparation; collections appear on first
write.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(ctx context.Context) error {
	pg, err := connectRelational(ctx)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		return err
	}
	output.Success("relational schema ready")
	return nil
}
