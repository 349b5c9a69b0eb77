package commands

import (
	"context"

	"github.com/spf13/cobra"

	"adstore/cmd/adstore/output"
)

// statusCmd checks connectivity to both backends
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check connectivity to both backends",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(ctx context.Context) error {
	ok := true

	if pg, err := connectRelational(ctx); err != nil {
		output.Error("relational backend: %v", err)
		ok = false
	} else {
		output.Success("relational backend reachable")
		pg.Close()
	}

	if mg, err := connectDocument(ctx); err != nil {
		output.Error("document backend: %v", err)
		ok = false
	} else {
		output.Success("document backend reachable")
		_ = mg.Close(ctx)
	}

	if !ok {
		output.Muted("check adstore.yaml or ADSTORE_* environment variables")
	}
	return nil
}
