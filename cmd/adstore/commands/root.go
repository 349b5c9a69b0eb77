// Package commands implements the adstore command-line interface.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"adstore/pkg/factory"
	"adstore/pkg/mongodb"
	"adstore/pkg/postgres"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "adstore",
	Short: "adstore - Dual-backend storage for an advertising agency",
	Long: `adstore persists advertising campaigns in either a normalized PostgreSQL
schema or a denormalized MongoDB schema behind one repository contract,
and migrates all data between the two with natural-key re-resolution.

Connection settings come from adstore.yaml (or --config), overridable via
ADSTORE_* environment variables:
  postgres.url    PostgreSQL connection URL
  mongo.url       MongoDB connection URL
  mongo.database  MongoDB database name`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./adstore.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// initConfig loads configuration from file and environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("adstore")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetDefault("postgres.url", "postgres://postgres@localhost:5432/adstore?sslmode=disable")
	viper.SetDefault("mongo.url", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "adstore")

	viper.SetEnvPrefix("adstore")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Missing config file is fine; defaults and environment cover it.
	_ = viper.ReadInConfig()
}

// newLogger builds the process logger; --verbose enables debug records.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// connectRelational connects the PostgreSQL store from configuration.
func connectRelational(ctx context.Context) (*postgres.Store, error) {
	store, err := postgres.ConnectWithURL(ctx, viper.GetString("postgres.url"), nil)
	if err != nil {
		return nil, fmt.Errorf("relational backend: %w", err)
	}
	return store, nil
}

// connectDocument connects the MongoDB store from configuration.
func connectDocument(ctx context.Context) (*mongodb.Store, error) {
	store, err := mongodb.Connect(ctx, viper.GetString("mongo.url"), viper.GetString("mongo.database"))
	if err != nil {
		return nil, fmt.Errorf("document backend: %w", err)
	}
	return store, nil
}

// buildFactory wires both connected stores into one factory.
func buildFactory(pg *postgres.Store, mg *mongodb.Store) *factory.Factory {
	f := factory.New()
	f.Register(factory.Relational, pg.Repositories())
	f.Register(factory.Document, mg.Repositories())
	return f
}
