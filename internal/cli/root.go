// Package cli implements the fintrack command line.
package cli

import (
	"fmt"
	"io"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command of the fintrack binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "fintrack",
		Short:         "fintrack - personal finance tracker",
		Long:          "A REST backend for recording income and expenses, savings goals and reports.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ./config.yaml if present)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewAddUserCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))

	return cmd
}

// env is what every subcommand needs after loading configuration.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	db     *gorm.DB
}

func (e *env) close() {
	if e.db != nil {
		_ = database.Close(e.db)
	}
}

// setup loads config, builds the logger writing to logOut and opens a migrated database.
func (o *RootOptions) setup(logOut io.Writer) (*env, error) {
	cfg, err := config.Read(o.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		Component: log.ComponentCLI,
		Output:    logOut,
	})

	db, err := database.Init(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &env{cfg: cfg, logger: logger, db: db}, nil
}
