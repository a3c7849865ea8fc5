// Package ctl implements fooddiaryctl, the maintenance CLI for a diary
// database.
package ctl

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	applog "fooddiary/internal/log"
	"fooddiary/internal/services"
	"fooddiary/internal/storage"
)

// EnvPrefix prefixes every environment variable the CLI reads,
// e.g. FOODDIARY_DB for --db.
const EnvPrefix = "FOODDIARY"

const (
	keyDB       = "db"
	keyLogLevel = "log_level"
	keyTitle    = "export.title"
	keyMaxDays  = "export.max_days"
)

type app struct {
	v *viper.Viper
}

// NewRootCommand builds the fooddiaryctl command tree. Each call gets its own
// configuration.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "fooddiaryctl",
		Short: "Maintain a food diary database",
		Long: `fooddiaryctl migrates, exports, imports and prints a food diary
database without going through the HTTP API.

Flags may also be set through FOODDIARY_* environment variables,
e.g. FOODDIARY_DB=/var/lib/fooddiary/fooddiary.db.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			applog.SetDefault(applog.New(applog.Config{
				Level:     applog.ParseLevel(a.v.GetString(keyLogLevel)),
				Component: applog.ComponentCLI,
				Output:    cmd.ErrOrStderr(),
			}))
		},
	}

	flags := root.PersistentFlags()
	flags.String("db", "./data/fooddiary.db", "path of the SQLite database")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag(keyDB, flags.Lookup("db"))
	_ = a.v.BindPFlag(keyLogLevel, flags.Lookup("log-level"))

	a.v.SetDefault(keyTitle, "Food diary")
	a.v.SetDefault(keyMaxDays, 366)
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		a.migrateCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.renderCommand(),
	)
	return root
}

// Execute runs fooddiaryctl with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// withServices opens the database, runs fn and closes it again.
func (a *app) withServices(fn func(svc *services.Services) error) error {
	repo, err := storage.NewSQLiteRepository(a.v.GetString(keyDB))
	if err != nil {
		return fmt.Errorf("open diary: %w", err)
	}
	defer repo.Close()

	exports := services.NewExportService(repo, nil, nil, services.ExportConfig{
		Title:   a.v.GetString(keyTitle),
		MaxDays: a.v.GetInt(keyMaxDays),
	})
	return fn(services.New(repo, nil, exports))
}
