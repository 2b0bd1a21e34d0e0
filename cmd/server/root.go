package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sakif/user-service/internal/config"
	"github.com/sakif/user-service/internal/repository/sqlstore"
)

// app carries what every subcommand shares: the viper instance the flags
// are bound to and the --config path.
type app struct {
	v       *viper.Viper
	cfgFile string
}

// flagKeys maps each command-line flag to the config key it overrides.
var flagKeys = map[string]string{
	"host":       "server.host",
	"port":       "server.port",
	"db-driver":  "database.driver",
	"dsn":        "database.dsn",
	"static-dir": "static.dir",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:   "usersvc",
		Short: "User record CRUD service over HTTP",
		Long: `usersvc serves create, list, get, replace and delete for user records
as JSON over HTTP, backed by SQLite, Postgres or MySQL.

Settings come from flags, USERSVC_* environment variables, and an optional
YAML file given with --config, in that order of priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runServe,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "YAML config file")
	f.String("host", "127.0.0.1", "HTTP listen host")
	f.IntP("port", "p", 8000, "HTTP listen port")
	f.String("db-driver", "sqlite", "database driver: "+strings.Join(sqlstore.Drivers(), ", "))
	f.String("dsn", "database.db", "database DSN (file path for sqlite)")
	f.String("static-dir", "static", "directory served for unmatched paths")
	f.String("log-level", "info", "debug, info, warn or error")
	f.String("log-format", "text", "text or json")

	if err := bindFlags(a.v, f); err != nil {
		// Only fails if a name in flagKeys has no flag, which is a
		// programming error.
		panic(err)
	}

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindFlags(v *viper.Viper, f *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// load resolves the config and builds the logger from it.
func (a *app) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, config.NewLogger(cfg.Log, os.Stdout), nil
}

// openStore opens the configured database and applies migrations.
// The caller closes the store.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	if err := ensureSQLiteDir(cfg.Database); err != nil {
		return nil, err
	}

	store, err := sqlstore.Open(ctx, cfg.Database.Store(), logger)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// ensureSQLiteDir creates the directory holding the SQLite file, like
// mkdir -p. Other drivers and in-memory databases need nothing.
func ensureSQLiteDir(db config.DatabaseConfig) error {
	if !strings.EqualFold(db.Driver, "sqlite") {
		return nil
	}

	path, _, _ := strings.Cut(strings.TrimPrefix(db.DSN, "file:"), "?")
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}
