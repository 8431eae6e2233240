// Command migrate applies and scaffolds the SQL schema under migrations/.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dinarbooks/backend/internal/infrastructure/config"
	"github.com/dinarbooks/backend/internal/infrastructure/logger"
	"github.com/dinarbooks/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrationsPath string
	logLevel       string
	log            *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Dinarbooks database migration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			log, err = logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			migrationsPath, err = resolvePath(migrationsPath)
			if err != nil {
				return err
			}
			log.Debug("Migration CLI started",
				zap.String("command", cmd.Name()),
				zap.String("migrations_path", migrationsPath),
			)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&migrationsPath, "path", "", "path to migrations directory (default: ./migrations)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		withMigrator(&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
		}, func(m *migration.Migrator, _ []string) error { return m.Up() }),
		withMigrator(&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
		}, func(m *migration.Migrator, _ []string) error { return m.Down() }),
		withMigrator(&cobra.Command{
			Use:     "step <n>",
			Short:   "Apply n migrations (negative rolls back)",
			Example: "  migrate step -- -1",
			Args:    cobra.ExactArgs(1),
		}, func(m *migration.Migrator, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		}),
		withMigrator(&cobra.Command{
			Use:   "goto <version>",
			Short: "Migrate up or down to a specific version",
			Args:  cobra.ExactArgs(1),
		}, func(m *migration.Migrator, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.GoTo(uint(version))
		}),
		withMigrator(&cobra.Command{
			Use:   "version",
			Short: "Show the applied migration version",
			Args:  cobra.NoArgs,
		}, func(m *migration.Migrator, _ []string) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				log.Info("No migrations applied")
				return nil
			}
			log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
			return nil
		}),
		withMigrator(&cobra.Command{
			Use:   "force <version>",
			Short: "Set the version without migrating, clearing the dirty flag",
			Args:  cobra.ExactArgs(1),
		}, func(m *migration.Migrator, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(version)
		}),
		createCommand(),
		listCommand(),
	)

	if err := root.Execute(); err != nil {
		if log != nil {
			log.Error("Migration command failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// withMigrator opens the configured database for commands that touch the schema
func withMigrator(cmd *cobra.Command, run func(*migration.Migrator, []string) error) *cobra.Command {
	cmd.RunE = func(_ *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		m, err := migration.New(db, migrationsPath, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				log.Warn("Failed to close migrator", zap.Error(err))
			}
		}()
		return run(m, args)
	}
	return cmd
}

func createCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "create <name> [description]",
		Short:   "Scaffold a new up/down migration pair",
		Example: `  migrate create add_party_phone_index "Index parties by phone"`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(migrationsPath, args[0], description)
			if err != nil {
				return err
			}
			log.Info("Migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations found on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := migration.ListMigrations(migrationsPath)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				log.Info("No migrations found")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				suffix := ""
				if !e.HasDown {
					suffix = " (no down)"
				}
				fmt.Fprintf(out, "  - %s%s\n", e.BaseName(), suffix)
			}
			return nil
		},
	}
}

// resolvePath finds the migrations directory relative to the working directory
// or the binary
func resolvePath(path string) (string, error) {
	if path == "" {
		path = migration.DefaultPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", migration.DefaultPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve migrations path: %w", err)
	}
	return abs, nil
}
