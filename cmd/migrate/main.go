package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/config"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/logger"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/migration"
	"github.com/RACCHUS/BookkeepingApp-sub007/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

type options struct {
	path     string
	logLevel string
	log      *zap.Logger
}

func main() {
	opts := &options{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the invoicing database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(&logger.Config{
				Level:      opts.logLevel,
				Format:     "console",
				Output:     "stdout",
				TimeFormat: "2006-01-02 15:04:05",
			})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			opts.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.log != nil {
				_ = logger.Sync(opts.log)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.path, "path", "",
		"migrations directory on disk (default: the migrations embedded in the binary)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		migrateCommand(opts, "up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		migrateCommand(opts, "down", "Roll back all migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Down() }),
		migrateCommand(opts, "step <n>", "Apply n migrations, or roll back when n is negative", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		migrateCommand(opts, "goto <version>", "Migrate up or down to a version", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		migrateCommand(opts, "force <version>", "Set the version without running migrations", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				opts.log.Warn("Forcing migration version", zap.Int("version", v))
				return m.Force(v)
			}),
		migrateCommand(opts, "version", "Print the applied version", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if v == 0 {
					opts.log.Info("No migrations applied")
					return nil
				}
				opts.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
				return nil
			}),
		createCommand(opts),
		listCommand(opts),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

// migrateCommand builds a subcommand that runs fn against a connected migrator
func migrateCommand(opts *options, use, short string, args cobra.PositionalArgs, fn func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeDB, err := openMigrator(opts)
			if err != nil {
				return err
			}
			defer closeDB()
			return fn(m, args)
		},
	}
}

func openMigrator(opts *options) (*migration.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if opts.path == "" {
		opts.log.Info("Using embedded migrations")
		m, err = migration.NewFromFS(db, migrations.FS, ".", opts.log)
	} else {
		opts.log.Info("Using migrations from disk", zap.String("path", opts.path))
		m, err = migration.New(db, opts.path, opts.log)
	}
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return m, func() {
		_ = m.Close()
		_ = db.Close()
	}, nil
}

func createCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create a new pair of up/down migration files",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(migrationsDir(opts), args[0], description)
			if err != nil {
				return err
			}
			opts.log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func listCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migration files on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := migration.ListMigrations(migrationsDir(opts))
			if err != nil {
				return err
			}
			if len(names) == 0 {
				opts.log.Info("No migrations found")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func migrationsDir(opts *options) string {
	if opts.path != "" {
		return opts.path
	}
	return defaultMigrationsDir
}
