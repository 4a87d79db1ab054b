package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ogurasousui/nomina/internal/platform/config"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := newRootCommand(logger).Execute(); err != nil {
		logger.Error().Err(err).Msg("migration failed")
		os.Exit(1)
	}
}

type options struct {
	configPath    string
	migrationsDir string
}

func newRootCommand(logger zerolog.Logger) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply database migrations for the nomina store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	root.PersistentFlags().StringVar(&opts.migrationsDir, "dir", "assets/migrations", "directory containing migration files")

	actions := []struct {
		use   string
		short string
		run   func(*migrate.Migrate, zerolog.Logger) error
	}{
		{"up", "Apply all pending migrations", up},
		{"down", "Revert all applied migrations", down},
		{"drop", "Drop every table in the database", drop},
		{"version", "Print the current migration version", version},
	}
	for _, a := range actions {
		root.AddCommand(&cobra.Command{
			Use:   a.use,
			Short: a.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := open(opts)
				if err != nil {
					return err
				}
				defer m.Close()

				if err := a.run(m, logger); err != nil {
					return fmt.Errorf("%s: %w", a.use, err)
				}
				logger.Info().Str("action", a.use).Msg("migration completed")
				return nil
			},
		})
	}

	return root
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return config.Path()
}

func open(opts *options) (*migrate.Migrate, error) {
	cfg, err := config.Load(effectiveConfigPath(opts.configPath))
	if err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(opts.migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve path for %s: %w", opts.migrationsDir, err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(absDir), cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

func up(m *migrate.Migrate, _ zerolog.Logger) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func down(m *migrate.Migrate, _ zerolog.Logger) error {
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func drop(m *migrate.Migrate, _ zerolog.Logger) error {
	return m.Drop()
}

func version(m *migrate.Migrate, logger zerolog.Logger) error {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info().Msg("no migration applied")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("current version")
	return nil
}
