// cmd/xpsctl/migrate.go
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"motion-service/internal/database"
)

var (
	cmdMigrate = &cobra.Command{
		Use:   "migrate",
		Short: "Manage the exchange journal schema",
		Long:  ``,
	}

	cmdMigrateUp = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *database.Migrator) error { return m.Up() })
		},
	}

	cmdMigrateDown = &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *database.Migrator) error { return m.Down() })
		},
	}

	cmdMigrateVersion = &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *database.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	}

	cmdMigrateForce = &cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return withMigrator(func(m *database.Migrator) error { return m.Force(version) })
		},
	}
)

func init() {
	rootCmd.AddCommand(cmdMigrate)
	cmdMigrate.AddCommand(cmdMigrateUp, cmdMigrateDown, cmdMigrateVersion, cmdMigrateForce)
}

func withMigrator(run func(m *database.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.NewConnection(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return run(database.NewMigrator(db, logger, &cfg.Database))
}
