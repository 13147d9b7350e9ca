package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/healthhub/portal/internal/config"
	"github.com/healthhub/portal/internal/platform/db"
	"github.com/healthhub/portal/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	cmd.PersistentFlags().String("schema", "", "Target schema (defaults to DB_SCHEMA)")
	cmd.PersistentFlags().String("dir", "", "Read migrations from this directory instead of the embedded set")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, schema, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			fmt.Fprintf(cmd.OutOrStdout(), "Running migrations on schema: %s\n", schema)
			count, err := m.Up(cmd.Context(), schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", count)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, schema, closeFn, err := openMigrator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := m.Status(cmd.Context(), schema)
			if err != nil {
				return fmt.Errorf("migration status: %w", err)
			}
			printStatus(cmd, schema, statuses)
			return nil
		},
	}

	cmd.AddCommand(upCmd, statusCmd)
	return cmd
}

func printStatus(cmd *cobra.Command, schema string, statuses []db.MigrationStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(out, "%-8s %-32s %-8s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		state, at := "pending", "-"
		if s.Applied {
			state = "applied"
			if s.AppliedAt != nil {
				at = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-8d %-32s %-8s %s\n", s.Version, s.Name, state, at)
	}
}

// openMigrator connects with only DATABASE_URL required, so migrations run
// before auth settings exist.
func openMigrator(cmd *cobra.Command) (*db.Migrator, string, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, "", nil, fmt.Errorf("DATABASE_URL is required")
	}

	schema, _ := cmd.Flags().GetString("schema")
	if schema == "" {
		schema = cfg.DBSchema
	}
	var source fs.FS = migrations.FS
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		source = os.DirFS(dir)
	}

	pool, err := db.NewPool(cmd.Context(), db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: 2,
	})
	if err != nil {
		return nil, "", nil, err
	}
	return db.NewMigrator(pool, source), schema, pool.Close, nil
}
