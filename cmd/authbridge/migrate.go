package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/authbridge/internal/config"
	migrations "github.com/dropDatabas3/authbridge/migrations/postgres"
)

// migrateCmd aplica las migraciones embebidas contra users.dsn.
func migrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply the postgres schema migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = strings.ToLower(args[0])
			}
			if action != "up" && action != "down" {
				return fmt.Errorf("unknown action %q", action)
			}

			_ = godotenv.Load()
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Users.DSN) == "" {
				return fmt.Errorf("users.dsn is required to migrate")
			}

			ctx := context.Background()
			pool, err := pgxpool.New(ctx, cfg.Users.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			files, err := listMigrations("_" + action + ".sql")
			if err != nil {
				return err
			}
			if action == "down" {
				// Las down se aplican en orden inverso.
				for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
					files[i], files[j] = files[j], files[i]
				}
			}
			for _, f := range files {
				sql, err := migrations.FS.ReadFile(f)
				if err != nil {
					return err
				}
				if _, err := pool.Exec(ctx, string(sql)); err != nil {
					return fmt.Errorf("exec %s: %w", f, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "applied", f)
			}
			return nil
		},
	}
}

func listMigrations(suffix string) ([]string, error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
