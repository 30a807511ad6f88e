package main

import (
	"context"
	"fmt"
	"os"

	"task_manager/internal/db"
	"task_manager/internal/migrations"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "migrate_apply",
		Short:         "List or apply the embedded database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print migration files in apply order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := migrations.Names()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})

	var dsn string
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Apply every migration to DATABASE_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dsn == "" {
				return fmt.Errorf("DATABASE_URL not set")
			}
			ctx := context.Background()
			pool, err := db.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			return migrations.Apply(ctx, pool, func(name string) {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			})
		},
	}
	apply.Flags().StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "database url")
	root.AddCommand(apply)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
