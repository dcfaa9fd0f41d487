package main

import (
	"clinic-queue-dashboard/internal/database"
	"clinic-queue-dashboard/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the queue tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.Connect(cfg, log)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info("schema migrated")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var departments []string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default departments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.Connect(cfg, log)
			if err != nil {
				return err
			}

			created, err := database.SeedDepartments(cmd.Context(), repository.NewDepartmentRepo(db), departments, log)
			if err != nil {
				return err
			}
			log.Info("departments seeded", zap.Int("created", created), zap.Int("requested", len(departments)))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&departments, "department", database.DefaultDepartments, "department to create (repeatable)")
	return cmd
}
