package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ogurasousui/hr-records-api/internal/adapters/repository/postgres"
	"github.com/ogurasousui/hr-records-api/internal/core/auth"
	pg "github.com/ogurasousui/hr-records-api/internal/platform/db/postgres"
)

var (
	newUsername string
	newPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user that can obtain an API token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		dbPool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer dbPool.Close()

		svc := auth.NewService(postgres.NewAuthRepository(dbPool), nil, pg.NewTransactionManager(dbPool))
		user, err := svc.CreateUser(ctx, auth.CreateUserInput{
			Username: newUsername,
			Password: newPassword,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %q created (id=%d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&newUsername, "username", "", "login name")
	userCreateCmd.Flags().StringVar(&newPassword, "password", "", "login password")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
