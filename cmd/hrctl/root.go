package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ogurasousui/hr-records-api/internal/platform/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "hrctl",
	Short:         "Administrative commands for the HR records API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.ResolvePath(configPath))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
