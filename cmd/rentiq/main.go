package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/rentiq/internal/config"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand.
type cli struct {
	envFile string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "rentiq",
		Short:         "Lease lifecycle engine for the rental marketplace",
		Long:          "Runs the lease API and activation job (default), or one-off maintenance commands.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var files []string
			if c.envFile != "" {
				files = append(files, c.envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), c.cfg)
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "dotenv file to load before reading the environment (default .env)")

	root.AddCommand(
		c.serveCommand(),
		c.activateCommand(),
		c.migrateCommand(),
		c.tokenCommand(),
		c.seedCommand(),
	)
	return root
}
