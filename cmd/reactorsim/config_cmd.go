package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appengine-ltd/reactor/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file and REACTOR_*
environment variables are applied.

Examples:
  reactorsim config
  reactorsim config --write ~/.reactor/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			if target, _ := cmd.Flags().GetString("write"); target != "" {
				if err := config.Save(cfg, target); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
				return nil
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().String("write", "", "Write the effective config to this path instead of printing it")
	return cmd
}
