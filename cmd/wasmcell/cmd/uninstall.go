package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <component-id>",
	Short: "Unload a component and delete its on-disk artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}
		logger := cliLogger(cfg)
		ctx := context.Background()

		mgr, closeMgr, err := newLifecycleManager(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeMgr()

		if err := mgr.UninstallComponent(ctx, args[0]); err != nil {
			return fmt.Errorf("uninstall %s: %w", args[0], err)
		}
		fmt.Printf("uninstalled %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
