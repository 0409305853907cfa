package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var unloadCmd = &cobra.Command{
	Use:   "unload <component-id>",
	Short: "Unload a loaded component",
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

		mgr.UnloadComponent(ctx, args[0])
		fmt.Printf("unloaded %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unloadCmd)
}
