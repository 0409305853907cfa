package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <uri>",
	Short: "Load a component from a file, OCI, or HTTPS URI",
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

		id, result, err := mgr.LoadComponent(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}
		fmt.Printf("loaded %s: %s\n", id, result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
