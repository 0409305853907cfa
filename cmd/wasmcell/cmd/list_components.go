package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listComponentsCmd = &cobra.Command{
	Use:   "list-components",
	Short: "List every currently loaded component id",
	Args:  cobra.NoArgs,
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

		ids := mgr.ListComponents()
		if len(ids) == 0 {
			fmt.Println("no components loaded")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listComponentsCmd)
}
