package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var attachPolicyCmd = &cobra.Command{
	Use:   "attach-policy <component-id> <policy-uri>",
	Short: "Attach a policy document to a component, replacing any existing one",
	Args:  cobra.ExactArgs(2),
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

		if err := mgr.AttachPolicy(ctx, args[0], args[1]); err != nil {
			return fmt.Errorf("attach policy: %w", err)
		}
		fmt.Printf("attached %s to %s\n", args[1], args[0])
		return nil
	},
}

var detachPolicyCmd = &cobra.Command{
	Use:   "detach-policy <component-id>",
	Short: "Detach a component's policy, reverting it to default-deny",
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

		if err := mgr.DetachPolicy(ctx, args[0]); err != nil {
			return fmt.Errorf("detach policy: %w", err)
		}
		fmt.Printf("detached policy from %s\n", args[0])
		return nil
	},
}

var getPolicyCmd = &cobra.Command{
	Use:   "get-policy <component-id>",
	Short: "Print the policy currently attached to a component",
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

		info, ok := mgr.GetPolicyInfo(args[0])
		if !ok {
			fmt.Printf("no policy attached to %s\n", args[0])
			return nil
		}
		fmt.Printf("policy %s\n  source: %s\n  local:  %s\n  loaded: %s\n",
			info.PolicyID, info.SourceURI, info.LocalPath,
			time.Unix(info.CreatedAt, 0).UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attachPolicyCmd)
	rootCmd.AddCommand(detachPolicyCmd)
	rootCmd.AddCommand(getPolicyCmd)
}
