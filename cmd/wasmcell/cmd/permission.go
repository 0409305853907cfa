package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func parseDetails(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var details map[string]any
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return nil, fmt.Errorf("parse details JSON: %w", err)
	}
	return details, nil
}

var grantPermissionCmd = &cobra.Command{
	Use:   "grant-permission <component-id> <permission-type> [details-json]",
	Short: "Grant a permission rule to a component's policy",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}
		logger := cliLogger(cfg)
		ctx := context.Background()

		details := ""
		if len(args) == 3 {
			details = args[2]
		}
		parsed, err := parseDetails(details)
		if err != nil {
			return err
		}

		mgr, closeMgr, err := newLifecycleManager(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeMgr()

		if err := mgr.GrantPermission(ctx, args[0], args[1], parsed); err != nil {
			return fmt.Errorf("grant permission: %w", err)
		}
		fmt.Printf("granted %s to %s\n", args[1], args[0])
		return nil
	},
}

var revokePermissionCmd = &cobra.Command{
	Use:   "revoke-permission <component-id> <permission-type> [details-json]",
	Short: "Revoke a permission rule from a component's policy",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}
		logger := cliLogger(cfg)
		ctx := context.Background()

		details := ""
		if len(args) == 3 {
			details = args[2]
		}
		parsed, err := parseDetails(details)
		if err != nil {
			return err
		}

		mgr, closeMgr, err := newLifecycleManager(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeMgr()

		if err := mgr.RevokePermission(ctx, args[0], args[1], parsed); err != nil {
			return fmt.Errorf("revoke permission: %w", err)
		}
		fmt.Printf("revoked %s from %s\n", args[1], args[0])
		return nil
	},
}

var resetPermissionCmd = &cobra.Command{
	Use:   "reset-permission <component-id>",
	Short: "Reset a component's policy to the default-deny template",
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

		if err := mgr.ResetPermission(ctx, args[0]); err != nil {
			return fmt.Errorf("reset permission: %w", err)
		}
		fmt.Printf("reset policy for %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(grantPermissionCmd)
	rootCmd.AddCommand(revokePermissionCmd)
	rootCmd.AddCommand(resetPermissionCmd)
}
