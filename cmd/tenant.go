package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "List or create hospitals",
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hospitals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
		st, closeFn, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		tenants, err := st.ListTenants(ctx)
		if err != nil {
			return err
		}
		if len(tenants) == 0 {
			color.Yellow("No hospitals yet. Create one with 'medseed tenant create --name <name>'")
			return nil
		}
		fmt.Printf("   %-6s %s\n", "ID", "NAME")
		for _, t := range tenants {
			fmt.Printf("   %-6d %s\n", t.ID, t.Name)
		}
		return nil
	},
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a hospital",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return fmt.Errorf("--name is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
		st, closeFn, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		id, err := st.CreateTenant(ctx, name)
		if err != nil {
			return err
		}
		color.Green("✅ Created hospital %q with id %d", name, id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tenantCmd)
	tenantCmd.AddCommand(tenantListCmd, tenantCreateCmd)

	tenantCreateCmd.Flags().String("name", "", "Hospital name")
}
