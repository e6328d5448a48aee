package cmd

import (
	"context"
	"fmt"

	"github.com/Lumos-Labs-HQ/medseed/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts for one hospital",
	Long: `Show how many rows each seeded table holds for a hospital and
whether a top-up run would seed it.`,
	Args: cobra.NoArgs,
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

		requested, _ := cmd.Flags().GetInt64("tenant")
		tenant, err := seeder.ResolveTenant(ctx, st, requested)
		if err != nil {
			return err
		}

		threshold := cfg.Seed.Threshold
		if cmd.Flags().Changed("threshold") {
			threshold, _ = cmd.Flags().GetInt("threshold")
		}

		color.New(color.Bold).Printf("🏥 Hospital %d\n", tenant)
		fmt.Printf("   %-16s %8s  %s\n", "TABLE", "ROWS", "TOP-UP")
		for _, spec := range seeder.Registry() {
			n, err := st.Count(ctx, spec.Table, tenant)
			if err != nil {
				return err
			}
			state := color.GreenString("populated")
			if n < int64(threshold) {
				state = color.YellowString("would seed")
			}
			fmt.Printf("   %-16s %8d  %s\n", spec.Table, n, state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Int64("tenant", 0, "Hospital id (default: the first hospital)")
	statusCmd.Flags().Int("threshold", seeder.DefaultThreshold, "Row count at which an entity counts as populated")
}
