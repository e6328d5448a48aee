package cmd

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/medseed/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the insertion and deletion order",
	Long: `Show the order entities are seeded in, the order a reset clears them
in, and what each entity depends on. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalogPath, _ := cmd.Flags().GetString("catalog")
		cat, err := loadCatalog(cfg, catalogPath)
		if err != nil {
			return err
		}

		reset, _ := cmd.Flags().GetBool("reset")
		onlyNames, _ := cmd.Flags().GetStringSlice("only")
		mode := seeder.ModeTopUp
		if reset {
			mode = seeder.ModeReset
		}
		var only []seeder.Entity
		for _, name := range onlyNames {
			e, err := seeder.ParseEntity(name)
			if err != nil {
				return err
			}
			only = append(only, e)
		}

		// Planning never touches storage, so any store will do.
		s, err := seeder.New(nil, cat)
		if err != nil {
			return err
		}
		insertion, deletion, err := s.Plan(mode, only)
		if err != nil {
			return err
		}

		counts := seeder.DefaultCounts(cat)
		if cfgCounts, err := cfg.Counts(); err == nil {
			for e, n := range cfgCounts {
				counts[e] = n
			}
		}

		color.New(color.Bold).Printf("📋 Insertion order (%s mode)\n", mode)
		for i, e := range insertion {
			spec, _ := s.Spec(e)
			deps := ""
			for j, rel := range spec.Relations {
				if j > 0 {
					deps += ", "
				}
				deps += fmt.Sprintf("%s→%s", rel.Column, rel.Parent)
				if rel.OnEmpty == seeder.OnEmptyNull {
					deps += " (nullable)"
				}
			}
			planned := fmt.Sprintf("%d", counts[e])
			if spec.Derived {
				planned = "derived"
			}
			fmt.Printf("   %2d. %-16s %-8s %s\n", i+1, spec.Table, planned, color.HiBlackString(deps))
		}

		if mode == seeder.ModeReset {
			fmt.Println()
			color.New(color.Bold).Println("🗑️  Deletion order")
			for i, e := range deletion {
				spec, _ := s.Spec(e)
				fmt.Printf("   %2d. %s\n", i+1, spec.Table)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().Bool("reset", false, "Plan a reset run")
	planCmd.Flags().StringSlice("only", nil, "Plan only these entities")
	planCmd.Flags().String("catalog", "", "Path to a YAML catalog")
}
