package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/medseed/internal/config"
	"github.com/Lumos-Labs-HQ/medseed/internal/seeder"
	"github.com/Lumos-Labs-HQ/medseed/internal/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed reference data for one hospital",
	Long: `Seed reference data for one hospital in dependency order.

Without --reset only entities with fewer rows than the threshold are
seeded, and rows that already exist are skipped. With --reset the
hospital's rows are deleted in reverse dependency order and every entity
is seeded again.

Examples:
  medseed seed                          # top up the first hospital
  medseed seed --tenant 3 --reset       # rebuild hospital 3
  medseed seed --count patients=60 --count appointments=40
  medseed seed --only wards --reset     # rebuild wards and their beds
  medseed seed --dry-run --seed 42      # run against an in-memory store`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		tenant, _ := flags.GetInt64("tenant")
		reset, _ := flags.GetBool("reset")
		force, _ := flags.GetBool("force")
		countPairs, _ := flags.GetStringSlice("count")
		onlyNames, _ := flags.GetStringSlice("only")
		catalogPath, _ := flags.GetString("catalog")
		dryRun, _ := flags.GetBool("dry-run")

		opts := seeder.Options{
			Tenant:    tenant,
			Mode:      seeder.ModeTopUp,
			Threshold: cfg.Seed.Threshold,
			Workers:   cfg.Seed.Workers,
		}
		if reset {
			opts.Mode = seeder.ModeReset
		}
		if flags.Changed("threshold") {
			opts.Threshold, _ = flags.GetInt("threshold")
		}
		if flags.Changed("workers") {
			opts.Workers, _ = flags.GetInt("workers")
		}

		if opts.Counts, err = cfg.Counts(); err != nil {
			return err
		}
		overrides, err := config.ParseCounts(countPairs)
		if err != nil {
			return err
		}
		for e, n := range overrides {
			opts.Counts[e] = n
		}
		for _, name := range onlyNames {
			e, err := seeder.ParseEntity(name)
			if err != nil {
				return err
			}
			opts.Only = append(opts.Only, e)
		}

		cat, err := loadCatalog(cfg, catalogPath)
		if err != nil {
			return err
		}

		randomSeed := cfg.Seed.RandomSeed
		if flags.Changed("seed") {
			randomSeed, _ = flags.GetInt64("seed")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var st store.Store
		if dryRun {
			mem, err := store.OpenMemory(ctx)
			if err != nil {
				return err
			}
			defer mem.Close()
			id, err := mem.CreateTenant(ctx, "Dry Run Hospital")
			if err != nil {
				return err
			}
			opts.Tenant = id
			st = mem
			color.Yellow("🧪 Dry run: seeding an in-memory SQLite hospital, the database is not touched")
		} else {
			sqlStore, closeFn, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			st = sqlStore
		}

		s, err := seeder.New(st, cat,
			seeder.WithParams(cfg.Params()),
			seeder.WithSource(seeder.NewSource(randomSeed)),
			seeder.WithLogger(log),
		)
		if err != nil {
			return err
		}

		if opts.Mode == seeder.ModeReset && !dryRun && !force {
			_, deletion, err := s.Plan(opts.Mode, opts.Only)
			if err != nil {
				return err
			}
			names := make([]string, len(deletion))
			for i, e := range deletion {
				names[i] = string(e)
			}
			msg := fmt.Sprintf("Reset deletes this hospital's %s. Continue?", strings.Join(names, ", "))
			if !askUserConfirmation(msg) {
				fmt.Println("❌ Reset cancelled")
				return nil
			}
		}

		summary, err := s.Seed(ctx, opts)
		if summary != nil {
			fmt.Println()
			summary.Print(os.Stdout)
		}
		if err != nil {
			return err
		}

		color.Green("✅ Seeded %d rows for hospital %d in %s", summary.Inserted(), summary.Tenant, summary.Elapsed.Round(time.Millisecond))
		return nil
	},
}

func askUserConfirmation(message string) bool {
	fmt.Printf("🤔 %s (y/N): ", message)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y"
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Int64("tenant", 0, "Hospital id to seed (default: the first hospital)")
	seedCmd.Flags().Bool("reset", false, "Delete the hospital's rows and seed everything again")
	seedCmd.Flags().BoolP("force", "f", false, "Skip the reset confirmation prompt")
	seedCmd.Flags().StringSlice("count", nil, "Row count override as entity=n (repeatable)")
	seedCmd.Flags().StringSlice("only", nil, "Seed only these entities and what they need")
	seedCmd.Flags().Int("threshold", seeder.DefaultThreshold, "Top-up skips entities with at least this many rows")
	seedCmd.Flags().Int("workers", 1, "Concurrent inserts per entity in top-up mode")
	seedCmd.Flags().Int64("seed", 0, "Random seed for reproducible data (0 uses the clock)")
	seedCmd.Flags().String("catalog", "", "Path to a YAML catalog")
	seedCmd.Flags().Bool("dry-run", false, "Seed an in-memory store instead of the database")
}
