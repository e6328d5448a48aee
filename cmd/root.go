package cmd

import (
	"fmt"
	"os"

	"github.com/Lumos-Labs-HQ/medseed/internal/config"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════════════════════╗",
		"║   ███╗   ███╗███████╗██████╗ ███████╗███████╗███████╗██████╗ ║",
		"║   ████╗ ████║██╔════╝██╔══██╗██╔════╝██╔════╝██╔════╝██╔══██╗║",
		"║   ██╔████╔██║█████╗  ██║  ██║███████╗█████╗  █████╗  ██║  ██║║",
		"║   ██║╚██╔╝██║██╔══╝  ██║  ██║╚════██║██╔══╝  ██╔══╝  ██║  ██║║",
		"║   ██║ ╚═╝ ██║███████╗██████╔╝███████║███████╗███████╗██████╔╝║",
		"║   ╚═╝     ╚═╝╚══════╝╚═════╝ ╚══════╝╚══════╝╚══════╝╚═════╝ ║",
		"║                                                              ║",
		"║          🏥 Hospital reference data, seeded in order 🏥       ║",
		"╚══════════════════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                        ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "medseed",
	Short: "Seed per-hospital reference data in dependency order",
	Long: `
medseed fills a hospital management database with reference data for one
hospital at a time: departments, patients, doctors, medicines, lab tests,
inventory, wards and beds, plus appointments, lab bookings, bills and
emergency cases generated from them.

Modes:
- top-up (default): only entities with fewer rows than the threshold are
  seeded; duplicate rows are skipped
- reset (--reset): the hospital's rows are cleared and seeded again

Database Support:
- PostgreSQL (pgx or lib/pq)
- MySQL
- SQLite`,
	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("medseed version %s\n", Version)
			os.Exit(0)
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./medseed.config.json)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("medseed.config")
	}

	config.BindEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Failed to read config:", err)
		}
	}
}
