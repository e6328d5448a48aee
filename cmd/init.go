package cmd

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/medseed/internal/config"
	"github.com/spf13/cobra"
)

var (
	sqliteFlag     bool
	postgresqlFlag bool
	mysqlFlag      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a medseed.config.json in the current directory",
	Long: `Create a medseed.config.json with the default provider, seeding
threshold, per-entity counts and generation settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := ""
		flagCount := 0

		if sqliteFlag {
			provider = "sqlite"
			flagCount++
		}
		if postgresqlFlag {
			provider = "postgresql"
			flagCount++
		}
		if mysqlFlag {
			provider = "mysql"
			flagCount++
		}

		if flagCount > 1 {
			return fmt.Errorf("please specify only one database type (--sqlite, --postgresql, or --mysql)")
		}

		if err := config.InitializeProject(provider); err != nil {
			return err
		}

		fmt.Printf("✅ Created %s\n", config.FileName)
		fmt.Println()
		fmt.Println("📝 Next steps:")
		fmt.Println("   1. Set DATABASE_URL in your environment or .env file")
		fmt.Println("   2. Run 'medseed schema' to create the hospital tables")
		fmt.Println("   3. Run 'medseed tenant create --name \"City Hospital\"'")
		fmt.Println("   4. Run 'medseed seed'")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&sqliteFlag, "sqlite", false, "Initialize project for SQLite database")
	initCmd.Flags().BoolVar(&postgresqlFlag, "postgresql", false, "Initialize project for PostgreSQL database")
	initCmd.Flags().BoolVar(&mysqlFlag, "mysql", false, "Initialize project for MySQL database")
}
