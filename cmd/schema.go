package cmd

import (
	"context"
	"fmt"

	"github.com/Lumos-Labs-HQ/medseed/internal/database"
	"github.com/Lumos-Labs-HQ/medseed/internal/schema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the hospital tables",
	Long: `Create the hospital tables for the configured provider. Statements use
IF NOT EXISTS, so running it against an existing database is safe.
With --print the DDL is written to stdout instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		printDDL, _ := cmd.Flags().GetBool("print")
		if printDDL {
			conn, err := database.NewConnector(cfg.Database.Provider, cfg.Database.Driver)
			if err != nil {
				return err
			}
			ddl, err := schema.DDL(conn.Dialect().Name)
			if err != nil {
				return err
			}
			fmt.Print(ddl)
			return nil
		}

		ctx := context.Background()
		conn, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		n, err := schema.Apply(ctx, conn, conn.Dialect().Name)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Applied %d schema statements (%s)\n", n, conn.Dialect().Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().Bool("print", false, "Print the DDL instead of applying it")
}
