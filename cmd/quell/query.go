package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quelldb/quell/queries"
)

var queryCmd = &cobra.Command{
	Use:   "query <identifier>",
	Short: "Resolve a statement identifier for the configured vendor",
	Long: `Resolve a statement identifier through the cascading chain.

The chain is built from the statement base name and the configured
vendor: the generic resource first, then the vendor override, then the
vendor-version override. The most specific definition of the identifier
wins.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("base", "", "statement resource base name (default from config: queries.base)")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	desc, err := pickDescriptor(cat, cfg)
	if err != nil {
		return err
	}

	head, err := queries.Chain(os.DirFS(cfg.Queries.Dir), statementBase(desc, cfg), desc.Vendor)
	if err != nil {
		return fmt.Errorf("build chain: %w", err)
	}

	text, err := head.Resolve(args[0])
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}
