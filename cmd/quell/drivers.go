package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quelldb/quell"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List drivers loaded from the catalog",
	Long: `List the drivers loaded from the catalog file.

Without flags the list is filtered to the configured vendor and ordered
newest version first, the same order connection setup uses. Records
whose implementation is not compiled into this binary are skipped at
load time.`,
	RunE: runDrivers,
}

var driversAll bool

func init() {
	driversCmd.Flags().BoolVar(&driversAll, "all", false, "list every loaded driver, not just the configured vendor")
	rootCmd.AddCommand(driversCmd)
}

func runDrivers(cmd *cobra.Command, _ []string) error {
	cfg, err := configFromContext(cmd.Context())
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	var descriptors []quell.Descriptor
	if driversAll {
		descriptors = cat.Descriptors()
	} else {
		descriptors = cat.Match(cfg.Vendor.Name)
	}

	if len(descriptors) == 0 {
		fmt.Println("No drivers loaded.")
		return nil
	}

	for _, d := range descriptors {
		target := d.URL
		if target == "" && d.Properties != nil {
			target = d.Properties["url"]
		}
		fmt.Printf("%-20s kind=%-10s impl=%-10s queries=%-12s %s\n",
			d.Vendor, d.Kind, d.Impl, d.QueriesRef, target)
	}
	return nil
}
