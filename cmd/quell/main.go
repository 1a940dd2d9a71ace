package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quelldb/quell/config"

	// Register the built-in connector implementations.
	_ "github.com/quelldb/quell/connector/postgres"
	_ "github.com/quelldb/quell/connector/sqlite"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "quell",
	Short:   "Multi-vendor SQL access support tool",
	Long: `Quell resolves drivers, vendor-specific SQL text and connections
for applications that talk to several SQL vendors through one abstraction.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		readConfig(cmd)
		setupLogging()

		var files []string
		if cf, _ := cmd.Flags().GetString("config"); cf != "" {
			files = append(files, cf)
		}
		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("vendor", "", "vendor name (default: sqlite, env: QUELL_VENDOR_NAME)")
	rootCmd.PersistentFlags().Int("vendor-version", 0, "vendor version, 0 for unversioned (env: QUELL_VENDOR_VERSION)")
	rootCmd.PersistentFlags().String("catalog", "", "driver catalog file (default: drivers.yaml, env: QUELL_CATALOG)")

	_ = viper.BindPFlag("vendor.name", rootCmd.PersistentFlags().Lookup("vendor"))
	_ = viper.BindPFlag("vendor.version", rootCmd.PersistentFlags().Lookup("vendor-version"))
	_ = viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
