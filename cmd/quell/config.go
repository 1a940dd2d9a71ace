package main

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("vendor.name", "sqlite")
	viper.SetDefault("vendor.version", 0)

	viper.SetDefault("catalog", "drivers.yaml")

	viper.SetDefault("queries.dir", ".")
	viper.SetDefault("queries.base", "statements")

	viper.SetDefault("log.level", "info")
}

func readConfig(cmd *cobra.Command) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		slog.Warn("failed to bind flags", "err", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("QUELL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			slog.Warn("error reading config file", "err", err)
		}
	}
}
