package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/quelldb/quell"
)

// Config is the root configuration struct for quell.
type Config struct {
	Vendor   VendorConfig      `mapstructure:"vendor"`
	Catalog  string            `mapstructure:"catalog" validate:"required"`
	Queries  QueriesConfig     `mapstructure:"queries"`
	Settings map[string]string `mapstructure:"settings"`
	Log      LogConfig         `mapstructure:"log"`
}

// VendorConfig selects which catalog entry to connect to.
type VendorConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version int    `mapstructure:"version" validate:"min=0"`
}

// Vendor returns the configured vendor identity.
func (v VendorConfig) Vendor() quell.Vendor {
	return quell.Vendor{Name: v.Name, Version: v.Version}
}

// QueriesConfig locates the statement resources.
type QueriesConfig struct {
	Dir  string `mapstructure:"dir" validate:"required"`
	Base string `mapstructure:"base" validate:"required"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"vendor":         "vendor.name",
	"vendor-version": "vendor.version",
	"catalog":        "catalog",
	"queries-dir":    "queries.dir",
	"base":           "queries.base",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("vendor.name", "sqlite")
	v.SetDefault("vendor.version", 0)

	v.SetDefault("catalog", "drivers.yaml")

	v.SetDefault("queries.dir", ".")
	v.SetDefault("queries.base", "statements")

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("QUELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
