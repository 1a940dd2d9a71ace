package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quelldb/quell/connector"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Create a config file interactively",
	Long: `Create a quell config file interactively.

You will be prompted for the vendor, the driver catalog location, the
statement resource location and the vendor's connection settings. The
result is written as YAML to the --config path (default ./config.yaml).`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

// configFile mirrors the YAML shape package config reads back.
type configFile struct {
	Vendor struct {
		Name    string `yaml:"name"`
		Version int    `yaml:"version,omitempty"`
	} `yaml:"vendor"`
	Catalog string `yaml:"catalog"`
	Queries struct {
		Dir  string `yaml:"dir"`
		Base string `yaml:"base"`
	} `yaml:"queries"`
	Settings map[string]string `yaml:"settings,omitempty"`
	Log      struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("%s already exists. Overwrite it", path),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	impls := connector.Impls()
	if len(impls) == 0 {
		return errors.New("no connector implementations compiled into this binary")
	}

	vendorSelect := promptui.Select{
		Label: "Vendor",
		Items: impls,
	}
	_, vendorName, err := vendorSelect.Run()
	if err != nil {
		return fmt.Errorf("prompt vendor: %w", err)
	}

	versionPrompt := promptui.Prompt{
		Label:   "Vendor version (0 for unversioned)",
		Default: "0",
		Validate: func(input string) error {
			n, convErr := strconv.Atoi(input)
			if convErr != nil || n < 0 {
				return errors.New("version must be a non-negative integer")
			}
			return nil
		},
	}
	versionStr, err := versionPrompt.Run()
	if err != nil {
		return fmt.Errorf("prompt version: %w", err)
	}
	vendorVersion, _ := strconv.Atoi(versionStr)

	catalogPrompt := promptui.Prompt{
		Label:   "Driver catalog file",
		Default: "drivers.yaml",
	}
	catalogPath, err := catalogPrompt.Run()
	if err != nil {
		return fmt.Errorf("prompt catalog: %w", err)
	}

	queriesDirPrompt := promptui.Prompt{
		Label:   "Statement resource directory",
		Default: ".",
	}
	queriesDir, err := queriesDirPrompt.Run()
	if err != nil {
		return fmt.Errorf("prompt queries dir: %w", err)
	}

	settings, err := promptSettings(vendorName)
	if err != nil {
		return err
	}

	var cfg configFile
	cfg.Vendor.Name = vendorName
	cfg.Vendor.Version = vendorVersion
	cfg.Catalog = catalogPath
	cfg.Queries.Dir = queriesDir
	cfg.Queries.Base = "statements"
	cfg.Settings = settings
	cfg.Log.Level = "info"

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

// promptSettings asks for the connection settings that make sense for
// the selected vendor. Everything entered here lands in the free-form
// settings map, so vendor-specific keys can be added by hand later.
func promptSettings(vendorName string) (map[string]string, error) {
	settings := make(map[string]string)

	var keys []struct {
		key, label, def string
	}
	switch vendorName {
	case "sqlite":
		keys = []struct{ key, label, def string }{
			{"path", "Database file path", "quell.db"},
		}
	case "postgres":
		keys = []struct{ key, label, def string }{
			{"host", "Host", "localhost"},
			{"port", "Port", "5432"},
			{"database", "Database", ""},
			{"user", "User", ""},
			{"password", "Password", ""},
		}
	}

	for _, k := range keys {
		prompt := promptui.Prompt{Label: k.label, Default: k.def}
		if k.key == "password" {
			prompt.Mask = '*'
		}
		v, err := prompt.Run()
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", k.key, err)
		}
		if v != "" {
			settings[k.key] = v
		}
	}

	return settings, nil
}
