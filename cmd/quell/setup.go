package main

import (
	"fmt"

	"github.com/quelldb/quell"
	"github.com/quelldb/quell/catalog"
	"github.com/quelldb/quell/config"
	"github.com/quelldb/quell/connector"
)

// loadCatalog loads the configured driver catalog, resolving
// implementation references against the connector registry.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	return catalog.LoadFile(cfg.Catalog, connector.KindOf)
}

// pickDescriptor selects the descriptor for the configured vendor. A
// requested version matches its exact record first and falls back to an
// unversioned record for the same vendor name; without a requested
// version the newest record wins.
func pickDescriptor(cat *catalog.Catalog, cfg *config.Config) (quell.Descriptor, error) {
	matches := cat.Match(cfg.Vendor.Name)
	if len(matches) == 0 {
		return quell.Descriptor{}, fmt.Errorf("no driver in catalog for vendor %q", cfg.Vendor.Name)
	}

	if cfg.Vendor.Version != 0 {
		for _, d := range matches {
			if d.Vendor.Version == cfg.Vendor.Version {
				return d, nil
			}
		}
		for _, d := range matches {
			if !d.Vendor.Versioned() {
				return d, nil
			}
		}
		return quell.Descriptor{}, fmt.Errorf("no driver in catalog for vendor %q version %d", cfg.Vendor.Name, cfg.Vendor.Version)
	}

	return matches[0], nil
}

// statementBase returns the statement base name, preferring the
// descriptor's queries reference over the configured default.
func statementBase(desc quell.Descriptor, cfg *config.Config) string {
	if desc.QueriesRef != "" {
		return desc.QueriesRef
	}
	return cfg.Queries.Base
}

// newManager builds a manager over an unconfigured connector for the
// descriptor.
func newManager(d quell.Descriptor) (*quell.Manager, error) {
	c, err := connector.New(d)
	if err != nil {
		return nil, fmt.Errorf("build connector: %w", err)
	}
	return quell.NewManager(c), nil
}
