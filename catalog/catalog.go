// Package catalog loads driver descriptor files and answers vendor
// lookups over the loaded set.
//
// A descriptor file is a list of records in YAML or JSON (comments and
// trailing commas tolerated). Each record needs at least an
// implementation reference and a vendor name; a record whose
// implementation is not available in this process is skipped with a
// warning, since a catalog may legitimately list drivers not installed
// in a given deployment. A malformed top-level shape is a hard error
// and nothing is loaded.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/quelldb/quell"
)

// Resolver decides whether an implementation reference is available in
// this process and which capability kind it provides. The production
// resolver is connector.KindOf; tests substitute their own.
type Resolver func(impl string) (quell.Kind, bool)

// record mirrors one descriptor-file entry.
type record struct {
	Vendor     string            `yaml:"vendor" json:"vendor"`
	Version    int               `yaml:"version" json:"version"`
	Impl       string            `yaml:"impl" json:"impl"`
	URL        string            `yaml:"url" json:"url"`
	Properties map[string]string `yaml:"properties" json:"properties"`
	Queries    string            `yaml:"queries" json:"queries"`
}

// Catalog is a loaded set of driver descriptors keyed by vendor.
type Catalog struct {
	descriptors map[quell.Vendor]quell.Descriptor
	order       []quell.Vendor
}

// Format selects the descriptor-file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// LoadFile loads a descriptor file, picking the format from the file
// extension (.json/.jsonc -> JSON, everything else YAML).
func LoadFile(path string, resolve Resolver) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	format := FormatYAML
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		format = FormatJSON
	}

	c, err := Load(f, format, resolve)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// Load parses a descriptor list from r. Records that fail to resolve
// their implementation reference are skipped with a warning; a
// duplicate vendor keeps the last record. A top-level shape that is not
// a list of objects fails hard without loading anything.
func Load(r io.Reader, format Format, resolve Resolver) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var records []record
	switch format {
	case FormatJSON:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("parse catalog: %w: %v", quell.ErrInvalidInput, err)
		}
		if err := json.Unmarshal(std, &records); err != nil {
			return nil, fmt.Errorf("parse catalog: %w: %v", quell.ErrInvalidInput, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse catalog: %w: %v", quell.ErrInvalidInput, err)
		}
	default:
		return nil, fmt.Errorf("parse catalog: %w: unknown format %q", quell.ErrInvalidInput, format)
	}

	c := &Catalog{descriptors: make(map[quell.Vendor]quell.Descriptor)}

	for i, rec := range records {
		if rec.Vendor == "" {
			return nil, fmt.Errorf("parse catalog: record %d: %w: missing vendor name", i, quell.ErrInvalidInput)
		}
		if rec.Impl == "" {
			return nil, fmt.Errorf("parse catalog: record %d (%s): %w: missing implementation reference", i, rec.Vendor, quell.ErrInvalidInput)
		}
		if rec.Version < 0 {
			return nil, fmt.Errorf("parse catalog: record %d (%s): %w: negative version", i, rec.Vendor, quell.ErrInvalidInput)
		}

		kind, ok := resolve(rec.Impl)
		if !ok {
			slog.Warn("skipping driver record: implementation not available", "vendor", rec.Vendor, "impl", rec.Impl)
			continue
		}

		vendor := quell.Vendor{Name: rec.Vendor, Version: rec.Version}
		if _, dup := c.descriptors[vendor]; !dup {
			c.order = append(c.order, vendor)
		}
		c.descriptors[vendor] = quell.Descriptor{
			Vendor:     vendor,
			Kind:       kind,
			Impl:       rec.Impl,
			URL:        rec.URL,
			Properties: rec.Properties,
			QueriesRef: rec.Queries,
		}
	}

	return c, nil
}

// Len returns the number of loaded descriptors.
func (c *Catalog) Len() int {
	return len(c.descriptors)
}

// Descriptors returns all loaded descriptors in load order.
func (c *Catalog) Descriptors() []quell.Descriptor {
	out := make([]quell.Descriptor, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, c.descriptors[v])
	}
	return out
}

// Get returns the descriptor for an exact vendor identity.
func (c *Catalog) Get(vendor quell.Vendor) (quell.Descriptor, bool) {
	d, ok := c.descriptors[vendor]
	return d, ok
}

// Match returns every descriptor whose vendor name matches
// case-insensitively, ordered by descending version so callers can
// prefer the newest compatible driver and fall back.
func (c *Catalog) Match(vendorName string) []quell.Descriptor {
	var out []quell.Descriptor
	for _, v := range c.order {
		if strings.EqualFold(v.Name, vendorName) {
			out = append(out, c.descriptors[v])
		}
	}
	slices.SortStableFunc(out, func(a, b quell.Descriptor) int {
		return b.Vendor.Version - a.Vendor.Version
	})
	return out
}
