package quell

import (
	"fmt"
	"strconv"
	"strings"
)

// Vendor is the logical identity of a database implementation.
// Two vendors are equal iff both name and version are equal; Vendor is a
// comparable value type and can be used as a map key.
type Vendor struct {
	// Name of the database implementation, e.g. "sqlite" or "postgres".
	Name string
	// Version constraint. Zero means "no version constraint", not
	// version zero.
	Version int
}

// Versioned reports whether the vendor carries a version constraint.
func (v Vendor) Versioned() bool {
	return v.Version != 0
}

func (v Vendor) String() string {
	if v.Versioned() {
		return v.Name + "-" + strconv.Itoa(v.Version)
	}
	return v.Name
}

// Kind tags how a descriptor's implementation reference connects:
// through a plain driver opened with a connection URL, or through a
// data source configured with a property map. The kind is decided when
// the catalog is loaded, not by runtime type inspection.
type Kind string

const (
	KindDriver     Kind = "driver"
	KindDataSource Kind = "datasource"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindDriver, KindDataSource:
		return true
	default:
		return false
	}
}

// Settings is the free-form key-value configuration passed to
// Manager.Connect and Connector.Configure. Recognized keys are
// vendor-specific; unrecognized keys are passed through to the
// underlying driver or pool untouched.
type Settings map[string]string

// Get returns the value for key, or "" if the key is absent.
func (s Settings) Get(key string) string {
	return s[key]
}

// Descriptor is the static metadata describing how to load and connect
// to one vendor's implementation. Descriptor identity is the vendor
// alone: two descriptors for the same vendor are the same driver, and
// the last one loaded into a catalog wins.
type Descriptor struct {
	Vendor Vendor
	Kind   Kind
	// Impl is the implementation reference resolved against the
	// connector registry, e.g. "sqlite" or "postgres".
	Impl string
	// URL is a connection-string template with {key} placeholders,
	// meaningful for KindDriver implementations.
	URL string
	// Properties are data-source properties whose values may contain
	// {key} placeholders, meaningful for KindDataSource implementations.
	Properties map[string]string
	// QueriesRef names the statement-resource base associated with this
	// driver, if any.
	QueriesRef string
}

// ExpandURL returns the connection URL with every {key} placeholder
// replaced by the matching settings value.
func (d Descriptor) ExpandURL(settings Settings) string {
	return Expand(d.URL, settings)
}

// ExpandProperties returns a copy of the property map with every {key}
// placeholder in the values replaced by the matching settings value.
// The descriptor itself is never mutated.
func (d Descriptor) ExpandProperties(settings Settings) map[string]string {
	if d.Properties == nil {
		return nil
	}
	out := make(map[string]string, len(d.Properties))
	for k, v := range d.Properties {
		out[k] = Expand(v, settings)
	}
	return out
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s)", d.Vendor, d.Impl)
}

// Expand replaces every {key} token in template with the value of key
// from settings. A token whose key is absent resolves to the empty
// string; this is never an error. A "{" without a closing "}" is kept
// literally. Expansion is total and idempotent on token-free input.
func Expand(template string, settings Settings) string {
	if !strings.ContainsRune(template, '{') {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			b.WriteString(rest)
			return b.String()
		}

		b.WriteString(rest[:open])
		key := rest[open+1 : open+close]
		b.WriteString(settings[key])
		rest = rest[open+close+1:]
	}
}
