package queries

import (
	"fmt"

	"github.com/quelldb/quell"
)

// Parser turns the raw bytes of one backing resource into a flat
// identifier -> text mapping. Implementations are format-specific; the
// chain algorithm is format-agnostic.
type Parser interface {
	Parse(data []byte) (map[string]string, error)
}

type format struct {
	ext    string
	parser Parser
}

// formats is probed in order during chain construction, so resolution
// stays deterministic when a candidate exists in several formats.
var formats = []format{
	{"properties", propertiesParser{}},
	{"json", jsonParser{}},
	{"jsonc", jsonParser{}},
	{"yaml", yamlParser{}},
	{"yml", yamlParser{}},
	{"xml", xmlParser{}},
}

// flatten collapses nested maps into dot-joined keys. Scalar leaves are
// kept as text; sequences have no identifier semantics and are rejected.
func flatten(prefix string, value any, out map[string]string) error {
	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(key, child, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		out[prefix] = v
		return nil
	case bool, int, int64, uint64, float64:
		out[prefix] = fmt.Sprint(v)
		return nil
	default:
		return fmt.Errorf("key %q: unsupported value type %T: %w", prefix, value, quell.ErrInvalidInput)
	}
}
