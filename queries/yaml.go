package queries

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlParser reads nested YAML resources.
type yamlParser struct{}

func (yamlParser) Parse(data []byte) (map[string]string, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	out := make(map[string]string)
	if err := flatten("", root, out); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return out, nil
}
