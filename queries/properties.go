package queries

import (
	"fmt"

	"github.com/magiconair/properties"
)

// propertiesParser reads flat Java-style .properties resources.
type propertiesParser struct{}

func (propertiesParser) Parse(data []byte) (map[string]string, error) {
	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	return p.Map(), nil
}
