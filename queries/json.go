package queries

import (
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"
)

// jsonParser reads nested JSON resources. Comments and trailing commas
// are tolerated so statement files can be annotated.
type jsonParser struct{}

func (jsonParser) Parse(data []byte) (map[string]string, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	var root map[string]any
	if err := json.Unmarshal(std, &root); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	out := make(map[string]string)
	if err := flatten("", root, out); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return out, nil
}
