package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Marshal encodes doc as indented JSON or as YAML. The YAML keeps the key
// order of the JSON encoding.
func Marshal(doc *openapi3.T, format string) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("schema: document is nil")
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: encode json: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return append(raw, '\n'), nil
	case "yaml", "yml":
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return nil, fmt.Errorf("schema: convert to yaml: %w", err)
		}
		blockStyle(&node)
		out, err := yaml.Marshal(&node)
		if err != nil {
			return nil, fmt.Errorf("schema: encode yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("schema: unsupported format %q", format)
	}
}

// Load parses a document produced by Marshal, in either format.
func Load(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schema: load document: %w", err)
	}
	return doc, nil
}

// blockStyle drops the flow and quoting styles JSON input carries so the
// encoder picks plain YAML, quoting only where a value would change type.
func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}
