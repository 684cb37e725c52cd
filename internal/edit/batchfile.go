package edit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a batch: {"edits": [...]}.
// A bare list of edits is accepted as well.
type Document struct {
	Edits Batch `json:"edits" yaml:"edits" jsonschema:"required,minItems=1,description=Edits against one snapshot of the file. Line numbers refer to the original file"`
}

// ParseBatch decodes a batch from JSON or YAML. JSON is tried first when
// the input starts with '{' or '['; anything else is parsed as YAML.
func ParseBatch(data []byte) (Batch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyBatch
	}

	var batch Batch
	var err error
	switch trimmed[0] {
	case '[':
		err = json.Unmarshal(trimmed, &batch)
	case '{':
		var doc Document
		err = json.Unmarshal(trimmed, &doc)
		batch = doc.Edits
	default:
		batch, err = parseYAML(trimmed)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing batch: %w", err)
	}
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}
	return batch, nil
}

func parseYAML(data []byte) (Batch, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var batch Batch
		err := root.Decode(&batch)
		return batch, err
	case yaml.MappingNode:
		var doc Document
		err := root.Decode(&doc)
		return doc.Edits, err
	default:
		return nil, errors.New("expected a list of edits or an edits mapping")
	}
}

// Schema returns the JSON Schema describing a batch document.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	return r.Reflect(&Document{})
}

// SchemaJSON returns the indented JSON encoding of Schema.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
