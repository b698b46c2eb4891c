package portable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML encodes b as YAML. The document has the same shape as the JSON
// form, field names included.
func WriteYAML(b *Bundle, w io.Writer) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// ReadYAML decodes a bundle written by [WriteYAML].
func ReadYAML(r io.Reader) (*Bundle, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return ReadJSON(bytes.NewReader(data))
}
