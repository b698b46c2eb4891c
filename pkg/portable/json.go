package portable

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON encodes b as indented JSON.
func WriteJSON(b *Bundle, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a bundle from r.
func ReadJSON(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if b.Assets == nil {
		b.Assets = make(map[string][]byte)
	}
	return &b, nil
}
