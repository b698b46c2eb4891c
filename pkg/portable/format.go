package portable

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format is a bundle encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatZip  Format = "zip"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatZip}

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "zip":
		return FormatZip, nil
	}
	return "", fmt.Errorf("unknown bundle format %q", s)
}

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%s: no file extension", path)
	}
	return ParseFormat(ext)
}

// Write encodes b to w in format f.
func Write(b *Bundle, w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(b, w)
	case FormatYAML:
		return WriteYAML(b, w)
	case FormatZip:
		return WriteArchive(b, w)
	}
	return fmt.Errorf("unknown bundle format %q", f)
}

// Read decodes a bundle in format f from r.
func Read(r io.Reader, f Format) (*Bundle, error) {
	switch f {
	case FormatJSON:
		return ReadJSON(r)
	case FormatYAML:
		return ReadYAML(r)
	case FormatZip:
		return ReadArchive(r)
	}
	return nil, fmt.Errorf("unknown bundle format %q", f)
}

// Export writes b to path, choosing the format from the extension.
func Export(b *Bundle, path string) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(b, out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Import reads a bundle from path, choosing the format from the extension.
func Import(path string) (*Bundle, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	b, err := Read(in, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}
