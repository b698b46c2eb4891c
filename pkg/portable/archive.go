package portable

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/matzehuels/canvasport/pkg/errors"
)

// ManifestName is the name of the bundle document inside an archive.
const ManifestName = "bundle.json"

// MaxAssetSize bounds a single archive entry on read.
const MaxAssetSize = 64 << 20

// WriteArchive writes b as a zip archive: the bundle document without assets
// followed by one stored entry per asset, in name order.
func WriteArchive(b *Bundle, w io.Writer) error {
	zw := zip.NewWriter(w)

	manifest := *b
	manifest.Assets = nil
	mw, err := zw.Create(ManifestName)
	if err != nil {
		return fmt.Errorf("create %s: %w", ManifestName, err)
	}
	if err := WriteJSON(&manifest, mw); err != nil {
		return err
	}

	names := make([]string, 0, len(b.Assets))
	for name := range b.Assets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		// PNG data is already compressed.
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := fw.Write(b.Assets[name]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return zw.Close()
}

// ReadArchive reads an archive written by [WriteArchive].
func ReadArchive(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var b *Bundle
	assets := make(map[string][]byte)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch {
		case f.Name == ManifestName:
			b, err = readManifest(f)
			if err != nil {
				return nil, err
			}
		case strings.HasPrefix(f.Name, "img/"):
			if err := errors.ValidateAssetName(f.Name); err != nil {
				return nil, fmt.Errorf("archive entry: %w", err)
			}
			content, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			assets[f.Name] = content
		}
	}
	if b == nil {
		return nil, fmt.Errorf("archive has no %s", ManifestName)
	}
	for name, content := range assets {
		b.Assets[name] = content
	}
	return b, nil
}

func readManifest(f *zip.File) (*Bundle, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	var b Bundle
	if err := json.NewDecoder(rc).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Name, err)
	}
	if b.Assets == nil {
		b.Assets = make(map[string][]byte)
	}
	return &b, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > MaxAssetSize {
		return nil, fmt.Errorf("%s: %d bytes exceeds limit", f.Name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > MaxAssetSize {
		return nil, fmt.Errorf("%s exceeds limit", f.Name)
	}
	return data, nil
}
