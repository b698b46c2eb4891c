package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoRasterizer is returned when rsvg-convert is not on PATH.
var ErrNoRasterizer = errors.New("rsvg-convert not found (install librsvg: `brew install librsvg` or `apt install librsvg2-bin`)")

// Raster is an output format produced from SVG by rsvg-convert.
type Raster string

const (
	PDF Raster = "pdf"
	PNG Raster = "png"
)

// rasterizer names the converter binary. Tests point it elsewhere.
var rasterizer = "rsvg-convert"

// Rasterize converts a rendered diagram to format. scale only affects PNG;
// values <= 0 mean 1.
func Rasterize(ctx context.Context, svg []byte, format Raster, scale float64) ([]byte, error) {
	if format != PDF && format != PNG {
		return nil, fmt.Errorf("unsupported raster format %q", format)
	}
	bin, err := exec.LookPath(rasterizer)
	if err != nil {
		return nil, fmt.Errorf("%s diagram: %w", format, ErrNoRasterizer)
	}

	args := []string{"--format", string(format)}
	if format == PNG {
		if scale <= 0 {
			scale = 1
		}
		args = append(args, "--zoom", strconv.FormatFloat(scale, 'f', 2, 64))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("rasterize %s: %w: %s", format, err, msg)
		}
		return nil, fmt.Errorf("rasterize %s: %w", format, err)
	}
	return stdout.Bytes(), nil
}
