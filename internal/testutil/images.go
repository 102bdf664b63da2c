// Package testutil writes small fixture files (images, manifests) for tests.
package testutil

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// GrayPNG writes a width x height grayscale PNG where pixel (x, y) has
// intensity fill(x, y), and returns its path.
func GrayPNG(t *testing.T, dir, name string, width, height int, fill func(x, y int) uint8) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	return writePNG(t, dir, name, img)
}

// ColorPNG writes a width x height PNG filled with c and returns its path.
func ColorPNG(t *testing.T, dir, name string, width, height int, c color.NRGBA) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, c)
		}
	}
	return writePNG(t, dir, name, img)
}

// Manifest writes a header line followed by rows and returns its path.
func Manifest(t *testing.T, dir, name, header string, rows ...string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(r)
		b.WriteByte('\n')
	}

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("testutil: mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("testutil: write manifest: %v", err)
	}
	return path
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("testutil: mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("testutil: create %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("testutil: encode %s: %v", path, err)
	}
	return path
}
