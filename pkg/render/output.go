package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
)

// ErrUnknownFormat is returned by Save and Encode for unsupported extensions.
var ErrUnknownFormat = errors.New("unknown image format")

// Formats lists the extensions Save understands.
var Formats = []string{".png", ".tga", ".webp"}

// Encode writes img to w in the format named by ext (".png", ".tga" or
// ".webp").
func Encode(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".tga":
		return tga.Encode(w, img)
	case ".webp":
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

// Save encodes img to path, choosing the format from the file extension and
// creating parent directories as needed.
func Save(path string, img image.Image) error {
	ext := filepath.Ext(path)
	if !IsImagePath(path) {
		return fmt.Errorf("save %s: %w: %q", path, ErrUnknownFormat, ext)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := Encode(f, ext, img); err != nil {
		f.Close()
		return fmt.Errorf("save %s: encode: %w", path, err)
	}
	return f.Close()
}

// IsImagePath reports whether path has an extension Save can encode.
func IsImagePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Formats {
		if ext == f {
			return true
		}
	}
	return false
}
