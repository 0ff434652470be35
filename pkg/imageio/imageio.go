// Package imageio reads and writes image files for the resizer. Decoding goes
// through github.com/disintegration/imaging so JPEG EXIF orientation is
// applied on load; BMP, TIFF and WebP decoders come from golang.org/x/image.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Fepozopo/rescale/pkg/pixbuf"
)

var (
	// ErrSourceLoad is returned when an input file cannot be read.
	ErrSourceLoad = errors.New("imageio: cannot load source")

	// ErrSourceDecode is returned when an input file is not a decodable image.
	ErrSourceDecode = errors.New("imageio: cannot decode source")

	// ErrUnsupportedFormat is returned when an output extension has no encoder.
	ErrUnsupportedFormat = errors.New("imageio: unsupported output format")
)

// DefaultJPEGQuality matches what the interactive editor used for saving.
const DefaultJPEGQuality = 92

// Options control encoding.
type Options struct {
	JPEGQuality int
}

// Load reads and decodes the image at path. The returned format is the
// decoder name reported by the image package ("png", "jpeg", ...).
func Load(path string) (image.Image, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrSourceLoad, path, err)
	}
	return Decode(bytes.NewReader(b), path)
}

// Decode decodes an image from r; name is only used in error messages.
func Decode(r io.ReadSeeker, name string) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrSourceDecode, name, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrSourceLoad, name, err)
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrSourceDecode, name, err)
	}
	return img, format, nil
}

// LoadBuffer loads path into a pixel buffer.
func LoadBuffer(path string) (*pixbuf.Buffer, string, error) {
	img, format, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	buf := pixbuf.FromImage(img)
	if buf == nil {
		return nil, "", fmt.Errorf("%w: %s: empty image", ErrSourceDecode, path)
	}
	return buf, format, nil
}

// CanEncode reports whether files with extension ext (".png", "jpg", ...) can be written.
func CanEncode(ext string) bool {
	_, err := imaging.FormatFromExtension(strings.TrimPrefix(ext, "."))
	return err == nil
}

// Save encodes img to path using the format implied by the file extension.
// The file is written under a temporary name and renamed into place, so a
// failed save never leaves a truncated image behind.
func Save(path string, img image.Image, opts Options) (err error) {
	if img == nil {
		return fmt.Errorf("imageio: nil image for %s", path)
	}
	format, ferr := imaging.FormatFromFilename(path)
	if ferr != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	quality := opts.JPEGQuality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = imaging.Encode(tmp, img, format, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place %s: %w", path, err)
	}
	return nil
}

// SaveBuffer converts buf to an image and saves it.
func SaveBuffer(path string, buf *pixbuf.Buffer, opts Options) error {
	img, err := buf.Image()
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", path, err)
	}
	return Save(path, img, opts)
}

// Info returns a short description of an image, in the style of the
// editor's identify output.
func Info(img image.Image, format string) string {
	if img == nil {
		return "no image"
	}
	if format == "" {
		format = "unknown"
	}
	b := img.Bounds()
	return fmt.Sprintf("Format: %s, Width: %d, Height: %d", strings.ToUpper(format), b.Dx(), b.Dy())
}
