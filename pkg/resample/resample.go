// Package resample resizes pixel buffers with nearest-neighbour, bilinear or
// bicubic interpolation.
//
// Every output pixel (ox, oy) is mapped back into the source at
// (ox*srcW/dstW, oy*srcH/dstH). The three methods share that mapping and the
// surrounding loop; they differ only in how a sample is estimated at a
// continuous source coordinate. Methods are stateless and safe to use from
// several goroutines on independent buffers.
package resample

import (
	"errors"
	"fmt"

	"github.com/Fepozopo/rescale/pkg/pixbuf"
)

var (
	// ErrInvalidDimension is returned when a target width or height is not positive.
	ErrInvalidDimension = errors.New("resample: invalid target dimension")

	// ErrNilSource is returned when the source buffer is nil or empty.
	ErrNilSource = errors.New("resample: nil source")
)

// Resizer produces a resized copy of a source buffer.
type Resizer interface {
	Resize(src pixbuf.Reader, width, height int) (*pixbuf.Buffer, error)
}

// estimator computes channel c of the output at source coordinate (x, y).
type estimator func(src pixbuf.Reader, x, y float64, c int) uint8

// resample runs est for every output pixel and channel.
func resample(src pixbuf.Reader, width, height int, est estimator) (*pixbuf.Buffer, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}
	sw, sh, channels := src.Width(), src.Height(), src.Channels()
	if sw <= 0 || sh <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: source is %dx%d with %d channels", ErrNilSource, sw, sh, channels)
	}

	dst, err := pixbuf.New(width, height, channels)
	if err != nil {
		return nil, err
	}

	xRatio := float64(sw) / float64(width)
	yRatio := float64(sh) / float64(height)

	i := 0
	for y := 0; y < height; y++ {
		sy := float64(y) * yRatio
		for x := 0; x < width; x++ {
			sx := float64(x) * xRatio
			for c := 0; c < channels; c++ {
				dst.Pix[i] = est(src, sx, sy, c)
				i++
			}
		}
	}
	return dst, nil
}

// Resize resizes src to width x height using m.
func Resize(src pixbuf.Reader, width, height int, m Method) (*pixbuf.Buffer, error) {
	return m.Resize(src, width, height)
}
