// Package pixbuf holds the in-memory sample grid the resampler reads from and
// writes into: width x height pixels with a variable number of 8-bit channels.
package pixbuf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions is returned when width, height or channel count is non-positive.
	ErrInvalidDimensions = errors.New("pixbuf: invalid dimensions")

	// ErrUnsupportedChannels is returned when a buffer cannot be expressed as an image.Image.
	ErrUnsupportedChannels = errors.New("pixbuf: unsupported channel count")
)

// Reader is the read side of a pixel buffer.
type Reader interface {
	Width() int
	Height() int
	// Channels is the number of samples per pixel: 1 gray, 2 gray+alpha,
	// 3 RGB, 4 RGBA.
	Channels() int
	// Sample returns the value of channel c at (x, y). Coordinates must be in bounds.
	Sample(x, y, c int) uint8
}

// Writer is a Reader that can be written to.
type Writer interface {
	Reader
	// SetSample stores v as channel c at (x, y). Coordinates must be in bounds.
	SetSample(x, y, c int, v uint8)
}

// Buffer is a dense, interleaved sample grid. Sample (x, y, c) lives at
// Pix[(y*W+x)*C+c].
type Buffer struct {
	Pix []uint8
	W   int // width in pixels
	H   int // height in pixels
	C   int // channels per pixel
}

var _ Writer = (*Buffer)(nil)

// New allocates a zeroed buffer.
func New(width, height, channels int) (*Buffer, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: %dx%d with %d channels", ErrInvalidDimensions, width, height, channels)
	}
	return &Buffer{
		Pix: make([]uint8, width*height*channels),
		W:   width,
		H:   height,
		C:   channels,
	}, nil
}

// Width returns the number of columns.
func (b *Buffer) Width() int { return b.W }

// Height returns the number of rows.
func (b *Buffer) Height() int { return b.H }

// Channels returns the number of samples per pixel.
func (b *Buffer) Channels() int { return b.C }

// Offset returns the index in Pix of channel 0 at (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.W + x) * b.C
}

// Sample returns channel c at (x, y). It panics when the coordinates are
// outside the buffer; callers clamp first.
func (b *Buffer) Sample(x, y, c int) uint8 {
	return b.Pix[b.Offset(x, y)+c]
}

// SetSample stores v as channel c at (x, y).
func (b *Buffer) SetSample(x, y, c int, v uint8) {
	b.Pix[b.Offset(x, y)+c] = v
}

// Fill sets every sample of channel c to v. A negative c fills all channels.
func (b *Buffer) Fill(c int, v uint8) {
	for i := range b.Pix {
		if c < 0 || i%b.C == c {
			b.Pix[i] = v
		}
	}
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	out := &Buffer{Pix: make([]uint8, len(b.Pix)), W: b.W, H: b.H, C: b.C}
	copy(out.Pix, b.Pix)
	return out
}

// Equal reports whether r has the same shape and samples as b.
func (b *Buffer) Equal(r Reader) bool {
	if r == nil || b.W != r.Width() || b.H != r.Height() || b.C != r.Channels() {
		return false
	}
	if o, ok := r.(*Buffer); ok {
		for i := range b.Pix {
			if b.Pix[i] != o.Pix[i] {
				return false
			}
		}
		return true
	}
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			for c := 0; c < b.C; c++ {
				if b.Sample(x, y, c) != r.Sample(x, y, c) {
					return false
				}
			}
		}
	}
	return true
}

func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer(%dx%d, %d channels)", b.W, b.H, b.C)
}
