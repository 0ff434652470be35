package resample

import (
	"math"

	"github.com/Fepozopo/rescale/pkg/pixbuf"
)

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sampleClamped returns channel c at (x, y) with both coordinates clamped to the buffer.
func sampleClamped(src pixbuf.Reader, x, y, c int) uint8 {
	x = Clamp(x, 0, src.Width()-1)
	y = Clamp(y, 0, src.Height()-1)
	return src.Sample(x, y, c)
}

// windowStart is the first offset of a size-wide window anchored at an
// integer coordinate. Windows run start..start+size-1, so a 4-wide window
// covers -1..2 and a 3-wide one -1..1.
func windowStart(size int) int {
	return -(size - 1) / 2
}

// Neighborhood returns the size x size samples of channel c around (x, y),
// row by row. Every coordinate is clamped independently, so pixels on the
// border repeat near the edges. It returns nil for size <= 0.
func Neighborhood(src pixbuf.Reader, x, y, size, c int) []uint8 {
	if size <= 0 {
		return nil
	}
	out := make([]uint8, 0, size*size)
	start := windowStart(size)
	for dy := start; dy < start+size; dy++ {
		for dx := start; dx < start+size; dx++ {
			out = append(out, sampleClamped(src, x+dx, y+dy, c))
		}
	}
	return out
}

// toSample clamps v to [0,255] and drops the fraction, so 72.9 becomes 72.
// NaN maps to 0.
func toSample(v float64) uint8 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
