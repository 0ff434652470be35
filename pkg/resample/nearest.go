package resample

import (
	"math"

	"github.com/Fepozopo/rescale/pkg/pixbuf"
)

// estimateNearest copies the source sample closest to (x, y). It never
// produces a value that is not already present in the source.
func estimateNearest(src pixbuf.Reader, x, y float64, c int) uint8 {
	sx := int(math.Round(x))
	sy := int(math.Round(y))
	return sampleClamped(src, sx, sy, c)
}
