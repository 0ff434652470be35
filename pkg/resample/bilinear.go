package resample

import (
	"math"

	"github.com/Fepozopo/rescale/pkg/pixbuf"
)

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// estimateBilinear interpolates the four samples around (x, y), first along
// x on both rows, then along y.
func estimateBilinear(src pixbuf.Reader, x, y float64, c int) uint8 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := float64(sampleClamped(src, x0, y0, c))
	c10 := float64(sampleClamped(src, x0+1, y0, c))
	c01 := float64(sampleClamped(src, x0, y0+1, c))
	c11 := float64(sampleClamped(src, x0+1, y0+1, c))

	top := lerp(c00, c10, fx)
	bottom := lerp(c01, c11, fx)
	return toSample(lerp(top, bottom, fy))
}
