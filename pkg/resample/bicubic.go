package resample

import (
	"math"

	"github.com/Fepozopo/rescale/pkg/pixbuf"
)

const cubicWindow = 4

// cubicInterpolate evaluates the Catmull-Rom spline through p[1] and p[2] at
// t in [0,1], with p[0] and p[3] the outer control points at offsets -1 and +2.
// The result is not bounded by the control points.
func cubicInterpolate(p [4]float64, t float64) float64 {
	return p[1] + 0.5*t*(p[2]-p[0]+t*(2*p[0]-5*p[1]+4*p[2]-p[3]+t*(3*(p[1]-p[2])+p[3]-p[0])))
}

// bicubicValue is the unclamped 2-D estimate: a cubic pass along each of the
// four rows with fx, then one pass down the resulting column with fy.
func bicubicValue(src pixbuf.Reader, x, y float64, c int) float64 {
	x1 := int(math.Floor(x))
	y1 := int(math.Floor(y))
	fx := x - float64(x1)
	fy := y - float64(y1)

	n := Neighborhood(src, x1, y1, cubicWindow, c)

	var col [4]float64
	for row := 0; row < cubicWindow; row++ {
		p := [4]float64{
			float64(n[row*cubicWindow+0]),
			float64(n[row*cubicWindow+1]),
			float64(n[row*cubicWindow+2]),
			float64(n[row*cubicWindow+3]),
		}
		col[row] = cubicInterpolate(p, fx)
	}
	return cubicInterpolate(col, fy)
}

// estimateBicubic clamps only after the full 2-D pass, then truncates.
func estimateBicubic(src pixbuf.Reader, x, y float64, c int) uint8 {
	return toSample(bicubicValue(src, x, y, c))
}
