package resample

import (
	"fmt"
	"math"
)

// FitSize resolves a requested target size against the source size. If only
// one of width or height is 0 the other follows the source aspect ratio; if
// both are 0 the source size is returned.
func FitSize(srcW, srcH, width, height int) (int, int, error) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, fmt.Errorf("%w: source is %dx%d", ErrNilSource, srcW, srcH)
	}
	if width < 0 || height < 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}
	w, h := width, height
	switch {
	case w == 0 && h == 0:
		return srcW, srcH, nil
	case w == 0:
		w = int(float64(srcW) * float64(h) / float64(srcH))
	case h == 0:
		h = int(float64(srcH) * float64(w) / float64(srcW))
	}
	return max(w, 1), max(h, 1), nil
}

// ScaleSize multiplies the source size by factor, truncating toward zero.
func ScaleSize(srcW, srcH int, factor float64) (int, int, error) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
		return 0, 0, fmt.Errorf("%w: scale factor %v", ErrInvalidDimension, factor)
	}
	w := int(float64(srcW) * factor)
	h := int(float64(srcH) * factor)
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d scaled by %v gives %dx%d", ErrInvalidDimension, srcW, srcH, factor, w, h)
	}
	return w, h, nil
}
