package pixbuf

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// FromImage copies img into a new Buffer. Grayscale images become one
// channel, opaque images three (RGB) and everything else four (straight RGBA).
func FromImage(img image.Image) *Buffer {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}

	switch src := img.(type) {
	case *image.Gray:
		out := &Buffer{Pix: make([]uint8, w*h), W: w, H: h, C: 1}
		for y := 0; y < h; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*w:(y+1)*w], src.Pix[i:i+w])
		}
		return out
	case *image.Gray16:
		out := &Buffer{Pix: make([]uint8, w*h), W: w, H: h, C: 1}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Pix[y*w+x] = uint8(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return out
	}

	// convert to straight RGBA first; no premultiplication is undone beyond what
	// the color model conversion does
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	channels := 4
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		channels = 3
	}
	out := &Buffer{Pix: make([]uint8, w*h*channels), W: w, H: h, C: channels}
	idx := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := nrgba.PixOffset(x, y)
			copy(out.Pix[idx:idx+channels], nrgba.Pix[i:i+channels])
			idx += channels
		}
	}
	return out
}

// Image converts the buffer back into an image.Image suitable for encoding.
func (b *Buffer) Image() (image.Image, error) {
	rect := image.Rect(0, 0, b.W, b.H)
	switch b.C {
	case 1:
		out := image.NewGray(rect)
		copy(out.Pix, b.Pix)
		return out, nil
	case 2, 3, 4:
		out := image.NewNRGBA(rect)
		idx := 0
		for y := 0; y < b.H; y++ {
			for x := 0; x < b.W; x++ {
				out.SetNRGBA(x, y, b.nrgbaAt(idx))
				idx += b.C
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChannels, b.C)
	}
}

func (b *Buffer) nrgbaAt(i int) color.NRGBA {
	p := b.Pix[i : i+b.C]
	switch b.C {
	case 2:
		return color.NRGBA{p[0], p[0], p[0], p[1]}
	case 3:
		return color.NRGBA{p[0], p[1], p[2], 0xff}
	default:
		return color.NRGBA{p[0], p[1], p[2], p[3]}
	}
}
