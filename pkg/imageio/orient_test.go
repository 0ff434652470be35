package imageio

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// makeExifPayload builds a minimal EXIF APP1 payload (starting with "Exif\x00\x00")
// containing a single Orientation tag (0x0112) in IFD0 with the provided value.
func makeExifPayload(orientation uint16) []byte {
	buf := &bytes.Buffer{}
	buf.Write([]byte("Exif\x00\x00"))
	// TIFF header: little-endian 'II', magic 0x2A, offset to IFD0 = 8
	buf.Write([]byte{'I', 'I'})
	_ = binary.Write(buf, binary.LittleEndian, uint16(0x2A))
	_ = binary.Write(buf, binary.LittleEndian, uint32(8))
	// IFD0: 1 entry, tag 0x0112 (Orientation), type SHORT (3), count 1
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(buf, binary.LittleEndian, uint16(3))
	_ = binary.Write(buf, binary.LittleEndian, uint32(1))
	_ = binary.Write(buf, binary.LittleEndian, orientation)
	_ = binary.Write(buf, binary.LittleEndian, uint16(0))
	// next IFD offset = 0
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))
	return buf.Bytes()
}

// writeOrientedJPEG writes a w x h JPEG with an APP1 EXIF segment right after SOI.
func writeOrientedJPEG(t *testing.T, path string, w, h int, orientation uint16) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 10), uint8(y * 10), 128, 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("jpeg encode failed: %v", err)
	}
	raw := buf.Bytes()

	payload := makeExifPayload(orientation)
	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))

	out := append([]byte{}, raw[:2]...)
	out = append(out, seg...)
	out = append(out, payload...)
	out = append(out, raw[2:]...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAppliesExifOrientation(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		orientation uint16
		w, h        int
	}{
		{1, 16, 8},
		{3, 16, 8},
		{6, 8, 16},
		{8, 8, 16},
	}
	for _, c := range cases {
		path := filepath.Join(dir, "oriented.jpg")
		writeOrientedJPEG(t, path, 16, 8, c.orientation)
		img, format, err := Load(path)
		if err != nil {
			t.Fatalf("orientation %d: Load failed: %v", c.orientation, err)
		}
		if format != "jpeg" {
			t.Fatalf("orientation %d: format = %q; want jpeg", c.orientation, format)
		}
		b := img.Bounds()
		if b.Dx() != c.w || b.Dy() != c.h {
			t.Fatalf("orientation %d: got %dx%d; want %dx%d", c.orientation, b.Dx(), b.Dy(), c.w, c.h)
		}
	}
}
