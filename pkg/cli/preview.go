package cli

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// Terminal preview for the kitty graphics protocol and the iTerm2 inline
// image protocol (OSC 1337), which WezTerm, VSCode and others also accept.
// PREVIEW_BACKEND=kitty|inline|none overrides detection.

// Backend is a terminal image protocol.
type Backend string

const (
	// BackendNone disables previews.
	BackendNone Backend = "none"
	// BackendKitty sends PNG data in APC escapes (kitty, ghostty).
	BackendKitty Backend = "kitty"
	// BackendInline uses the iTerm2 OSC 1337 File sequence.
	BackendInline Backend = "inline"
)

var errNoPreviewBackend = errors.New("no terminal image protocol detected")

// DetectBackend picks a backend from environment variables read through getenv.
func DetectBackend(getenv func(string) string) Backend {
	switch strings.ToLower(getenv("PREVIEW_BACKEND")) {
	case "kitty":
		return BackendKitty
	case "inline", "iterm", "wezterm":
		return BackendInline
	case "none", "off":
		return BackendNone
	}
	if isKitty(getenv) {
		return BackendKitty
	}
	if isInlineImageCapable(getenv) {
		return BackendInline
	}
	return BackendNone
}

// isKitty reports whether the terminal speaks the kitty graphics protocol.
func isKitty(getenv func(string) string) bool {
	if getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	// ghostty speaks the kitty protocol
	term := strings.ToLower(getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}

// isInlineImageCapable reports whether the terminal accepts OSC 1337 inline
// images. TERM_PROGRAM is the most reliable signal; TERM is a fallback for
// multiplexers that rewrite it.
func isInlineImageCapable(getenv func(string) string) bool {
	switch getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "Tabby", "Bobcat":
		return true
	}
	if getenv("ITERM_SESSION_ID") != "" {
		return true
	}
	term := strings.ToLower(getenv("TERM"))
	return strings.Contains(term, "wezterm") || strings.Contains(term, "vscode")
}

// Previewer writes images to a terminal.
type Previewer struct {
	Out     io.Writer
	Backend Backend
	Logger  *slog.Logger
}

// NewPreviewer detects the backend from getenv and returns a Previewer
// writing to out. A nil log discards diagnostics.
func NewPreviewer(out io.Writer, getenv func(string) string, log *slog.Logger) *Previewer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	b := DetectBackend(getenv)
	log.Debug("preview backend", "backend", string(b))
	return &Previewer{Out: out, Backend: b, Logger: log}
}

// Supported reports whether a usable backend was detected.
func (p *Previewer) Supported() bool {
	return p.Backend == BackendKitty || p.Backend == BackendInline
}

// Show encodes img and writes it with the selected protocol. Kitty always
// receives PNG; the inline protocol keeps JPEG when format asks for it.
func (p *Previewer) Show(img image.Image, format string) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	if !p.Supported() {
		return errNoPreviewBackend
	}
	f := imaging.PNG
	if p.Backend == BackendInline && (strings.EqualFold(format, "jpeg") || strings.EqualFold(format, "jpg")) {
		f = imaging.JPEG
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(92)); err != nil {
		return fmt.Errorf("preview encode failed: %w", err)
	}
	size := computePreviewSize(img)
	p.Logger.Debug("sending preview", "backend", string(p.Backend), "bytes", buf.Len(), "cols", size.Cols, "rows", size.Rows)

	if p.Backend == BackendKitty {
		return writeKittyImage(p.Out, buf.Bytes(), size)
	}
	return writeInlineImage(p.Out, buf.Bytes(), f == imaging.JPEG, size)
}

// PreviewSize is the placement of a preview in terminal cells.
type PreviewSize struct {
	Cols        int
	Rows        int
	PixelWidth  int
	PixelHeight int
}

// computePreviewSize fits the image into at most 80x40 cells, assuming
// 8x16 pixel cells, without scaling up.
func computePreviewSize(img image.Image) PreviewSize {
	const (
		charW   = 8
		charH   = 16
		minCols = 6
		minRows = 3
		maxCols = 80
		maxRows = 40
	)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	scale := math.Min(1.0, math.Min(float64(maxCols*charW)/float64(w), float64(maxRows*charH)/float64(h)))

	cols := int(math.Round(float64(w) * scale / charW))
	rows := int(math.Round(float64(h) * scale / charH))
	cols = min(max(cols, minCols), maxCols)
	rows = min(max(rows, minRows), maxRows)

	return PreviewSize{Cols: cols, Rows: rows, PixelWidth: cols * charW, PixelHeight: rows * charH}
}

// writeKittyImage transmits PNG data in base64 chunks of at most 4096 bytes.
// The first chunk carries the placement; q=2 suppresses terminal replies.
func writeKittyImage(w io.Writer, png []byte, size PreviewSize) error {
	const chunkSize = 4096
	enc := base64.StdEncoding.EncodeToString(png)
	for pos := 0; pos < len(enc); pos += chunkSize {
		end := min(pos+chunkSize, len(enc))
		more := 0
		if end < len(enc) {
			more = 1
		}
		var seq string
		if pos == 0 {
			seq = fmt.Sprintf("\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%d;%s\x1b\\", size.Cols, size.Rows, more, enc[pos:end])
		} else {
			seq = fmt.Sprintf("\x1b_Gm=%d;%s\x1b\\", more, enc[pos:end])
		}
		if _, err := io.WriteString(w, seq); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// writeInlineImage sends data as an iTerm2 OSC 1337 File sequence, sized by
// the pixel dimensions in size. jpeg only changes the name hint.
func writeInlineImage(w io.Writer, data []byte, jpeg bool, size PreviewSize) error {
	name := "preview.png"
	if jpeg {
		name = "preview.jpg"
	}
	seq := fmt.Sprintf("\x1b]1337;File=name=%s;inline=1;size=%d;width=%dpx;height=%dpx:%s\a\n",
		base64.StdEncoding.EncodeToString([]byte(name)), len(data), size.PixelWidth, size.PixelHeight,
		base64.StdEncoding.EncodeToString(data))
	_, err := io.WriteString(w, seq)
	return err
}
