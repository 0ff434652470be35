package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// imageExtensions are offered by the file picker.
var imageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp"}

// fzfPreviewCommand picks an fzf --preview command for the terminal.
func fzfPreviewCommand(b Backend) string {
	const chafa = "chafa --fill=block --symbols=block -s 80x40 {} 2>/dev/null"
	switch b {
	case BackendKitty:
		return `printf "\x1b_Ga=d\x1b\\"; kitty +kitten icat --silent {} 2>/dev/null || ` + chafa
	case BackendInline:
		return "imgcat {} 2>/dev/null || " + chafa
	default:
		return chafa
	}
}

// fzfFileCommand builds the find | fzf pipeline for startDir.
func fzfFileCommand(startDir string, b Backend) string {
	names := make([]string, len(imageExtensions))
	for i, ext := range imageExtensions {
		names[i] = "-iname '*." + ext + "'"
	}
	return fmt.Sprintf(
		"find %s -type f \\( %s \\) | fzf --multi --height 100%% --border --prompt='Images> ' --ansi --preview=%q --preview-window='right:60%%'",
		strconv.Quote(startDir),
		strings.Join(names, " -o "),
		fzfPreviewCommand(b),
	)
}

// SelectFilesWithFzf lets the user pick one or more images under startDir
// with fzf (TAB marks several). It needs find, bash and fzf on PATH.
func SelectFilesWithFzf(startDir string) ([]string, error) {
	backend := DetectBackend(os.Getenv)
	cmd := exec.Command("bash", "-lc", fzfFileCommand(startDir, backend))
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr

	var out bytes.Buffer
	cmd.Stdout = &out

	err := cmd.Run()
	if backend == BackendKitty {
		clearKittyImages()
	}
	if err != nil {
		return nil, fmt.Errorf("error running fzf for files: %w", err)
	}

	var files []string
	for _, line := range strings.Split(out.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no file selected")
	}
	return files, nil
}

// clearKittyImages removes images the fzf previewer left on screen.
func clearKittyImages() {
	fmt.Fprint(os.Stdout, "\x1b_Ga=d\x1b\\")
}
