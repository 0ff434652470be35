package cli

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fepozopo/rescale/pkg/config"
	"github.com/Fepozopo/rescale/pkg/imageio"
)

// clearEnv keeps RESCALE_* settings from the developer's shell out of the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvScales, config.EnvMethods, config.EnvOutputDir, config.EnvFormat,
		config.EnvWorkers, config.EnvDebug, config.EnvPreview, config.EnvLogFormat,
	} {
		t.Setenv(k, "")
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand(strings.NewReader(""), &stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 20), G: uint8(y * 20), B: 90, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, imageio.Save(path, img, imageio.Options{}))
	return path
}

func TestResizeCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	in := writePNG(t, dir, "lenna.png", 8, 8)

	stdout, _, err := execute(t, "resize", "-s", "0.5", "--scale", "2", "-m", "nearest,cubic", "-o", out, in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "4 of 4 resizes written")

	for _, name := range []string{
		"lenna_resized_nearest_0.5.png",
		"lenna_resized_cubic_0.5.png",
		"lenna_resized_nearest_2.png",
		"lenna_resized_cubic_2.png",
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	img, _, err := imageio.Load(filepath.Join(out, "lenna_resized_cubic_2.png"))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestResizeCommandDefaultsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvScales, "0.5")
	t.Setenv(config.EnvMethods, "bilinear")
	dir := t.TempDir()
	t.Setenv(config.EnvOutputDir, dir)
	in := writePNG(t, dir, "lenna.png", 4, 4)

	stdout, _, err := execute(t, "resize", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 of 1 resizes written")
	assert.FileExists(t, filepath.Join(dir, "lenna_resized_bilinear_0.5.png"))
}

func TestResizeCommandExplicitSize(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	in := writePNG(t, dir, "wide.png", 10, 5)

	_, _, err := execute(t, "resize", "--width", "4", "-m", "cubic", "-o", dir, "--format", "bmp", in)
	require.NoError(t, err)
	img, format, err := imageio.Load(filepath.Join(dir, "wide_resized_cubic_4x0.bmp"))
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestResizeCommandSkipsBrokenFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0o644))
	good := writePNG(t, dir, "good.png", 4, 4)

	stdout, stderr, err := execute(t, "resize", "-s", "0.5", "-m", "nearest", "-o", dir, broken, good)
	require.Error(t, err)
	assert.Contains(t, stdout, "1 of 2 resizes written, 1 failed")
	assert.Contains(t, stderr, "failed to load image, skipping")
	assert.Contains(t, stderr, "one or more images could not be resized")
	assert.FileExists(t, filepath.Join(dir, "good_resized_nearest_0.5.png"))
}

func TestResizeCommandCountsSkippedOutputs(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	in := writePNG(t, dir, "lenna.png", 4, 4)
	args := []string{"resize", "-s", "0.5", "-m", "nearest", "-o", dir, in}

	stdout, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 of 1 resizes written\n")

	stdout, stderr, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 of 1 resizes written, 1 skipped")
	assert.Contains(t, stderr, "output exists, skipping")

	stdout, _, err = execute(t, append(args, "--overwrite")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 of 1 resizes written\n")
}

func TestResizeCommandFailsOnOutputConflict(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	first := writePNG(t, filepath.Join(dir, "a"), "lenna.png", 4, 4)
	second := writePNG(t, filepath.Join(dir, "b"), "lenna.png", 8, 8)

	stdout, stderr, err := execute(t, "resize", "-s", "0.5", "-m", "nearest", "-o", out, first, second)
	require.Error(t, err)
	assert.Contains(t, stdout, "1 of 2 resizes written, 1 failed")
	assert.Contains(t, stderr, "output name already used by another job")
}

func TestResizeCommandDebugPrintsStack(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0o644))

	_, stderr, err := execute(t, "--debug", "resize", "-s", "1", "-m", "nearest", "-o", dir, broken)
	require.Error(t, err)
	assert.Contains(t, stderr, "resize.go")
}

func TestResizeCommandRejectsBadFlags(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	in := writePNG(t, dir, "lenna.png", 4, 4)

	_, stderr, err := execute(t, "resize", "-m", "lanczos", in)
	require.Error(t, err)
	assert.Contains(t, stderr, "unknown method")

	_, stderr, err = execute(t, "resize", "-s", "0", in)
	require.Error(t, err)
	assert.Contains(t, stderr, "--scale")

	_, stderr, err = execute(t, "resize")
	require.Error(t, err)
	assert.Contains(t, stderr, "no input files")

	_, _, err = execute(t, "--log-format", "xml", "version")
	require.Error(t, err)
}

func TestMethodsCommand(t *testing.T) {
	clearEnv(t)
	stdout, _, err := execute(t, "methods")
	require.NoError(t, err)
	for _, name := range []string{"nearest", "bilinear", "cubic", "catmull-rom"} {
		assert.Contains(t, stdout, name)
	}
}

func TestVersionCommand(t *testing.T) {
	clearEnv(t)
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "rescale "+Version+"\n", stdout)
}

func TestJSONLogging(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	in := writePNG(t, dir, "lenna.png", 4, 4)

	_, stderr, err := execute(t, "--log-format", "json", "resize", "-s", "0.75", "-m", "cubic", "-o", dir, in)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"Image resized using cubic to 75%"`)
}

func TestFzfCommand(t *testing.T) {
	cmd := fzfFileCommand("my photos", BackendKitty)
	assert.Contains(t, cmd, `find "my photos" -type f`)
	assert.Contains(t, cmd, "-iname '*.webp'")
	assert.Contains(t, cmd, "--multi")
	assert.Contains(t, cmd, "kitty +kitten icat")
	assert.NotContains(t, fzfFileCommand(".", BackendNone), "icat")
}
