package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"screen-grab/src/screenshot"
	"screen-grab/src/selection"
)

// isolate keeps the developer's configuration out of the command under test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("SCREEN_GRAB_ENV", "")
	for _, env := range []string{"SAVE_FOLDER", "SAVE_FORMAT", "ENABLE_FILE_LOGGING", "CAPTURE_BACKEND", "DEFAULT_SCREEN"} {
		t.Setenv(env, "")
	}
	return dir
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&cliOptions{})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--env", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.Execute()
	return out.String(), err
}

func decodeSize(t *testing.T, path string) image.Point {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return image.Pt(cfg.Width, cfg.Height)
}

func TestCropCommand(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, 200, 100)
	out := filepath.Join(dir, "out.png")

	stdout, err := execute(t, "", "crop", "--input", in, "--rect", "10,10,110,60", "--out", out)
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	if strings.TrimSpace(stdout) != out {
		t.Fatalf("stdout = %q, want %q", stdout, out)
	}
	if got := decodeSize(t, out); got != image.Pt(100, 50) {
		t.Fatalf("cropped to %v, want 100x50", got)
	}
}

func TestCropInvertedRect(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, 200, 200)
	out := filepath.Join(dir, "out.png")

	if _, err := execute(t, "", "crop", "--input", in, "--rect", "100,100,20,40", "--out", out); err != nil {
		t.Fatalf("crop: %v", err)
	}
	if got := decodeSize(t, out); got != image.Pt(80, 60) {
		t.Fatalf("cropped to %v, want 80x60", got)
	}
}

func TestCropZeroAreaFails(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, 50, 50)
	out := filepath.Join(dir, "out.png")

	if _, err := execute(t, "", "crop", "--input", in, "--rect", "10,10,10,40", "--out", out); err == nil {
		t.Fatal("zero-width crop should fail")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("no file should be written, stat err = %v", err)
	}
}

func TestCaptureWholeScreenFormatFromPath(t *testing.T) {
	dir := isolate(t)
	a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	writePNG(t, a, 30, 20)
	writePNG(t, b, 64, 48)
	out := filepath.Join(dir, "shot.jpg")

	if _, err := execute(t, "", "capture", "--input", a+","+b, "--screen", "1", "--out", out); err != nil {
		t.Fatalf("capture: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("expected a jpeg: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Fatalf("captured %dx%d, want 64x48", cfg.Width, cfg.Height)
	}
}

func TestCaptureDefaultPathInFolder(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, 16, 16)
	folder := filepath.Join(dir, "shots")

	stdout, err := execute(t, "", "capture", "--input", in, "--folder", folder, "--format", "gif")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	path := strings.TrimSpace(stdout)
	if filepath.Dir(path) != folder || !strings.HasPrefix(filepath.Base(path), "screenshot_") || filepath.Ext(path) != ".gif" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestCaptureInvalidScreen(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, 16, 16)

	_, err := execute(t, "", "capture", "--input", in, "--screen", "3", "--out", filepath.Join(dir, "x.png"))
	if !errors.Is(err, screenshot.ErrInvalidScreen) {
		t.Fatalf("err = %v, want ErrInvalidScreen", err)
	}
}

func TestScreensCommand(t *testing.T) {
	dir := isolate(t)
	a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	writePNG(t, a, 30, 20)
	writePNG(t, b, 64, 48)

	stdout, err := execute(t, "", "screens", "--input", a, "--input", b)
	if err != nil {
		t.Fatalf("screens: %v", err)
	}
	want := "0: 30x20 at (0,0)\n1: 64x48 at (0,0)\n"
	if stdout != want {
		t.Fatalf("stdout = %q, want %q", stdout, want)
	}
}

func TestScriptCommand(t *testing.T) {
	dir := isolate(t)
	a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	writePNG(t, a, 30, 20)
	writePNG(t, b, 300, 200)
	out := filepath.Join(dir, "out.png")

	script := strings.Join([]string{
		"# pick the big screen",
		"screen 1",
		"capture",
		"down 10 10",
		"move 110 60",
		"up 110 60",
		"export png " + out,
		"quit",
	}, "\n")
	stdout, err := execute(t, script, "script", "--input", a+","+b)
	if err != nil {
		t.Fatalf("script: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "captured screen 1 300x200") {
		t.Fatalf("missing capture line in %q", stdout)
	}
	if !strings.Contains(stdout, "saved "+out) {
		t.Fatalf("missing saved line in %q", stdout)
	}
	if got := decodeSize(t, out); got != image.Pt(100, 50) {
		t.Fatalf("exported %v, want 100x50", got)
	}
}

func TestScriptReportsFailures(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, 16, 16)

	stdout, err := execute(t, "screen 4\nexport png "+filepath.Join(dir, "x.png")+"\n", "script", "--input", in)
	if err == nil || !strings.Contains(err.Error(), "2 event(s) failed") {
		t.Fatalf("err = %v, want two failures", err)
	}
	if !strings.Contains(stdout, "error screen:") || !strings.Contains(stdout, "error selection:") {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestScriptUnknownEvent(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, 16, 16)
	if _, err := execute(t, "jump 1 2\n", "script", "--input", in); err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("err = %v, want a line 1 parse error", err)
	}
}

func TestParseRect(t *testing.T) {
	r, err := parseRect("10, 20,110 ,60")
	if err != nil {
		t.Fatal(err)
	}
	if want := (selection.Rect{Left: 10, Top: 20, Right: 110, Bottom: 60}); r != want {
		t.Fatalf("got %+v, want %+v", r, want)
	}
	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "1,2,3,4,5"} {
		if _, err := parseRect(bad); err == nil {
			t.Errorf("parseRect(%q) should fail", bad)
		}
	}
}

func TestNormalizeLegacyArgs(t *testing.T) {
	got := normalizeLegacyArgs([]string{"grab", "capture", "-screen", "1", "-out=x.png", "-v", "--copy", "-5"})
	want := []string{"grab", "capture", "--screen", "1", "--out=x.png", "-v", "--copy", "-5"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
