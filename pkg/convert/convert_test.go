package convert

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/sergeymakinen/go-bmp"
)

func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func writeImage(t *testing.T, path string, encode func(f *os.File) error) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := encode(f); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func readImage(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestOutputPath(t *testing.T) {
	cases := []struct {
		src, dir, want string
	}{
		{"cat.png", "./", "cat.pgm"},
		{"./cat.png", "out", filepath.Join("out", "cat.pgm")},
		{"photos/a.b.jpg", "/tmp/x", filepath.Join("/tmp/x", "a.b.pgm")},
		{"noext", "out", filepath.Join("out", "noext.pgm")},
	}
	for _, c := range cases {
		if got := OutputPath(c.src, c.dir); got != c.want {
			t.Fatalf("OutputPath(%q, %q) = %q, want %q", c.src, c.dir, got, c.want)
		}
	}
}

func TestFileConvertsPNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cat.png")
	red := color.RGBA{R: 200, G: 40, B: 10, A: 255}
	writeImage(t, src, func(f *os.File) error { return png.Encode(f, solidRGBA(100, 100, red)) })

	res, err := File(src, dir)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if res.Output != filepath.Join(dir, "cat.pgm") {
		t.Fatalf("unexpected output path %q", res.Output)
	}
	if res.Format != "png" {
		t.Fatalf("expected png format, got %q", res.Format)
	}
	if res.Width != 100 || res.Height != 100 {
		t.Fatalf("expected 100x100, got %dx%d", res.Width, res.Height)
	}

	out := readImage(t, res.Output)
	if b := out.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("output is %dx%d, want 100x100", b.Dx(), b.Dy())
	}
	want := color.GrayModel.Convert(red).(color.Gray).Y
	got := color.GrayModel.Convert(out.At(50, 50)).(color.Gray).Y
	if got != want {
		t.Fatalf("gray level %d, want %d", got, want)
	}
}

func TestFileConvertsJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dog.jpg")
	img := solidRGBA(64, 48, color.RGBA{R: 30, G: 160, B: 90, A: 255})
	writeImage(t, src, func(f *os.File) error { return jpeg.Encode(f, img, nil) })

	res, err := File(src, dir)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	out := readImage(t, res.Output)
	if b := out.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("output is %dx%d, want 64x48", b.Dx(), b.Dy())
	}
}

func TestFileConvertsBMP(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "icon.bmp")
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	writeImage(t, src, func(f *os.File) error { return bmp.Encode(f, solidRGBA(8, 4, white)) })

	res, err := File(src, dir)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	out := readImage(t, res.Output)
	if got := color.GrayModel.Convert(out.At(3, 2)).(color.Gray).Y; got != 255 {
		t.Fatalf("white pixel converted to %d", got)
	}
}

func TestFileRejectsUndecodable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(src, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := File(src, dir); err == nil {
		t.Fatalf("expected decode error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the source file to remain, found %d entries", len(entries))
	}
}

func TestFileMissingSaveDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cat.png")
	writeImage(t, src, func(f *os.File) error { return png.Encode(f, solidRGBA(2, 2, color.RGBA{A: 255})) })

	if _, err := File(src, filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing save directory")
	}
}

func TestToGrayKeepsGrayInput(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 3))
	if ToGray(g) != g {
		t.Fatalf("expected gray input to be returned as is")
	}
}

func TestToGrayRebasesBounds(t *testing.T) {
	src := solidRGBA(10, 10, color.RGBA{R: 255, A: 255})
	src.SetRGBA(5, 5, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	sub := src.SubImage(image.Rect(4, 4, 8, 7))

	gray := ToGray(sub)
	if gray.Rect != image.Rect(0, 0, 4, 3) {
		t.Fatalf("unexpected bounds %v", gray.Rect)
	}
	if got := gray.GrayAt(1, 1).Y; got != 255 {
		t.Fatalf("expected white at (1,1), got %d", got)
	}
}

func TestToGrayTransparentIsBlack(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	gray := ToGray(img)
	if got := gray.GrayAt(0, 0).Y; got != 0 {
		t.Fatalf("transparent white converted to %d, want 0", got)
	}
	if got := gray.GrayAt(1, 0).Y; got != 255 {
		t.Fatalf("opaque white converted to %d, want 255", got)
	}
}
