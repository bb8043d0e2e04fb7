// Package convert turns a single decoded image into an 8-bit grayscale PGM file.
package convert

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	pnm "github.com/jbuchbinder/gopnm"
	"golang.org/x/image/draw"
)

// Ext is the extension given to every output file.
const Ext = ".pgm"

// Result describes one converted file
type Result struct {
	Source   string
	Output   string
	Format   string
	Width    int
	Height   int
	Gray     *image.Gray
	Duration time.Duration
}

// OutputPath returns <saveDir>/<basename>.pgm for a source path.
// Only the last extension is dropped, so "a.b.png" becomes "a.b.pgm".
func OutputPath(srcPath, saveDir string) string {
	name := filepath.Base(srcPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(saveDir, stem+Ext)
}

// ToGray converts img to single channel 8-bit grayscale using color.GrayModel.
// The result always starts at (0,0) and has the same size as img.
// Color is premultiplied by alpha first, so fully transparent pixels become 0.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// File converts srcPath to grayscale and saves it as PGM under saveDir.
// saveDir must already exist.
func File(srcPath, saveDir string) (*Result, error) {
	startTime := time.Now()

	img, format, err := decodeFile(srcPath)
	if err != nil {
		return nil, err
	}

	gray := ToGray(img)
	outPath := OutputPath(srcPath, saveDir)
	if err := writePGM(outPath, gray); err != nil {
		return nil, err
	}

	return &Result{
		Source:   srcPath,
		Output:   outPath,
		Format:   format,
		Width:    gray.Rect.Dx(),
		Height:   gray.Rect.Dy(),
		Gray:     gray,
		Duration: time.Since(startTime),
	}, nil
}

func decodeFile(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return img, format, nil
}

// writePGM encodes into a temp file next to path and renames it into place,
// so a failed encode never leaves a truncated .pgm behind.
func writePGM(path string, gray *image.Gray) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".img2pgm-*")
	if err != nil {
		return fmt.Errorf("create output in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := pnm.Encode(tmp, gray, pnm.PGM); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
