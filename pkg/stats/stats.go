package stats

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Luma holds the gray level statistics of a converted image
type Luma struct {
	Mean   float64
	StdDev float64
}

// Luminance computes mean and standard deviation of the 0-255 gray levels.
// Pixels are binned into a 256 level histogram which gonum weighs, so
// memory does not grow with the image size.
func Luminance(img *image.Gray) Luma {
	bounds := img.Bounds()
	if bounds.Empty() {
		return Luma{}
	}

	var counts [256]float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[img.PixOffset(bounds.Min.X, y):img.PixOffset(bounds.Max.X, y)]
		for _, v := range row {
			counts[v]++
		}
	}

	if bounds.Dx()*bounds.Dy() == 1 {
		return Luma{Mean: float64(img.GrayAt(bounds.Min.X, bounds.Min.Y).Y)}
	}
	mean, std := stat.MeanStdDev(grayLevels[:], counts[:])
	return Luma{Mean: mean, StdDev: std}
}

var grayLevels = func() (l [256]float64) {
	for i := range l {
		l[i] = float64(i)
	}
	return l
}()

// FileRecord is one converted (or failed) file in a run
type FileRecord struct {
	Source   string
	Output   string
	Width    int
	Height   int
	Luma     Luma
	Duration time.Duration
	Err      error
}

// RunSummary holds timing and metadata for a whole batch
type RunSummary struct {
	ImageType string
	InputDir  string
	SavePath  string
	Converted int
	Failed    int
	Aborted   bool
	TotalTime time.Duration
	Timestamp time.Time
	Files     []FileRecord
}

// AverageTime is the mean wall time per converted file
func (s RunSummary) AverageTime() time.Duration {
	if s.Converted == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Converted)
}

// WriteRunSummary writes a plain-text report of the run to path
func WriteRunSummary(path string, s RunSummary) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "=== PGM Conversion Results ===\n")
	fmt.Fprintf(file, "Timestamp: %s\n", s.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Image type: %s\n", s.ImageType)
	fmt.Fprintf(file, "Input directory: %s\n", s.InputDir)
	fmt.Fprintf(file, "Save path: %s\n", s.SavePath)
	fmt.Fprintf(file, "Images converted: %d\n", s.Converted)
	if s.Failed > 0 {
		fmt.Fprintf(file, "Images failed: %d\n", s.Failed)
	}
	if s.Aborted {
		fmt.Fprintf(file, "Batch aborted: yes\n")
	}
	fmt.Fprintf(file, "Total execution time: %.2fs\n", s.TotalTime.Seconds())
	fmt.Fprintf(file, "Average time per image: %.2fs\n", s.AverageTime().Seconds())

	fmt.Fprintf(file, "\nFiles:\n")
	for i, f := range s.Files {
		if f.Err != nil {
			fmt.Fprintf(file, "  %d. %s FAILED: %v\n", i+1, f.Source, f.Err)
			continue
		}
		fmt.Fprintf(file, "  %d. %s -> %s (%dx%d, mean %.1f, stddev %.1f, %.3fs)\n",
			i+1, f.Source, f.Output, f.Width, f.Height, f.Luma.Mean, f.Luma.StdDev, f.Duration.Seconds())
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
