// Package batch converts every image in a directory that matches an
// extension filter, one file at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"img2pgm/pkg/convert"
	"img2pgm/pkg/notify"
	"img2pgm/pkg/stats"
)

// ErrConversionFailed is returned when KeepGoing is set and at least one
// file could not be converted.
var ErrConversionFailed = errors.New("one or more images failed to convert")

// Config controls a batch run
type Config struct {
	ImageType string // extension without the dot, e.g. "png"
	InputDir  string
	SavePath  string
	KeepGoing bool // skip failing files instead of aborting the batch
}

// Pattern returns the file name pattern matched inside InputDir.
// InputDir itself is never treated as a pattern.
func (c Config) Pattern() string {
	return "*." + strings.TrimPrefix(c.ImageType, ".")
}

func (c Config) validate() error {
	if strings.TrimPrefix(c.ImageType, ".") == "" {
		return errors.New("image type must not be empty")
	}
	return nil
}

// Runner drives one batch. Out receives the user-facing progress lines,
// Logger the operational log.
type Runner struct {
	Config   Config
	Out      io.Writer
	Logger   *log.Logger
	Notifier notify.Notifier

	convert func(srcPath, saveDir string) (*convert.Result, error)
}

func NewRunner(cfg Config, out io.Writer, logger *log.Logger, n notify.Notifier) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Config:   cfg,
		Out:      out,
		Logger:   logger,
		Notifier: n,
		convert:  convert.File,
	}
}

// Match lists the files to convert in lexical order. Hidden files and
// directories are left out even when their names match.
func (r *Runner) Match() ([]string, error) {
	if err := r.Config.validate(); err != nil {
		return nil, err
	}

	dir := r.Config.InputDir
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	pattern := r.Config.Pattern()
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("match %s: %w", pattern, err)
		}
		if !ok {
			continue
		}
		path := inputPath(dir, name)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// inputPath joins name onto dir. Files in the current directory keep a
// "./" prefix so progress lines read "./cat.png".
func inputPath(dir, name string) string {
	if filepath.Clean(dir) == "." {
		return "." + string(filepath.Separator) + name
	}
	return filepath.Join(dir, name)
}

// Run converts every matching file, printing one progress line per file
// with the path as returned by Match. With zero matches it prints a hint
// about the image type and returns a nil error.
func (r *Runner) Run(ctx context.Context) (stats.RunSummary, error) {
	startTime := time.Now()
	summary := stats.RunSummary{
		ImageType: r.Config.ImageType,
		InputDir:  r.Config.InputDir,
		SavePath:  r.Config.SavePath,
		Timestamp: startTime,
	}
	defer func() {
		r.notify(context.WithoutCancel(ctx), notify.Event{
			Kind:      notify.KindSummary,
			Converted: summary.Converted,
			Failed:    summary.Failed,
			Time:      time.Now(),
		})
	}()

	files, err := r.Match()
	if err != nil {
		return summary, err
	}

	if len(files) == 0 {
		fmt.Fprintln(r.Out, "Could not read any image. Please confirm the IMAGE TYPE!")
		return summary, nil
	}
	r.Logger.Printf("Found %d images matching %s in %s", len(files), r.Config.Pattern(), r.Config.InputDir)

	if err := checkSaveDir(r.Config.SavePath); err != nil {
		summary.Aborted = true
		return summary, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			summary.Aborted = true
			summary.TotalTime = time.Since(startTime)
			return summary, fmt.Errorf("batch interrupted: %w", err)
		}

		fmt.Fprintf(r.Out, "%s --- Load  Converting...  ", file)
		res, err := r.convert(file, r.Config.SavePath)
		if err != nil {
			fmt.Fprintf(r.Out, "Failed: %v\n", err)
			summary.Failed++
			summary.Files = append(summary.Files, stats.FileRecord{Source: file, Err: err})
			r.notify(ctx, notify.Event{Kind: notify.KindFailed, Source: file, Error: err.Error(), Time: time.Now()})

			if !r.Config.KeepGoing {
				summary.Aborted = true
				summary.TotalTime = time.Since(startTime)
				return summary, err
			}
			continue
		}
		fmt.Fprintln(r.Out, "Done")

		luma := stats.Luminance(res.Gray)
		summary.Converted++
		summary.Files = append(summary.Files, stats.FileRecord{
			Source:   res.Source,
			Output:   res.Output,
			Width:    res.Width,
			Height:   res.Height,
			Luma:     luma,
			Duration: res.Duration,
		})
		r.notify(ctx, notify.Event{
			Kind:   notify.KindConverted,
			Source: res.Source,
			Output: res.Output,
			Width:  res.Width,
			Height: res.Height,
			Mean:   luma.Mean,
			Time:   time.Now(),
		})
	}
	summary.TotalTime = time.Since(startTime)

	fmt.Fprintf(r.Out, "%d file(s) have converted to PGM format. Saved at %s\n", summary.Converted, r.Config.SavePath)
	if summary.Failed > 0 {
		fmt.Fprintf(r.Out, "%d file(s) failed to convert.\n", summary.Failed)
		return summary, fmt.Errorf("%w: %d of %d", ErrConversionFailed, summary.Failed, len(files))
	}
	return summary, nil
}

func (r *Runner) notify(ctx context.Context, e notify.Event) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.Notify(ctx, e); err != nil {
		r.Logger.Printf("Failed to publish %s event: %v", e.Kind, err)
	}
}

// checkSaveDir reports a missing or non-directory output path.
func checkSaveDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("save path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("save path %s is not a directory", path)
	}
	return nil
}
