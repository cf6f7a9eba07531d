package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/tastebud/internal/formatter"
	"github.com/desertthunder/tastebud/internal/session"
	"github.com/desertthunder/tastebud/internal/shared"
	"github.com/desertthunder/tastebud/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Upload sends a library CSV to the backend.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file path is required", shared.ErrMissingArgument)
	}

	s, err := r.newSession()
	if err != nil {
		return err
	}

	var file session.File
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		file = f
	} else if strings.HasSuffix(path, ".csv") {
		return fmt.Errorf("failed to open %s: %w", path, err)
	} else {
		file = namedPath(path)
	}

	r.logger.Info("uploading library", "file", path)
	r.writePlain("Uploading %s...\n", path)

	result, err := s.Upload.Upload(ctx, file)
	if err != nil {
		return err
	}

	r.writePlain("✓ %s\n", formatter.UploadSummary(s.Upload.FileName(), result))
	return nil
}

// namedPath stands in for a file that could not be opened so its name can still be validated.
type namedPath string

func (p namedPath) Name() string             { return string(p) }
func (p namedPath) Read([]byte) (int, error) { return 0, io.EOF }

// Stats prints library statistics as bar charts, JSON or CSV.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("json") && cmd.Bool("csv") {
		return fmt.Errorf("%w: cannot specify both --json and --csv", shared.ErrInvalidArgument)
	}

	s, err := r.newSession()
	if err != nil {
		return err
	}

	stats, err := s.Stats.Load(ctx)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(stats, true)
	case cmd.Bool("csv"):
		data, err := formatter.StatsToCSV(stats)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	width := int(cmd.Int("width"))
	if width <= 0 {
		return fmt.Errorf("%w: --width must be positive", shared.ErrInvalidFlag)
	}

	r.writePlainHeader(fmt.Sprintf("Library statistics (%d tracks)", stats.TotalTracks))
	_, err = r.output.Write(formatter.StatsToText(stats, width, session.TopArtistLimit))
	return err
}

// Status probes the backend root and statistics endpoints.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	progressCh := make(chan tasks.ProgressUpdate, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.logger.Debug(update.Message, "phase", update.Phase)
		}
	}()

	report, err := r.engine.Probe(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("Backend: %s\n", report.BaseURL)
	r.writePlain("✓ Reachable (%s): %s\n", report.Latency.Round(time.Millisecond), report.Health.Message)

	switch {
	case report.StatsErr != nil:
		r.writePlain("✗ Statistics unavailable: %v\n", report.StatsErr)
	case report.LibraryLoaded():
		r.writePlain("✓ Library loaded: %d tracks, %d genres, %d moods\n",
			report.Stats.TotalTracks, len(report.Stats.Genres), len(report.Stats.Moods))
	default:
		r.writePlain("No library loaded yet. Run 'tastebud upload <file.csv>'\n")
	}
	return nil
}
