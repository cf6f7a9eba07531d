package tasks

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Prober is the backend surface used by [Engine.Probe].
type Prober interface {
	Health(ctx context.Context) (*models.HealthStatus, error)
	Stats(ctx context.Context) (*models.LibraryStats, error)
}

// Asker sends one query and returns the appended answer. session.ChatController satisfies it.
type Asker interface {
	Ask(ctx context.Context, query string) (models.Message, error)
}

// StatusReport is the result of [Engine.Probe].
type StatusReport struct {
	BaseURL  string
	Health   *models.HealthStatus
	Stats    *models.LibraryStats // nil when StatsErr is set
	StatsErr error                // a missing library is not fatal to the probe
	Latency  time.Duration        // round trip of the health check
}

// LibraryLoaded reports whether the backend holds any tracks.
func (r *StatusReport) LibraryLoaded() bool {
	return r.Stats != nil && r.Stats.TotalTracks > 0
}

// QueryResult is one replayed question.
type QueryResult struct {
	Query  string
	Answer models.Message
	Err    error
}

// ReplayResult contains all answers of a batch.
type ReplayResult struct {
	Results   []QueryResult
	Succeeded int
	Failed    int
}

// Engine runs backend operations for the CLI.
type Engine struct {
	backend Prober
	baseURL string
	logger  *log.Logger
}

// NewEngine creates a new Engine.
func NewEngine(backend Prober, baseURL string, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{backend: backend, baseURL: baseURL, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Probe checks the backend root and loads statistics concurrently.
//
// An unreachable backend fails the probe. A stats failure is reported in [StatusReport.StatsErr].
func (e *Engine) Probe(ctx context.Context, progress chan<- ProgressUpdate) (*StatusReport, error) {
	if e.backend == nil {
		return nil, fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	report := &StatusReport{BaseURL: e.baseURL}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.sendProgress(progress, probeHealthUpdate(e.baseURL))
		start := time.Now()
		health, err := e.backend.Health(ctx)
		if err != nil {
			return fmt.Errorf("backend at %s is not reachable: %w", e.baseURL, err)
		}
		report.Health = health
		report.Latency = time.Since(start)
		return nil
	})

	g.Go(func() error {
		e.sendProgress(progress, probeStatsUpdate())
		stats, err := e.backend.Stats(ctx)
		if err != nil {
			report.StatsErr = err
			return nil
		}
		report.Stats = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("probe finished", "latency", report.Latency, "stats_err", report.StatsErr)
	return report, nil
}

// Replay asks each query in order, waiting for every answer before sending the next.
//
// Failed queries leave the fallback apology in the transcript and do not stop the batch.
// Cancelling ctx stops before the next query.
func (e *Engine) Replay(ctx context.Context, chat Asker, queries []string, progress chan<- ProgressUpdate) (*ReplayResult, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no queries to ask", shared.ErrMissingArgument)
	}

	result := &ReplayResult{Results: make([]QueryResult, 0, len(queries))}
	total := len(queries)

	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		e.sendProgress(progress, askQueryUpdate(i+1, total, query))

		answer, err := chat.Ask(ctx, query)
		qr := QueryResult{Query: query, Answer: answer, Err: err}
		result.Results = append(result.Results, qr)
		if err != nil {
			result.Failed++
			e.logger.Warn("query failed", "query", query, "err", err)
		} else {
			result.Succeeded++
		}

		e.sendProgress(progress, answeredUpdate(i+1, total, qr))
	}

	return result, nil
}

// ReadQueries reads one query per line, skipping blank lines and lines starting with '#'.
func ReadQueries(r io.Reader) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	return queries, nil
}
