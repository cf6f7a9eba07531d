package session

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/shared"
)

const StatsFailureMessage = "Failed to load statistics"

// TopArtistLimit caps the ranked artists shown.
const TopArtistLimit = 10

// StatsFetcher loads aggregate library statistics.
type StatsFetcher interface {
	Stats(ctx context.Context) (*models.LibraryStats, error)
}

// Bar is one row of a distribution chart.
type Bar struct {
	Label    string
	Count    int
	Fraction float64 // count / total tracks, 0 when the library is empty
}

// StatsController loads statistics once per mount and on explicit refresh.
// A new library upload invalidates the mount so the next visit fetches again.
type StatsController struct {
	backend StatsFetcher
	state   RequestState[models.LibraryStats]
	mounted bool
	logger  *log.Logger
}

// NewStatsController creates an unmounted controller.
func NewStatsController(backend StatsFetcher, logger *log.Logger) *StatsController {
	return &StatsController{backend: backend, logger: orDiscard(logger)}
}

// State exposes the request lifecycle.
func (s *StatsController) State() *RequestState[models.LibraryStats] { return &s.state }

// Mounted reports whether the first fetch has been issued.
func (s *StatsController) Mounted() bool { return s.mounted }

// Mount issues the initial fetch. Only the first call returns a [Call]; later calls return nil.
func (s *StatsController) Mount() Call[models.LibraryStats] {
	if s.mounted {
		return nil
	}
	s.mounted = true
	return s.start()
}

// Remount marks the loaded statistics as outdated so the next [StatsController.Mount] fetches again.
func (s *StatsController) Remount() {
	s.mounted = false
}

// Refresh re-fetches statistics. It returns [shared.ErrRequestInFlight] while a fetch is pending.
func (s *StatsController) Refresh() (Call[models.LibraryStats], error) {
	if s.state.Pending() {
		return nil, shared.ErrRequestInFlight
	}
	s.mounted = true
	return s.start(), nil
}

func (s *StatsController) start() Call[models.LibraryStats] {
	ticket := s.state.begin()
	s.logger.Debug("stats pending", "ticket", ticket)

	return func(ctx context.Context) Outcome[models.LibraryStats] {
		stats, err := s.backend.Stats(ctx)
		if err == nil && stats == nil {
			err = fmt.Errorf("%w: empty stats response", shared.ErrDecodeResponse)
		}
		if err != nil {
			return Outcome[models.LibraryStats]{Ticket: ticket, Err: err}
		}
		return Outcome[models.LibraryStats]{Ticket: ticket, Value: *stats}
	}
}

// Resolve applies the outcome of a [Call]. Stale outcomes are dropped and Resolve returns false.
func (s *StatsController) Resolve(o Outcome[models.LibraryStats]) bool {
	if !s.state.Current(o.Ticket) {
		s.logger.Debug("dropped stale stats outcome", "ticket", o.Ticket)
		return false
	}

	if o.Err != nil {
		s.state.fail(o.Ticket, StatsFailureMessage)
		s.logger.Warn("stats failed", "err", o.Err)
		return true
	}

	s.state.succeed(o.Ticket, o.Value)
	s.logger.Debug("stats loaded", "total", o.Value.TotalTracks)
	return true
}

// Load mounts, or refreshes when already mounted, and waits for the backend.
func (s *StatsController) Load(ctx context.Context) (models.LibraryStats, error) {
	call := s.Mount()
	if call == nil {
		var err error
		if call, err = s.Refresh(); err != nil {
			return models.LibraryStats{}, err
		}
	}

	o := call(ctx)
	s.Resolve(o)

	if msg, failed := s.state.Error(); failed {
		return models.LibraryStats{}, fmt.Errorf("%s: %w", msg, o.Err)
	}
	stats, _ := s.state.Data()
	return stats, nil
}

// GenreBars returns the genre chart in server order.
func (s *StatsController) GenreBars() []Bar {
	stats, ok := s.state.Data()
	if !ok {
		return nil
	}
	return Bars(stats.Genres, stats.TotalTracks)
}

// MoodBars returns the mood chart in server order.
func (s *StatsController) MoodBars() []Bar {
	stats, ok := s.state.Data()
	if !ok {
		return nil
	}
	return Bars(stats.Moods, stats.TotalTracks)
}

// TopArtists returns at most [TopArtistLimit] artists in server order.
func (s *StatsController) TopArtists() []models.ArtistCount {
	stats, ok := s.state.Data()
	if !ok {
		return nil
	}
	return stats.TopArtistsN(TopArtistLimit)
}

// Bars converts a distribution into chart rows sized against total.
func Bars(d models.Distribution, total int) []Bar {
	bars := make([]Bar, len(d))
	for i, b := range d {
		bars[i] = Bar{Label: b.Label, Count: b.Count, Fraction: models.Fraction(b.Count, total)}
	}
	return bars
}
