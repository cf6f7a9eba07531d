package session

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/shared"
)

// Backend is everything a session needs from the analysis server.
type Backend interface {
	Ingester
	Chatter
	StatsFetcher
}

// Recorder archives session activity. Failures are logged and never surface to the user.
type Recorder interface {
	RecordMessage(ctx context.Context, sessionID string, position int, m models.Message) error
	RecordUpload(ctx context.Context, sessionID, fileName string, result models.UploadResult) error
}

// Options configures [New].
type Options struct {
	Backend  Backend
	Recorder Recorder // optional
	Logger   *log.Logger
}

// Session is the state of one application run. Nothing is restored from earlier runs.
type Session struct {
	ID        string
	StartedAt time.Time

	Unlock *UnlockFlag
	Nav    *Navigator
	Upload *UploadController
	Chat   *ChatController
	Stats  *StatsController

	recorder Recorder
	recorded int // transcript messages already archived
	logger   *log.Logger
}

// New creates a fresh session: locked, on the upload tab, with only the greeting in the transcript.
func New(opts Options) *Session {
	id := shared.GenerateID()
	s := &Session{
		ID:        id,
		StartedAt: time.Now(),
		Unlock:    &UnlockFlag{},
		recorder:  opts.Recorder,
		logger:    shared.WithLogger(orDiscard(opts.Logger), "session", shared.ShortID(id)),
	}

	s.Nav = NewNavigator(s.Unlock)
	s.Upload = NewUploadController(opts.Backend, s.uploaded, shared.WithLogger(s.logger, "component", "upload"))
	s.Chat = NewChatController(opts.Backend, s.appended, shared.WithLogger(s.logger, "component", "chat"))
	s.Stats = NewStatsController(opts.Backend, shared.WithLogger(s.logger, "component", "stats"))
	return s
}

// Unlocked reports whether chat and stats are reachable.
func (s *Session) Unlocked() bool { return s.Unlock.Unlocked() }

func (s *Session) uploaded(fileName string, result models.UploadResult) {
	s.Nav.unlock()
	s.Stats.Remount()
	s.logger.Info("library uploaded", "file", fileName, "processed", result.ProcessedTracks, "total", result.TotalTracks)

	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordUpload(context.Background(), s.ID, fileName, result); err != nil {
		s.logger.Warn("failed to archive upload", "err", err)
	}
}

// appended archives every transcript message not yet recorded, the greeting included.
func (s *Session) appended(_ int, _ models.Message) {
	if s.recorder == nil {
		return
	}

	transcript := s.Chat.Transcript()
	for s.recorded < len(transcript) {
		if err := s.recorder.RecordMessage(context.Background(), s.ID, s.recorded, transcript[s.recorded]); err != nil {
			s.logger.Warn("failed to archive message", "position", s.recorded, "err", err)
			return
		}
		s.recorded++
	}
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}
