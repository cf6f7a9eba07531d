package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/services"
	"github.com/desertthunder/tastebud/internal/shared"
	tu "github.com/desertthunder/tastebud/internal/testing"
)

type fakeRecorder struct {
	positions []int
	roles     []models.Role
	uploads   []string
	err       error
}

func (f *fakeRecorder) RecordMessage(_ context.Context, _ string, position int, m models.Message) error {
	if f.err != nil {
		return f.err
	}
	f.positions = append(f.positions, position)
	f.roles = append(f.roles, m.Role)
	return nil
}

func (f *fakeRecorder) RecordUpload(_ context.Context, _ string, fileName string, _ models.UploadResult) error {
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, fileName)
	return nil
}

func okBackend() *tu.MockBackend {
	return &tu.MockBackend{
		IngestFunc: func(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error) {
			io.Copy(io.Discard, r)
			return &models.UploadResult{Message: "ok", ProcessedTracks: 1, TotalTracks: 1}, nil
		},
		ChatFunc: func(ctx context.Context, query string) (*models.ChatReply, error) {
			return &models.ChatReply{Response: "Indie rock", RelevantTracks: []models.TrackCitation{}, Insights: []string{"60% indie rock"}}, nil
		},
	}
}

func TestRequestState(t *testing.T) {
	t.Run("Starts Idle", func(t *testing.T) {
		var s RequestState[int]
		if s.Phase() != PhaseIdle {
			t.Errorf("expected idle, got %s", s.Phase())
		}
		if _, ok := s.Data(); ok {
			t.Error("idle state must not carry data")
		}
		if _, ok := s.Error(); ok {
			t.Error("idle state must not carry an error")
		}
	})

	t.Run("Data Only On Success And Error Only On Failure", func(t *testing.T) {
		var s RequestState[int]
		ticket := s.begin()
		if !s.succeed(ticket, 42) {
			t.Fatal("expected current ticket to apply")
		}
		if v, ok := s.Data(); !ok || v != 42 {
			t.Errorf("expected data 42, got %d (%v)", v, ok)
		}
		if _, ok := s.Error(); ok {
			t.Error("success must not carry an error")
		}

		ticket = s.begin()
		if _, ok := s.Data(); ok {
			t.Error("pending must clear prior data")
		}
		s.fail(ticket, "boom")
		if msg, ok := s.Error(); !ok || msg != "boom" {
			t.Errorf("expected error boom, got %q (%v)", msg, ok)
		}
		if _, ok := s.Data(); ok {
			t.Error("error must not carry data")
		}
	})

	t.Run("Superseded Ticket Is Ignored", func(t *testing.T) {
		var s RequestState[string]
		first := s.begin()
		second := s.begin()

		if s.succeed(first, "late") {
			t.Error("expected superseded ticket to be ignored")
		}
		if !s.Pending() {
			t.Error("expected state to remain pending")
		}
		if !s.succeed(second, "fresh") {
			t.Error("expected current ticket to apply")
		}
		if s.fail(second, "twice") {
			t.Error("expected resolved ticket to be ignored")
		}
	})

	t.Run("Phase Names", func(t *testing.T) {
		tests := []struct {
			phase Phase
			want  string
		}{
			{PhaseIdle, "idle"},
			{PhasePending, "pending"},
			{PhaseSuccess, "success"},
			{PhaseError, "error"},
			{Phase(99), ""},
		}
		for _, tt := range tests {
			if got := tt.phase.String(); got != tt.want {
				t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
			}
		}
	})
}

func TestUploadController(t *testing.T) {
	t.Run("Rejects Non-CSV Without Network Call", func(t *testing.T) {
		names := []string{"library.txt", "library.CSV", "library.csv.bak", "csv", "library", "/tmp/notes.Csv"}
		for _, name := range names {
			t.Run(name, func(t *testing.T) {
				backend := okBackend()
				u := NewUploadController(backend, nil, nil)

				call, err := u.Submit(tu.NewNamedReader(name, "artist,song"))
				if call != nil {
					t.Error("expected no call for invalid file")
				}
				if !errors.Is(err, shared.ErrInvalidFile) {
					t.Errorf("expected ErrInvalidFile, got %v", err)
				}
				if msg, ok := u.State().Error(); !ok || msg != UploadValidationMessage {
					t.Errorf("expected validation message, got %q", msg)
				}
				if backend.Calls("Ingest") != 0 {
					t.Error("expected no network call")
				}
			})
		}
	})

	t.Run("Success Stores Result And Fires Callback Once", func(t *testing.T) {
		var got []string
		u := NewUploadController(okBackend(), func(fileName string, _ models.UploadResult) {
			got = append(got, fileName)
		}, nil)

		call, err := u.Submit(tu.NewNamedReader("/home/me/library.csv", "artist,song\nRadiohead,Paranoid Android"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !u.State().Pending() {
			t.Error("expected pending after submit")
		}

		o := call(context.Background())
		if !u.Resolve(o) {
			t.Fatal("expected outcome to apply")
		}
		if u.Resolve(o) {
			t.Error("expected repeated outcome to be dropped")
		}

		result, ok := u.State().Data()
		if !ok || result.ProcessedTracks != 1 || result.TotalTracks != 1 {
			t.Errorf("unexpected result %+v", result)
		}
		if len(got) != 1 || got[0] != "library.csv" {
			t.Errorf("expected one callback with base name, got %v", got)
		}
	})

	t.Run("Rejects Submit While Pending", func(t *testing.T) {
		backend := okBackend()
		u := NewUploadController(backend, nil, nil)

		if _, err := u.Submit(tu.NewNamedReader("a.csv", "")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		call, err := u.Submit(tu.NewNamedReader("b.txt", ""))
		if !errors.Is(err, shared.ErrRequestInFlight) || call != nil {
			t.Errorf("expected ErrRequestInFlight, got %v", err)
		}
		if !u.State().Pending() {
			t.Error("rejected submit must not change state")
		}
		if u.FileName() != "a.csv" {
			t.Errorf("expected file name a.csv, got %s", u.FileName())
		}
	})

	t.Run("Failure Prefers Server Detail", func(t *testing.T) {
		backend := &tu.MockBackend{
			IngestFunc: func(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error) {
				return nil, &services.APIError{StatusCode: http.StatusBadRequest, Detail: "CSV must have 'artist' and 'song' columns"}
			},
		}
		u := NewUploadController(backend, func(string, models.UploadResult) { t.Error("callback must not fire on failure") }, nil)

		_, err := u.Upload(context.Background(), tu.NewNamedReader("library.csv", ""))
		if err == nil {
			t.Fatal("expected error")
		}
		if msg, _ := u.State().Error(); msg != "CSV must have 'artist' and 'song' columns" {
			t.Errorf("expected server detail, got %q", msg)
		}
	})

	t.Run("Transport Failure Uses Fallback", func(t *testing.T) {
		backend := &tu.MockBackend{
			IngestFunc: func(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error) {
				return nil, shared.ErrServiceUnavailable
			},
		}
		u := NewUploadController(backend, nil, nil)

		_, err := u.Upload(context.Background(), tu.NewNamedReader("library.csv", ""))
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected wrapped transport error, got %v", err)
		}
		if msg, _ := u.State().Error(); msg != UploadFailureMessage {
			t.Errorf("expected fallback message, got %q", msg)
		}
	})

	t.Run("Inconsistent Counts Still Succeed", func(t *testing.T) {
		backend := &tu.MockBackend{
			IngestFunc: func(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error) {
				return &models.UploadResult{Message: "ok", ProcessedTracks: 3, TotalTracks: 2}, nil
			},
		}
		fired := 0
		u := NewUploadController(backend, func(string, models.UploadResult) { fired++ }, nil)

		result, err := u.Upload(context.Background(), tu.NewNamedReader("library.csv", ""))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if u.State().Phase() != PhaseSuccess || result.ProcessedTracks != 3 || result.TotalTracks != 2 {
			t.Errorf("expected counts kept as sent, got %s %+v", u.State().Phase(), result)
		}
		if fired != 1 {
			t.Errorf("expected callback once, got %d", fired)
		}
	})

	t.Run("Retry After Error Restarts At Pending", func(t *testing.T) {
		u := NewUploadController(okBackend(), nil, nil)
		u.Submit(tu.NewNamedReader("library.txt", ""))

		call, err := u.Submit(tu.NewNamedReader("library.csv", ""))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !u.State().Pending() {
			t.Error("expected pending")
		}
		if _, ok := u.State().Error(); ok {
			t.Error("expected prior error to be cleared")
		}
		u.Resolve(call(context.Background()))
		if u.State().Phase() != PhaseSuccess {
			t.Errorf("expected success, got %s", u.State().Phase())
		}
	})
}

func TestChatController(t *testing.T) {
	t.Run("Seeded With Greeting And Suggestions", func(t *testing.T) {
		c := NewChatController(okBackend(), nil, nil)

		if c.Len() != 1 || c.Last().Text != Greeting || c.Last().IsUser() {
			t.Errorf("expected greeting only, got %+v", c.Transcript())
		}
		if len(c.Suggestions()) != len(SuggestedQueries) {
			t.Errorf("expected %d suggestions, got %d", len(SuggestedQueries), len(c.Suggestions()))
		}
		if _, ok := c.LastAnswer(); ok {
			t.Error("greeting is not an answer")
		}
	})

	t.Run("Blank Query Is A No-Op", func(t *testing.T) {
		backend := okBackend()
		c := NewChatController(backend, nil, nil)

		for _, q := range []string{"", "   ", "\t\n"} {
			c.SetInput(q)
			call, err := c.SendInput()
			if call != nil || !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for %q, got %v", q, err)
			}
		}
		if c.Len() != 1 || c.Pending() {
			t.Errorf("expected untouched state, len=%d pending=%v", c.Len(), c.Pending())
		}
		if backend.Calls("Chat") != 0 {
			t.Error("expected no network call")
		}
	})

	t.Run("User Message Appended Before Network Call", func(t *testing.T) {
		c := NewChatController(okBackend(), nil, nil)
		c.SetInput("  What's my dominant genre?  ")

		call, err := c.SendInput()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.Len() != 2 || !c.Last().IsUser() || c.Last().Text != "What's my dominant genre?" {
			t.Errorf("expected trimmed user message, got %+v", c.Last())
		}
		if c.Input() != "" {
			t.Errorf("expected input cleared, got %q", c.Input())
		}
		if !c.Pending() {
			t.Error("expected pending")
		}
		if c.Suggestions() != nil {
			t.Error("suggestions must hide once the transcript grows")
		}

		c.Resolve(call(context.Background()))
		answer := c.Last()
		if answer.IsUser() || answer.Text != "Indie rock" {
			t.Errorf("unexpected answer %+v", answer)
		}
		if len(answer.Tracks) != 0 || len(answer.Insights) != 1 || answer.Insights[0] != "60% indie rock" {
			t.Errorf("unexpected payload tracks=%v insights=%v", answer.Tracks, answer.Insights)
		}
		if c.Pending() {
			t.Error("expected pending cleared")
		}
	})

	t.Run("Rejects Send While Pending", func(t *testing.T) {
		c := NewChatController(okBackend(), nil, nil)
		c.Send("first")

		call, err := c.Send("second")
		if call != nil || !errors.Is(err, shared.ErrRequestInFlight) {
			t.Errorf("expected ErrRequestInFlight, got %v", err)
		}
		if c.Len() != 2 {
			t.Errorf("expected only the first query appended, got %d", c.Len())
		}
	})

	t.Run("Sequential Queries Grow By Two", func(t *testing.T) {
		c := NewChatController(okBackend(), nil, nil)
		queries := []string{"one", "two", "three"}

		for i, q := range queries {
			if _, err := c.Ask(context.Background(), q); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if c.Len() != 1+2*(i+1) {
				t.Errorf("after %d queries expected %d messages, got %d", i+1, 1+2*(i+1), c.Len())
			}
		}

		transcript := c.Transcript()
		for i, q := range queries {
			user, answer := transcript[1+2*i], transcript[2+2*i]
			if !user.IsUser() || user.Text != q || answer.IsUser() {
				t.Errorf("unexpected order at %d: %+v %+v", i, user, answer)
			}
		}
	})

	t.Run("Failure Appends One Fallback", func(t *testing.T) {
		backend := &tu.MockBackend{
			ChatFunc: func(ctx context.Context, query string) (*models.ChatReply, error) {
				return nil, shared.ErrServiceUnavailable
			},
		}
		c := NewChatController(backend, nil, nil)

		answer, err := c.Ask(context.Background(), "hello")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected transport error, got %v", err)
		}

		transcript := c.Transcript()
		if len(transcript) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(transcript))
		}
		if !transcript[1].IsUser() || transcript[1].Text != "hello" {
			t.Errorf("expected user message kept, got %+v", transcript[1])
		}
		if answer.Text != ChatFailureMessage || answer.Tracks != nil || answer.Insights != nil {
			t.Errorf("expected bare fallback, got %+v", answer)
		}
		if c.Pending() {
			t.Error("expected pending cleared")
		}
		if msg, _ := c.State().Error(); msg != ChatFailureMessage {
			t.Errorf("expected fallback in state, got %q", msg)
		}
	})

	t.Run("Suggestions Never Return", func(t *testing.T) {
		c := NewChatController(okBackend(), nil, nil)
		if err := c.UseSuggestion(2); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.Input() != SuggestedQueries[2] || c.Len() != 1 {
			t.Errorf("expected input filled without sending, got %q len=%d", c.Input(), c.Len())
		}

		c.Ask(context.Background(), c.Input())
		c.transcript = c.transcript[:1]
		if c.Suggestions() != nil {
			t.Error("suggestions must stay hidden after the first send")
		}
		if err := c.UseSuggestion(0); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Keeps Full Track List", func(t *testing.T) {
		tracks := make([]models.TrackCitation, 6)
		for i := range tracks {
			tracks[i] = models.TrackCitation{Artist: "A", Song: strings.Repeat("s", i+1)}
		}
		backend := &tu.MockBackend{
			ChatFunc: func(ctx context.Context, query string) (*models.ChatReply, error) {
				return &models.ChatReply{Response: "r", RelevantTracks: tracks}, nil
			},
		}
		c := NewChatController(backend, nil, nil)
		answer, _ := c.Ask(context.Background(), "q")

		if len(answer.Tracks) != 6 {
			t.Errorf("expected 6 tracks kept, got %d", len(answer.Tracks))
		}
		if len(answer.VisibleTracks(TranscriptTrackLimit)) != 3 {
			t.Error("expected 3 visible tracks in transcript")
		}
		if len(answer.VisibleTracks(CompactTrackLimit)) != 4 {
			t.Error("expected 4 visible tracks in compact view")
		}
	})

	t.Run("Append Hook Sees Positions", func(t *testing.T) {
		var positions []int
		c := NewChatController(okBackend(), func(position int, _ models.Message) {
			positions = append(positions, position)
		}, nil)
		c.Ask(context.Background(), "q")

		if len(positions) != 2 || positions[0] != 1 || positions[1] != 2 {
			t.Errorf("expected positions [1 2], got %v", positions)
		}
	})
}

func TestStatsController(t *testing.T) {
	stats := &models.LibraryStats{
		TotalTracks: 4,
		Genres:      models.Distribution{{Label: "rock", Count: 3}, {Label: "pop", Count: 1}},
		Moods:       models.Distribution{{Label: "calm", Count: 2}},
	}
	for i := range 12 {
		stats.TopArtists = append(stats.TopArtists, models.ArtistCount{Artist: strings.Repeat("a", i+1), Count: 12 - i})
	}

	t.Run("Mounts Exactly Once", func(t *testing.T) {
		backend := &tu.MockBackend{StatsFunc: func(ctx context.Context) (*models.LibraryStats, error) { return stats, nil }}
		s := NewStatsController(backend, nil)

		call := s.Mount()
		if call == nil || !s.State().Pending() {
			t.Fatal("expected first mount to start a fetch")
		}
		if s.Mount() != nil {
			t.Error("expected second mount to be inert")
		}
		s.Resolve(call(context.Background()))
		if s.Mount() != nil {
			t.Error("expected mount after load to be inert")
		}
		if backend.Calls("Stats") != 1 {
			t.Errorf("expected one fetch, got %d", backend.Calls("Stats"))
		}
	})

	t.Run("Derives Bars And Caps Artists", func(t *testing.T) {
		backend := &tu.MockBackend{StatsFunc: func(ctx context.Context) (*models.LibraryStats, error) { return stats, nil }}
		s := NewStatsController(backend, nil)
		if _, err := s.Load(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		bars := s.GenreBars()
		if len(bars) != 2 || bars[0].Label != "rock" || bars[0].Fraction != 0.75 || bars[1].Fraction != 0.25 {
			t.Errorf("unexpected genre bars %+v", bars)
		}
		if moods := s.MoodBars(); len(moods) != 1 || moods[0].Fraction != 0.5 {
			t.Errorf("unexpected mood bars %+v", moods)
		}

		artists := s.TopArtists()
		if len(artists) != TopArtistLimit || artists[0].Artist != "a" || artists[9].Count != 3 {
			t.Errorf("expected first 10 artists in server order, got %+v", artists)
		}
	})

	t.Run("Bar Fraction Is Zero For Empty Library", func(t *testing.T) {
		for _, count := range []int{0, 1, 7} {
			bars := Bars(models.Distribution{{Label: "x", Count: count}}, 0)
			if bars[0].Fraction != 0 {
				t.Errorf("expected 0 for count %d, got %v", count, bars[0].Fraction)
			}
		}
	})

	t.Run("Failure Stores No Stats", func(t *testing.T) {
		backend := &tu.MockBackend{StatsFunc: func(ctx context.Context) (*models.LibraryStats, error) {
			return nil, shared.ErrServiceUnavailable
		}}
		s := NewStatsController(backend, nil)

		if _, err := s.Load(context.Background()); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected transport error, got %v", err)
		}
		if s.State().Phase() != PhaseError {
			t.Errorf("expected error phase, got %s", s.State().Phase())
		}
		if msg, _ := s.State().Error(); msg != StatsFailureMessage {
			t.Errorf("expected %q, got %q", StatsFailureMessage, msg)
		}
		if _, ok := s.State().Data(); ok {
			t.Error("expected no stats stored")
		}
		if s.GenreBars() != nil || s.TopArtists() != nil {
			t.Error("expected no derived views on error")
		}
	})

	t.Run("Refresh Rejected While Pending", func(t *testing.T) {
		s := NewStatsController(&tu.MockBackend{}, nil)
		s.Mount()

		if _, err := s.Refresh(); !errors.Is(err, shared.ErrRequestInFlight) {
			t.Errorf("expected ErrRequestInFlight, got %v", err)
		}
	})

	t.Run("Late Outcome Is Dropped", func(t *testing.T) {
		calls := 0
		backend := &tu.MockBackend{StatsFunc: func(ctx context.Context) (*models.LibraryStats, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("first")
			}
			return stats, nil
		}}
		s := NewStatsController(backend, nil)

		first := s.Mount()
		late := first(context.Background())
		s.Resolve(late)

		refresh, err := s.Refresh()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.Resolve(late) {
			t.Error("expected superseded outcome to be dropped")
		}
		if !s.State().Pending() {
			t.Error("expected refresh still pending")
		}
		s.Resolve(refresh(context.Background()))
		if s.State().Phase() != PhaseSuccess {
			t.Errorf("expected success, got %s", s.State().Phase())
		}
	})
}

func TestNavigator(t *testing.T) {
	t.Run("Locked Tabs Are Inert", func(t *testing.T) {
		n := NewNavigator(&UnlockFlag{})
		if n.Active() != TabUpload {
			t.Errorf("expected initial tab Upload, got %s", n.Active())
		}
		for _, tab := range []Tab{TabChat, TabStats} {
			if n.Select(tab) {
				t.Errorf("expected %s to be locked", tab)
			}
		}
		if n.Next() != TabUpload || n.Prev() != TabUpload {
			t.Error("expected cycling to stay on Upload while locked")
		}
	})

	t.Run("Cycles When Unlocked", func(t *testing.T) {
		flag := &UnlockFlag{}
		flag.Set()
		n := NewNavigator(flag)

		if n.Next() != TabChat || n.Next() != TabStats || n.Next() != TabUpload {
			t.Error("expected forward cycle Upload, Chat, Stats")
		}
		if n.Prev() != TabStats {
			t.Error("expected backward wrap to Stats")
		}
		if n.Select(Tab(7)) {
			t.Error("expected unknown tab to be rejected")
		}
	})

	t.Run("Tab Names", func(t *testing.T) {
		if TabUpload.String() != "Upload" || TabChat.String() != "Chat" || TabStats.String() != "Stats" {
			t.Error("unexpected tab names")
		}
	})
}

func TestSession(t *testing.T) {
	t.Run("Upload Scenario Unlocks And Switches To Chat", func(t *testing.T) {
		s := New(Options{Backend: okBackend()})
		if s.Unlocked() || s.Nav.Active() != TabUpload {
			t.Fatal("expected fresh session to be locked on Upload")
		}
		if s.Nav.Select(TabStats) {
			t.Error("expected stats locked before upload")
		}

		result, err := s.Upload.Upload(context.Background(), tu.NewNamedReader("library.csv", "artist,song\nRadiohead,Paranoid Android"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Message != "ok" || result.ProcessedTracks != 1 || result.TotalTracks != 1 {
			t.Errorf("unexpected result %+v", result)
		}
		if !s.Unlocked() || s.Nav.Active() != TabChat {
			t.Errorf("expected unlocked on Chat, got unlocked=%v tab=%s", s.Unlocked(), s.Nav.Active())
		}
	})

	t.Run("Second Upload Keeps Flag And Forces Chat", func(t *testing.T) {
		s := New(Options{Backend: okBackend()})
		s.Upload.Upload(context.Background(), tu.NewNamedReader("a.csv", ""))
		s.Nav.Select(TabStats)

		s.Upload.Upload(context.Background(), tu.NewNamedReader("b.csv", ""))
		if !s.Unlocked() || s.Nav.Active() != TabChat {
			t.Error("expected flag to stay set and Chat forced")
		}
	})

	t.Run("Upload Invalidates Loaded Stats", func(t *testing.T) {
		backend := okBackend()
		backend.StatsFunc = func(ctx context.Context) (*models.LibraryStats, error) {
			return &models.LibraryStats{TotalTracks: backend.Calls("Ingest")}, nil
		}
		s := New(Options{Backend: backend})

		s.Upload.Upload(context.Background(), tu.NewNamedReader("a.csv", ""))
		s.Stats.Resolve(s.Stats.Mount()(context.Background()))
		if s.Stats.Mount() != nil {
			t.Fatal("expected mount to be inert once loaded")
		}

		s.Upload.Upload(context.Background(), tu.NewNamedReader("b.csv", ""))
		call := s.Stats.Mount()
		if call == nil {
			t.Fatal("expected mount after a new upload to fetch again")
		}
		s.Stats.Resolve(call(context.Background()))
		if stats, _ := s.Stats.State().Data(); stats.TotalTracks != 2 {
			t.Errorf("expected stats for the second library, got %+v", stats)
		}
		if backend.Calls("Stats") != 2 {
			t.Errorf("expected two fetches, got %d", backend.Calls("Stats"))
		}
	})

	t.Run("Failed Upload Leaves Session Locked", func(t *testing.T) {
		backend := &tu.MockBackend{IngestFunc: func(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error) {
			return nil, shared.ErrServiceUnavailable
		}}
		s := New(Options{Backend: backend})
		s.Upload.Upload(context.Background(), tu.NewNamedReader("library.csv", ""))

		if s.Unlocked() || s.Nav.Active() != TabUpload {
			t.Error("expected session to stay locked")
		}
	})

	t.Run("Chat And Stats Share No State", func(t *testing.T) {
		backend := okBackend()
		backend.StatsFunc = func(ctx context.Context) (*models.LibraryStats, error) { return nil, shared.ErrServiceUnavailable }
		s := New(Options{Backend: backend})

		s.Stats.Load(context.Background())
		if _, err := s.Chat.Ask(context.Background(), "q"); err != nil {
			t.Errorf("expected chat to succeed, got %v", err)
		}
		if s.Stats.State().Phase() != PhaseError || s.Chat.State().Phase() != PhaseSuccess {
			t.Error("expected independent phases")
		}
	})

	t.Run("Archives Transcript And Uploads", func(t *testing.T) {
		rec := &fakeRecorder{}
		s := New(Options{Backend: okBackend(), Recorder: rec})

		s.Upload.Upload(context.Background(), tu.NewNamedReader("library.csv", ""))
		s.Chat.Ask(context.Background(), "q")

		if len(rec.uploads) != 1 || rec.uploads[0] != "library.csv" {
			t.Errorf("expected one archived upload, got %v", rec.uploads)
		}
		want := []int{0, 1, 2}
		if len(rec.positions) != len(want) {
			t.Fatalf("expected positions %v, got %v", want, rec.positions)
		}
		for i := range want {
			if rec.positions[i] != want[i] {
				t.Errorf("expected positions %v, got %v", want, rec.positions)
			}
		}
		if rec.roles[0] != models.RoleAssistant || rec.roles[1] != models.RoleUser {
			t.Errorf("expected greeting then user message, got %v", rec.roles)
		}
	})

	t.Run("Archive Failures Do Not Surface", func(t *testing.T) {
		rec := &fakeRecorder{err: errors.New("disk full")}
		s := New(Options{Backend: okBackend(), Recorder: rec})

		if _, err := s.Upload.Upload(context.Background(), tu.NewNamedReader("library.csv", "")); err != nil {
			t.Errorf("expected upload to succeed, got %v", err)
		}
		if _, err := s.Chat.Ask(context.Background(), "q"); err != nil {
			t.Errorf("expected chat to succeed, got %v", err)
		}
		if s.recorded != 0 {
			t.Errorf("expected nothing recorded, got %d", s.recorded)
		}
	})

	t.Run("Sessions Are Independent", func(t *testing.T) {
		a := New(Options{Backend: okBackend()})
		a.Upload.Upload(context.Background(), tu.NewNamedReader("library.csv", ""))
		b := New(Options{Backend: okBackend()})

		if a.ID == b.ID {
			t.Error("expected distinct session ids")
		}
		if b.Unlocked() || b.Chat.Len() != 1 {
			t.Error("expected a new session to start fresh")
		}
	})
}
