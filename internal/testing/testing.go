// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/tastebud/internal/models"
)

// MockBackend is a test double for [services.Backend]. Nil funcs return empty results.
type MockBackend struct {
	HealthFunc func(ctx context.Context) (*models.HealthStatus, error)
	IngestFunc func(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error)
	ChatFunc   func(ctx context.Context, query string) (*models.ChatReply, error)
	StatsFunc  func(ctx context.Context) (*models.LibraryStats, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockBackend) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls returns how many times the named method ran.
func (m *MockBackend) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockBackend) Health(ctx context.Context) (*models.HealthStatus, error) {
	m.record("Health")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return &models.HealthStatus{Message: "ok"}, nil
}

func (m *MockBackend) Ingest(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error) {
	m.record("Ingest")
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, fileName, r)
	}
	return &models.UploadResult{}, nil
}

func (m *MockBackend) Chat(ctx context.Context, query string) (*models.ChatReply, error) {
	m.record("Chat")
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, query)
	}
	return &models.ChatReply{}, nil
}

func (m *MockBackend) Stats(ctx context.Context) (*models.LibraryStats, error) {
	m.record("Stats")
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.LibraryStats{}, nil
}

// NamedReader is an in-memory upload file.
type NamedReader struct {
	*strings.Reader
	name string
}

func NewNamedReader(name, content string) *NamedReader {
	return &NamedReader{Reader: strings.NewReader(content), name: name}
}

func (n *NamedReader) Name() string { return n.name }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
