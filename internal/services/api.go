// Client for the analysis backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// UploadField is the multipart field the ingestion endpoint reads.
const UploadField = "file"

var _ Backend = (*BackendService)(nil)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Detail     string // FastAPI "detail" field, empty when the body had none
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: status %d: %s", shared.ErrAPIRequest, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%v: status %d", shared.ErrAPIRequest, e.StatusCode)
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// ErrorDetail returns the structured server detail carried by err, if any.
func ErrorDetail(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}

// BackendOpts configures a [BackendService].
type BackendOpts struct {
	BaseURL    string
	Token      string        // optional bearer token
	RateLimit  float64       // requests per second, 0 disables pacing
	Timeout    time.Duration // 0 leaves requests unbounded
	HTTPClient *http.Client
}

// BackendService implements [Backend] over HTTP.
type BackendService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewBackendService creates a client for the analysis backend.
func NewBackendService(opts BackendOpts) *BackendService {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}))
	}

	if opts.Timeout > 0 {
		withTimeout := *client
		withTimeout.Timeout = opts.Timeout
		client = &withTimeout
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &BackendService{baseURL: baseURL, httpClient: client, limiter: limiter}
}

// NewBackendServiceFromConfig builds a client from the [backend] config section.
func NewBackendServiceFromConfig(cfg shared.BackendConfig, client *http.Client) *BackendService {
	return NewBackendService(BackendOpts{
		BaseURL:    cfg.BaseURL,
		Token:      cfg.Token,
		RateLimit:  cfg.RateLimit,
		Timeout:    cfg.Timeout(),
		HTTPClient: client,
	})
}

// BaseURL returns the backend root the client talks to.
func (b *BackendService) BaseURL() string { return b.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (b *BackendService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return b.do(ctx, http.MethodGet, path, "", nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (b *BackendService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return b.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(data))
}

// Health calls GET /.
func (b *BackendService) Health(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := b.expectJSON(ctx, http.MethodGet, "/", "", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Ingest streams r as a multipart upload to POST /ingest.
func (b *BackendService) Ingest(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(UploadField, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var result models.UploadResult
	if err := b.expectJSON(ctx, http.MethodPost, "/ingest", writer.FormDataContentType(), &body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Chat posts {query} to /chat.
func (b *BackendService) Chat(ctx context.Context, query string) (*models.ChatReply, error) {
	data, err := json.Marshal(models.ChatQuery{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	var reply models.ChatReply
	if err := b.expectJSON(ctx, http.MethodPost, "/chat", "application/json", bytes.NewReader(data), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Stats calls GET /stats.
func (b *BackendService) Stats(ctx context.Context) (*models.LibraryStats, error) {
	var stats models.LibraryStats
	if err := b.expectJSON(ctx, http.MethodGet, "/stats", "", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// expectJSON performs a request, maps non-2xx to [*APIError] and decodes a 2xx body into out.
func (b *BackendService) expectJSON(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	resp, err := b.do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return newAPIError(resp)
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrDecodeResponse, path, err)
	}
	return nil
}

func (b *BackendService) do(ctx context.Context, method, path, contentType string, body io.Reader) (*APIResponse, error) {
	fullURL := b.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: request failed: %v", shared.ErrServiceUnavailable, err)
		}
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func newAPIError(resp *APIResponse) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: resp.Body}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err == nil && len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			apiErr.Detail = detail
		}
	}

	return apiErr
}
