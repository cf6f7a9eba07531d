package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/services"
	"github.com/desertthunder/tastebud/internal/shared"
)

const (
	UploadValidationMessage = "Please upload a CSV file"
	UploadFailureMessage    = "Failed to upload file. Make sure the backend is running."
)

// File is a named readable library file. [*os.File] satisfies it.
type File interface {
	Name() string
	io.Reader
}

// Ingester sends a library file to the backend.
type Ingester interface {
	Ingest(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error)
}

// UploadSuccessFunc runs once per successful upload.
type UploadSuccessFunc func(fileName string, result models.UploadResult)

// UploadController drives the lifecycle of a library upload.
type UploadController struct {
	backend   Ingester
	state     RequestState[models.UploadResult]
	fileName  string
	onSuccess UploadSuccessFunc
	logger    *log.Logger
}

// NewUploadController creates an idle upload controller.
func NewUploadController(backend Ingester, onSuccess UploadSuccessFunc, logger *log.Logger) *UploadController {
	return &UploadController{backend: backend, onSuccess: onSuccess, logger: orDiscard(logger)}
}

// State exposes the request lifecycle.
func (u *UploadController) State() *RequestState[models.UploadResult] { return &u.state }

// FileName is the base name of the most recently submitted file.
func (u *UploadController) FileName() string { return u.fileName }

// Submit validates file and starts an upload.
//
// A name that does not end in ".csv" moves to the error phase without a network call.
// A submit while an upload is pending returns [shared.ErrRequestInFlight] and changes nothing.
func (u *UploadController) Submit(file File) (Call[models.UploadResult], error) {
	if u.state.Pending() {
		return nil, shared.ErrRequestInFlight
	}
	if file == nil {
		u.state.reject(UploadValidationMessage)
		return nil, fmt.Errorf("%w: no file selected", shared.ErrInvalidFile)
	}

	name := filepath.Base(file.Name())
	u.fileName = name
	if !strings.HasSuffix(name, ".csv") {
		u.state.reject(UploadValidationMessage)
		u.logger.Debug("rejected upload", "file", name)
		return nil, fmt.Errorf("%w: %s is not a .csv file", shared.ErrInvalidFile, name)
	}

	ticket := u.state.begin()
	u.logger.Debug("upload pending", "file", name, "ticket", ticket)

	return func(ctx context.Context) Outcome[models.UploadResult] {
		result, err := u.backend.Ingest(ctx, name, file)
		if err == nil && result == nil {
			err = fmt.Errorf("%w: empty ingest response", shared.ErrDecodeResponse)
		}
		if err != nil {
			return Outcome[models.UploadResult]{Ticket: ticket, Err: err}
		}
		return Outcome[models.UploadResult]{Ticket: ticket, Value: *result}
	}, nil
}

// Resolve applies the outcome of a [Call] returned by Submit.
// Stale outcomes are dropped and Resolve returns false.
func (u *UploadController) Resolve(o Outcome[models.UploadResult]) bool {
	if !u.state.Current(o.Ticket) {
		u.logger.Debug("dropped stale upload outcome", "ticket", o.Ticket)
		return false
	}

	if o.Err != nil {
		msg := UploadFailureMessage
		if detail, ok := services.ErrorDetail(o.Err); ok {
			msg = detail
		}
		u.state.fail(o.Ticket, msg)
		u.logger.Warn("upload failed", "file", u.fileName, "err", o.Err)
		return true
	}

	if err := o.Value.Validate(); err != nil {
		u.logger.Warn("inconsistent ingest counts", "file", u.fileName, "err", err)
	}

	u.state.succeed(o.Ticket, o.Value)
	u.logger.Debug("upload succeeded", "file", u.fileName, "processed", o.Value.ProcessedTracks, "total", o.Value.TotalTracks)
	if u.onSuccess != nil {
		u.onSuccess(u.fileName, o.Value)
	}
	return true
}

// Upload submits file and waits for the backend.
// On failure the returned error's message is the user-facing one.
func (u *UploadController) Upload(ctx context.Context, file File) (models.UploadResult, error) {
	call, err := u.Submit(file)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidFile) {
			return models.UploadResult{}, fmt.Errorf("%s: %w", UploadValidationMessage, err)
		}
		return models.UploadResult{}, err
	}

	o := call(ctx)
	u.Resolve(o)

	if msg, failed := u.state.Error(); failed {
		return models.UploadResult{}, fmt.Errorf("%s: %w", msg, o.Err)
	}
	result, _ := u.state.Data()
	return result, nil
}
