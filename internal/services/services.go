// package services defines interface Backend for talking to the analysis service
package services

import (
	"context"
	"io"

	"github.com/desertthunder/tastebud/internal/models"
)

// Backend defines the endpoints of the music taste analysis service.
type Backend interface {
	// Health calls the root endpoint and returns its greeting.
	Health(ctx context.Context) (*models.HealthStatus, error)

	// Ingest uploads a library CSV read from r under the given file name.
	Ingest(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error)

	// Chat asks a natural-language question about the uploaded library.
	Chat(ctx context.Context, query string) (*models.ChatReply, error)

	// Stats fetches aggregate statistics for the uploaded library.
	Stats(ctx context.Context) (*models.LibraryStats, error)
}
