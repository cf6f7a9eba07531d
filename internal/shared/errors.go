package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Backend errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrDecodeResponse     = fmt.Errorf("malformed response")

	// Session errors
	ErrInvalidFile     = fmt.Errorf("invalid file")
	ErrRequestInFlight = fmt.Errorf("request already in flight")

	// Archive errors
	ErrNotFound       = fmt.Errorf("record not found")
	ErrAppendOnly     = fmt.Errorf("record is append-only")
	ErrArchiveOffline = fmt.Errorf("archive disabled")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
