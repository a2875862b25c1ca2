package errors

import "fmt"

// ErrorCode represents a storydrop error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrInvalidShape   ErrorCode = "INVALID_SHAPE"   // 400
	ErrEmptyLayers    ErrorCode = "EMPTY_LAYERS"    // 422
	ErrTooManyLayers  ErrorCode = "TOO_MANY_LAYERS" // 422
	ErrInvalidTTL     ErrorCode = "INVALID_TTL"     // 400
	ErrTooLarge       ErrorCode = "TOO_LARGE"       // 413
	ErrRateLimited    ErrorCode = "RATE_LIMITED"    // 429
	ErrBusy           ErrorCode = "BUSY"            // 503 (retryable)
	ErrConflict       ErrorCode = "CONFLICT"        // 409 (id collision)
	ErrCorruptRecord  ErrorCode = "CORRUPT_RECORD"  // 500
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrGone           ErrorCode = "GONE"            // 410 (expired)
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// StoryError represents a structured error with code, status, and details.
type StoryError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *StoryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *StoryError {
	return &StoryError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidShape creates a 400 error for a document whose layers field
// is missing or not an array.
func NewInvalidShape() *StoryError {
	return &StoryError{
		Code:    ErrInvalidShape,
		Status:  400,
		Message: "document must contain a layers array",
	}
}

// NewEmptyLayers creates a 422 error for a document with zero layers.
func NewEmptyLayers() *StoryError {
	return &StoryError{
		Code:    ErrEmptyLayers,
		Status:  422,
		Message: "layers must contain at least one element",
	}
}

// NewTooManyLayers creates a 422 error when the layer count exceeds the limit.
func NewTooManyLayers(max, actual int) *StoryError {
	return &StoryError{
		Code:    ErrTooManyLayers,
		Status:  422,
		Message: fmt.Sprintf("too many layers: %d (max %d)", actual, max),
		Details: map[string]any{"max_layers": max, "actual_layers": actual},
	}
}

// NewInvalidTTL creates a 400 error for an out-of-range or unparseable ttl.
func NewInvalidTTL(min, max int) *StoryError {
	return &StoryError{
		Code:    ErrInvalidTTL,
		Status:  400,
		Message: fmt.Sprintf("ttlDays must be a number between %d and %d", min, max),
		Details: map[string]any{"min_ttl_days": min, "max_ttl_days": max},
	}
}

// NewTooLarge creates a 413 error when the encoded document exceeds the
// size ceiling. Both raw and encoded byte counts are reported so the
// caller can decide whether simplifying the document would help.
func NewTooLarge(max, rawBytes, encodedBytes int) *StoryError {
	return &StoryError{
		Code:    ErrTooLarge,
		Status:  413,
		Message: fmt.Sprintf("encoded document is %d bytes (max %d)", encodedBytes, max),
		Details: map[string]any{
			"max_bytes":     max,
			"raw_bytes":     rawBytes,
			"encoded_bytes": encodedBytes,
		},
	}
}

// NewRateLimited creates a 429 error for the publish path.
func NewRateLimited() *StoryError {
	return &StoryError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: "too many publishes from this origin, slow down",
	}
}

// NewBusy creates a 503 error after write retries are exhausted.
// The operation may be retried by the caller.
func NewBusy(err error) *StoryError {
	msg := "storage is busy, try again"
	if err != nil {
		msg = fmt.Sprintf("storage is busy, try again: %v", err)
	}
	return &StoryError{
		Code:    ErrBusy,
		Status:  503,
		Message: msg,
	}
}

// NewConflict creates a 409 error for a primary-key collision on insert.
func NewConflict(id string) *StoryError {
	return &StoryError{
		Code:    ErrConflict,
		Status:  409,
		Message: fmt.Sprintf("a story with id %q already exists", id),
		Details: map[string]any{"id": id},
	}
}

// NewCorruptRecord creates a 500 error for a stored payload that fails to
// decode. The underlying cause is kept for logs; it never reaches clients.
func NewCorruptRecord(id string, cause error) *StoryError {
	return &StoryError{
		Code:    ErrCorruptRecord,
		Status:  500,
		Message: fmt.Sprintf("stored record %s cannot be decoded: %v", id, cause),
		Details: map[string]any{"id": id},
	}
}

// NewNotFound creates a 404 error for an id with no record.
func NewNotFound(id string) *StoryError {
	return &StoryError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("story not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewGone creates a 410 error for a record past its expiry.
func NewGone(id string) *StoryError {
	return &StoryError{
		Code:    ErrGone,
		Status:  410,
		Message: fmt.Sprintf("story expired: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *StoryError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &StoryError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a StoryError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*StoryError); ok {
		return sErr.Code == code
	}
	return false
}
