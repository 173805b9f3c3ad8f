package domain

// RepositoryError represents an error from the repository layer.
type RepositoryError struct {
	Op  string
	Err string
}

func (e *RepositoryError) Error() string {
	return e.Op + ": " + e.Err
}

// SearchEngineError represents an error from the search backend layer.
// It marks failures that are retryable from the caller's perspective
// (connectivity, timeouts), as opposed to validation errors.
type SearchEngineError struct {
	Op  string
	Err string
}

func (e *SearchEngineError) Error() string {
	return e.Op + ": " + e.Err
}

// DriverError represents an error from the driver layer.
type DriverError struct {
	Op  string
	Err string
}

func (e *DriverError) Error() string {
	return e.Op + ": " + e.Err
}

// Machine-readable codes for SearchQueryError.
const (
	CodeInvalidQuery      = "INVALID_QUERY"
	CodeInvalidPagination = "INVALID_PAGINATION"
	CodeInvalidMode       = "INVALID_MODE"
	CodeInvalidFilter     = "INVALID_FILTER"
	CodeInvalidPrefix     = "INVALID_PREFIX"
	CodeInvalidTable      = "INVALID_TABLE"
	CodeInvalidType       = "INVALID_TYPE"
)

// SearchQueryError represents a malformed search request. It is detected
// before any backend call and is never retryable.
type SearchQueryError struct {
	Code    string
	Message string
	Details map[string]string
}

func (e *SearchQueryError) Error() string {
	return e.Code + ": " + e.Message
}

// NewSearchQueryError creates a SearchQueryError without details.
func NewSearchQueryError(code, message string) *SearchQueryError {
	return &SearchQueryError{Code: code, Message: message}
}
