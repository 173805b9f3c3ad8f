package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"contact-indexer/domain"
	"contact-indexer/port"
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func errorJSON(c echo.Context, status int, body ErrorBody) error {
	return c.JSON(status, ErrorResponse{Success: false, Error: body})
}

func badRequest(c echo.Context, code, message string) error {
	return errorJSON(c, http.StatusBadRequest, ErrorBody{Message: message, Code: code})
}

// writeError maps a layered error to its HTTP shape: query errors are the
// caller's fault, backend errors are retryable, missing records are 404,
// anything else is opaque.
func writeError(c echo.Context, err error) error {
	var qe *domain.SearchQueryError
	if errors.As(err, &qe) {
		return errorJSON(c, http.StatusBadRequest, ErrorBody{
			Message: qe.Message,
			Code:    qe.Code,
			Details: qe.Details,
		})
	}

	var re *port.RepositoryError
	if errors.As(err, &re) {
		if re.NotFound {
			return errorJSON(c, http.StatusNotFound, ErrorBody{Message: re.Err, Code: "NOT_FOUND"})
		}
		return errorJSON(c, http.StatusInternalServerError, ErrorBody{Message: "primary store unavailable"})
	}

	var se *domain.SearchEngineError
	if errors.As(err, &se) {
		return errorJSON(c, http.StatusServiceUnavailable, ErrorBody{Message: "search backend unavailable"})
	}

	return errorJSON(c, http.StatusInternalServerError, ErrorBody{Message: "internal error"})
}
