package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Yuqi1124/TownRecord/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeTownNotFound     = "TOWN_NOT_FOUND"
	CodeInvalidPassword  = "INVALID_PASSWORD"
	CodeInvalidTownName  = "INVALID_TOWN_NAME"
	CodeTownFull         = "TOWN_FULL"
	CodeAlreadyJoined    = "ALREADY_JOINED"
	CodePlayerNotFound   = "PLAYER_NOT_FOUND"
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodeSessionInUse     = "SESSION_IN_USE"
	CodeVideoUnavailable = "VIDEO_UNAVAILABLE"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status an error is reported with
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrTownNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeTownNotFound, "Town not found"}}
	case errors.Is(err, model.ErrInvalidPassword):
		return &httpError{http.StatusForbidden, APIError{CodeInvalidPassword, "Invalid town update password"}}
	case errors.Is(err, model.ErrInvalidTownName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidTownName, "Town name must not be empty"}}
	case errors.Is(err, model.ErrTownFull):
		return &httpError{http.StatusConflict, APIError{CodeTownFull, "Town is full"}}
	case errors.Is(err, model.ErrPlayerAlreadyJoined):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyJoined, "Player has already joined this town"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusUnauthorized, APIError{CodeSessionNotFound, "Invalid or expired session"}}
	case errors.Is(err, model.ErrSessionInUse):
		return &httpError{http.StatusConflict, APIError{CodeSessionInUse, "Session is already connected"}}
	case errors.Is(err, model.ErrVideoUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeVideoUnavailable, "Video service unavailable, try again later"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Session token required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
