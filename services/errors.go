package services

import "net/http"

// Stable machine-readable error codes returned to API clients.
const (
	CodeRateLimited      = "RATE_LIMITED"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeSameUser         = "SAME_USER"
	CodeNoPosts          = "NO_POSTS"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeUserInaccessible = "USER_INACCESSIBLE"
	CodeConfigError      = "CONFIG_ERROR"
	CodeRedditAuthError  = "REDDIT_AUTH_ERROR"
	CodeUpstreamError    = "UPSTREAM_ERROR"
	CodeModelError       = "MODEL_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeNotFound         = "NOT_FOUND"
)

// APIError is an error that maps directly to an HTTP error response.
// Details carries diagnostic text that is only exposed to clients when the
// server runs in a development configuration.
type APIError struct {
	Code    string
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrRateLimited is returned when admission control rejects the caller.
func ErrRateLimited() *APIError {
	return &APIError{
		Code:    CodeRateLimited,
		Status:  http.StatusTooManyRequests,
		Message: "Too many requests. Please wait before trying again.",
	}
}

// ErrValidation flags malformed request input.
func ErrValidation(message string) *APIError {
	return &APIError{Code: CodeValidationError, Status: http.StatusBadRequest, Message: message}
}

// ErrSameUser rejects a request comparing a user against themselves.
func ErrSameUser() *APIError {
	return &APIError{
		Code:    CodeSameUser,
		Status:  http.StatusBadRequest,
		Message: "Cannot analyze a user against themselves.",
	}
}

// ErrNoPosts is returned when a user has no qualifying text posts.
func ErrNoPosts(username string) *APIError {
	return &APIError{
		Code:    CodeNoPosts,
		Status:  http.StatusNotFound,
		Message: "No analyzable posts found for u/" + username + ".",
	}
}

// ErrUserNotFound is returned when the Reddit account does not exist.
func ErrUserNotFound(username string) *APIError {
	return &APIError{
		Code:    CodeUserNotFound,
		Status:  http.StatusNotFound,
		Message: "Reddit user u/" + username + " was not found.",
	}
}

// ErrUserInaccessible covers private and suspended profiles.
func ErrUserInaccessible(username string) *APIError {
	return &APIError{
		Code:    CodeUserInaccessible,
		Status:  http.StatusForbidden,
		Message: "Reddit user u/" + username + " is private or suspended.",
	}
}

// ErrConfig flags a missing required credential. Operator-fixable.
func ErrConfig(message string) *APIError {
	return &APIError{Code: CodeConfigError, Status: http.StatusServiceUnavailable, Message: message}
}

// ErrRedditAuth is returned when the platform credential exchange fails.
func ErrRedditAuth(details string) *APIError {
	return &APIError{
		Code:    CodeRedditAuthError,
		Status:  http.StatusServiceUnavailable,
		Message: "Failed to authenticate with Reddit.",
		Details: details,
	}
}

// ErrUpstream covers any other platform API failure.
func ErrUpstream(details string) *APIError {
	return &APIError{
		Code:    CodeUpstreamError,
		Status:  http.StatusServiceUnavailable,
		Message: "Reddit API request failed.",
		Details: details,
	}
}

// ErrModel is returned when the LLM call fails outright. Unparsable model
// output is not an error; it degrades to the raw-fallback report instead.
func ErrModel(details string) *APIError {
	return &APIError{
		Code:    CodeModelError,
		Status:  http.StatusBadGateway,
		Message: "Compatibility analysis failed. Please try again.",
		Details: details,
	}
}

// ErrInternal wraps anything unanticipated.
func ErrInternal(details string) *APIError {
	return &APIError{
		Code:    CodeInternalError,
		Status:  http.StatusInternalServerError,
		Message: "Internal server error.",
		Details: details,
	}
}

// ErrAnalysisNotFound is returned by the history endpoints.
func ErrAnalysisNotFound(id string) *APIError {
	return &APIError{
		Code:    CodeNotFound,
		Status:  http.StatusNotFound,
		Message: "Analysis " + id + " was not found.",
	}
}
