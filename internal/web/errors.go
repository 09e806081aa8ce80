package web

// errors.go turns errors into responses. Every error is logged with its
// technical detail and request ID; clients get the mapped user message and
// support code, as JSON for API routes and as an HTML alert for pages.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/coltype/internal/core"
	"github.com/JonMunkholm/coltype/internal/logging"
	"github.com/JonMunkholm/coltype/internal/tabular"
	"github.com/JonMunkholm/coltype/internal/web/templates"
)

var (
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large")
	errBadRequest   = errors.New("invalid request body")
	errRateLimited  = errors.New("rate limit exceeded")
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	// Detail carries the rejected override's explanation, including samples
	// of the values that would have been lost.
	Detail string `json:"detail,omitempty"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var parseErr *tabular.ParseError
	switch {
	case errors.Is(err, core.ErrDatasetNotFound), errors.Is(err, core.ErrColumnNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrIncompatibleData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnsupportedType),
		errors.Is(err, tabular.ErrUnsupportedFormat),
		errors.Is(err, tabular.ErrEmptyFile),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadRequest),
		errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrTooManyAnalyses):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing form of it. Errors with
// no mapped message are logged as errors whatever the status.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userErr := core.NewUserError(err)
	userMsg := userErr.User

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", userErr.Technical.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	if wantsJSON(r) {
		resp := ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		}
		var oe *core.OverrideError
		if errors.As(userErr, &oe) {
			resp.Detail = oe.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
			logger.Error("json encode error", "error", encErr)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	page := templates.Layout("Error", templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code))
	if renderErr := page.Render(r.Context(), w); renderErr != nil {
		logger.Error("render error page", "error", renderErr)
	}
}

// wantsJSON reports whether the client should get a JSON error body.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
