package api

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/craftista/godownload/downloads"
)

// HTTPError is the JSON error envelope for every failed request.
type HTTPError struct {
	Code            int    `json:"code"`
	Message         string `json:"msg"`
	InternalError   error  `json:"-"`
	InternalMessage string `json:"-"`
	ErrorID         string `json:"error_id,omitempty"`
}

func (e *HTTPError) Error() string {
	if e.InternalMessage != "" {
		return e.InternalMessage
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Cause returns the root cause error.
func (e *HTTPError) Cause() error {
	if e.InternalError != nil {
		return e.InternalError
	}
	return e
}

// WithInternalError adds internal error information to the error.
func (e *HTTPError) WithInternalError(err error) *HTTPError {
	e.InternalError = err
	return e
}

// WithInternalMessage adds internal message information to the error.
func (e *HTTPError) WithInternalMessage(fmtString string, args ...interface{}) *HTTPError {
	e.InternalMessage = fmt.Sprintf(fmtString, args...)
	return e
}

func httpError(code int, fmtString string, args ...interface{}) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: fmt.Sprintf(fmtString, args...),
	}
}

func badRequestError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusBadRequest, fmtString, args...)
}

func unauthorizedError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusUnauthorized, fmtString, args...)
}

func forbiddenError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusForbidden, fmtString, args...)
}

func notFoundError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusNotFound, fmtString, args...)
}

func lockedError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusLocked, fmtString, args...)
}

func internalServerError(fmtString string, args ...interface{}) *HTTPError {
	return httpError(http.StatusInternalServerError, fmtString, args...)
}

// downloadErrorStatus maps the download core's error taxonomy onto HTTP
// statuses, keeping the kinds distinguishable to clients.
var downloadErrorStatus = map[downloads.Kind]int{
	downloads.KindNotFound:        http.StatusNotFound,
	downloads.KindForbidden:       http.StatusForbidden,
	downloads.KindInvalidToken:    http.StatusUnauthorized,
	downloads.KindExpired:         http.StatusGone,
	downloads.KindLocked:          http.StatusLocked,
	downloads.KindUnauthenticated: http.StatusUnauthorized,
}

func handleError(err error, w http.ResponseWriter, r *http.Request) {
	log := getLogEntry(r)
	errorID := getRequestID(r.Context())

	if e, ok := errors.Cause(err).(*downloads.Error); ok {
		status, known := downloadErrorStatus[e.Kind]
		if !known {
			status = http.StatusInternalServerError
		}
		err = httpError(status, "%s", e.Message)
	}

	switch e := err.(type) {
	case *HTTPError:
		if e.Code >= http.StatusInternalServerError {
			e.ErrorID = errorID
			log.WithError(e.Cause()).Error(e.Error())
		} else {
			log.WithError(e.Cause()).Info(e.Error())
		}
		sendJSON(w, e.Code, e)
	default:
		log.WithError(err).Errorf("Unhandled server error: %s", err.Error())
		sendJSON(w, http.StatusInternalServerError, &HTTPError{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
			ErrorID: errorID,
		})
	}
}
