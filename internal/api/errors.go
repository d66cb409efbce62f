package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/zmb3/spotify/v2"
)

// classify wraps err into a [shared.APIError] for op. Context cancellation is returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *shared.APIError
	if errors.As(err, &apiErr) {
		return err
	}

	if status, ok := statusOf(err); ok {
		return shared.NewAPIError(op, kindForStatus(status), status, err)
	}

	if errors.Is(err, shared.ErrUnauthorized) || errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrAuthFailed) {
		return shared.NewAPIError(op, shared.ErrUnauthorized, 0, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return shared.NewAPIError(op, shared.ErrMalformedResponse, 0, err)
	}

	return shared.NewAPIError(op, shared.ErrTransport, 0, err)
}

// statusError is returned by doRequest for non-2xx responses.
type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

func statusOf(err error) (int, bool) {
	var se spotify.Error
	if errors.As(err, &se) && se.Status > 0 {
		return se.Status, true
	}
	var sep *spotify.Error
	if errors.As(err, &sep) && sep != nil && sep.Status > 0 {
		return sep.Status, true
	}
	var st *statusError
	if errors.As(err, &st) {
		return st.Status, true
	}
	return 0, false
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return shared.ErrUnauthorized
	case status == http.StatusNotFound:
		return shared.ErrNotFound
	case status >= 400 && status < 500 && status != http.StatusTooManyRequests:
		return shared.ErrInvalidRequest
	default:
		return shared.ErrTransport
	}
}
