// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnsupported is returned when neither template API shape is accepted by
// the server, i.e. the modern endpoint was rejected and the legacy fallback
// failed as well.
var ErrUnsupported = errors.New("index template API not supported by server")

// RejectedError is a non-retryable engine rejection of a template body. It
// indicates a configuration bug, not a transient condition.
type RejectedError struct {
	Name       string
	StatusCode int
	Reason     string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("template %q rejected by server (HTTP %d): %s", e.Name, e.StatusCode, e.Reason)
}

// ResponseError wraps a non-2xx engine response, keeping the status code
// and body for classification.
type ResponseError struct {
	Err        error
	StatusCode int
	Body       []byte
}

func (r ResponseError) Error() string {
	return r.Err.Error()
}

func (r ResponseError) Unwrap() error {
	return r.Err
}

// NewResponseError returns a ResponseError for the given response.
func NewResponseError(err error, code int, body []byte) ResponseError {
	return ResponseError{
		Err:        err,
		StatusCode: code,
		Body:       body,
	}
}

// IsTransient reports whether err is worth retrying with the same request.
// Connection-level failures and 5xx responses are transient; any other
// engine response with a status code is not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var respErr ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode >= http.StatusInternalServerError ||
			respErr.StatusCode == http.StatusTooManyRequests
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return false
	}
	// No status code available: connection reset, timeout, etc.
	return true
}

// isUnsupportedAPI detects a server that does not know the modern
// /_index_template endpoint. Pre-7.8 servers answer 400/404/405 with a
// "no handler" style message rather than a template validation error.
func isUnsupportedAPI(err error) bool {
	var respErr ResponseError
	if !errors.As(err, &respErr) {
		return false
	}
	switch respErr.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return true
	case http.StatusBadRequest:
		body := strings.ToLower(string(respErr.Body))
		return strings.Contains(body, "no handler") || strings.Contains(body, "unknown url")
	}
	return false
}
