// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package spanstore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTraceNotFound occurs when no spans exist for the requested trace ID.
	ErrTraceNotFound = errors.New("trace not found")

	// ErrInvalidQuery occurs when a query cannot be translated or is
	// rejected by the engine as malformed. Never retried.
	ErrInvalidQuery = errors.New("invalid trace query")
)

// BatchWriteError reports the subset of a write batch that failed. Spans
// targeting other, healthy index patterns in the same batch were still
// submitted; callers must handle mixed success.
type BatchWriteError struct {
	// FailedIndices are the target indices whose spans were not written.
	FailedIndices []string
	Err           error
}

func (e *BatchWriteError) Error() string {
	return fmt.Sprintf("failed to write spans to indices [%s]: %v",
		strings.Join(e.FailedIndices, ", "), e.Err)
}

func (e *BatchWriteError) Unwrap() error {
	return e.Err
}
