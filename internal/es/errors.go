// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"errors"
	"fmt"

	"github.com/olivere/elastic/v7"
)

// DetailedError appends the engine's root cause to an elastic.Error. The
// client's own message stops at "all shards failed", which hides the reason
// the shards failed; the root cause carries the actual parse or mapping
// error.
func DetailedError(err error) error {
	var esErr *elastic.Error
	if errors.As(err, &esErr) {
		if esErr.Details != nil && len(esErr.Details.RootCause) > 0 {
			rc := esErr.Details.RootCause[0]
			if rc != nil {
				return fmt.Errorf("%w: RootCause[%s [type=%s]]", err, rc.Reason, rc.Type)
			}
		}
	}
	return err
}
