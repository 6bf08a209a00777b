// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package spanstore

import (
	"time"

	"github.com/wenjq0911/zipkin/internal/es/config"
)

const (
	spanIndexBaseName  = "zipkin-span"
	defaultIndexLayout = "2006-01-02"
)

// IndexSelector maps points in time to the physical rolling indices that
// hold them. Pure and deterministic: no I/O, no clock reads.
type IndexSelector struct {
	base       string
	dateLayout string
	weekly     bool
}

// NewIndexSelector returns a selector for the span indices of the given
// prefix and rotation configuration.
func NewIndexSelector(prefix config.IndexPrefix, opts config.IndexOptions) IndexSelector {
	layout := opts.DateLayout
	if layout == "" {
		layout = defaultIndexLayout
	}
	return IndexSelector{
		base:       prefix.Apply(spanIndexBaseName) + "-",
		dateLayout: layout,
		weekly:     opts.RolloverFrequency == config.RotationWeek,
	}
}

// Pattern returns the index pattern covering every rotation bucket.
func (s IndexSelector) Pattern() string {
	return s.base + "*"
}

// IndexName returns the single index a span with the given timestamp is
// written to. Constant for all timestamps within one rotation bucket.
func (s IndexSelector) IndexName(t time.Time) string {
	return s.base + s.bucketStart(t).Format(s.dateLayout)
}

// CandidateIndices returns every index that could contain data in
// [start, end], newest first, inclusive of the partially-overlapping
// buckets at both ends. Over-inclusion is safe because queries re-filter
// by timestamp; omitting a bucket would lose data.
func (s IndexSelector) CandidateIndices(start, end time.Time) []string {
	if end.Before(start) {
		return nil
	}
	first := s.bucketStart(start)
	var indices []string
	for cur := s.bucketStart(end); !cur.Before(first); cur = s.previousBucket(cur) {
		indices = append(indices, s.base+cur.Format(s.dateLayout))
	}
	return indices
}

// bucketStart truncates t to the start of its rotation bucket: midnight
// UTC for daily rotation, Monday midnight UTC for weekly.
func (s IndexSelector) bucketStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if !s.weekly {
		return day
	}
	return day.AddDate(0, 0, -mondayOffset(day.Weekday()))
}

func (s IndexSelector) previousBucket(t time.Time) time.Time {
	if s.weekly {
		return t.AddDate(0, 0, -7)
	}
	return t.AddDate(0, 0, -1)
}

func mondayOffset(d time.Weekday) int {
	return (int(d) + 6) % 7
}
