// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package spanstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"

	"github.com/wenjq0911/zipkin/internal/es"
	"github.com/wenjq0911/zipkin/internal/es/config"
	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/spanstore/dbmodel"
	"github.com/wenjq0911/zipkin/model"
)

const (
	traceIDAggregation = "traceIDs"

	traceIDField         = "traceId"
	timestampField       = "timestamp"
	durationField        = "duration"
	serviceNameField     = "localEndpoint.serviceName"
	spanNameField        = "name"
	tagsField            = "tags"
	tagKeyField          = "tags.key"
	tagValueField        = "tags.value"
	annotationsField     = "annotations"
	annotationValueField = "annotations.value"

	defaultNumTraces = 10
	defaultDocCount  = 3000
)

// TagPredicate filters spans by annotation or tag. An empty Value matches
// presence of the key (or an annotation with that value); otherwise the tag
// must equal Value exactly.
type TagPredicate struct {
	Key   string
	Value string
}

// TraceQuery is a logical query over stored traces. EndTs and Lookback are
// epoch microseconds and microseconds; the effective window is
// [EndTs-Lookback, EndTs], clamped to not precede the epoch.
type TraceQuery struct {
	ServiceName string
	SpanName    string
	Annotations []TagPredicate
	MinDuration int64
	MaxDuration int64
	EndTs       int64
	Lookback    int64
	Limit       int
}

// ParseAnnotationQuery parses the "errored and http.path=/api" query string
// form into predicates.
func ParseAnnotationQuery(annotationQuery string) []TagPredicate {
	var predicates []TagPredicate
	for _, part := range strings.Split(annotationQuery, " and ") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		predicates = append(predicates, TagPredicate{Key: key, Value: value})
	}
	return predicates
}

// SpanReaderParams holds constructor parameters for NewSpanReader
type SpanReaderParams struct {
	Client      func() es.Client
	Logger      *zap.Logger
	MaxDocCount int
	MaxSpanAge  time.Duration
	IndexPrefix config.IndexPrefix
	SpanIndex   config.IndexOptions
}

// SpanReader executes logical trace queries against the rolling span
// indices. Each execution is independent and leaves no shared state.
type SpanReader struct {
	client        func() es.Client
	logger        *zap.Logger
	maxDocCount   int
	maxSpanAge    time.Duration
	selector      IndexSelector
	spanConverter dbmodel.ToDomain
}

// NewSpanReader returns a new SpanReader
func NewSpanReader(p SpanReaderParams) *SpanReader {
	maxDocCount := p.MaxDocCount
	if maxDocCount == 0 {
		maxDocCount = defaultDocCount
	}
	return &SpanReader{
		client:        p.Client,
		logger:        p.Logger,
		maxDocCount:   maxDocCount,
		maxSpanAge:    p.MaxSpanAge,
		selector:      NewIndexSelector(p.IndexPrefix, p.SpanIndex),
		spanConverter: dbmodel.NewToDomain(),
	}
}

// FindTraces retrieves whole traces that match the query. The result is
// bounded by the query limit in traces, never truncated within a trace,
// and deduplicated across rotation-boundary indices.
func (s *SpanReader) FindTraces(ctx context.Context, query *TraceQuery) ([]*model.Trace, error) {
	query, err := s.validateQuery(query)
	if err != nil {
		return nil, err
	}
	start, end := s.timeWindow(query)
	indices := s.selector.CandidateIndices(start, end)

	traceIDs, err := s.findTraceIDs(ctx, query, start, end, indices)
	if err != nil {
		return nil, err
	}
	if len(traceIDs) == 0 {
		return []*model.Trace{}, nil
	}

	spansByTrace, err := s.multiRead(ctx, traceIDs, indices)
	if err != nil {
		return nil, err
	}

	traces := make([]*model.Trace, 0, len(traceIDs))
	for _, traceID := range traceIDs {
		spans := spansByTrace[traceID]
		if len(spans) == 0 {
			continue
		}
		sortSpans(spans)
		traces = append(traces, &model.Trace{Spans: spans})
	}
	return traces, nil
}

// GetTrace returns all spans of a single trace within the given window.
func (s *SpanReader) GetTrace(ctx context.Context, traceID string, endTs, lookback int64) (*model.Trace, error) {
	start, end := s.timeWindow(&TraceQuery{EndTs: endTs, Lookback: lookback})
	indices := s.selector.CandidateIndices(start, end)
	spansByTrace, err := s.multiRead(ctx, []dbmodel.TraceID{dbmodel.TraceID(traceID)}, indices)
	if err != nil {
		return nil, err
	}
	spans := spansByTrace[dbmodel.TraceID(traceID)]
	if len(spans) == 0 {
		return nil, ErrTraceNotFound
	}
	sortSpans(spans)
	return &model.Trace{Spans: spans}, nil
}

// validateQuery checks the query and returns a normalized copy with the
// limit and lookback defaults applied. The caller's query is never
// modified.
func (s *SpanReader) validateQuery(query *TraceQuery) (*TraceQuery, error) {
	if query == nil {
		return nil, fmt.Errorf("%w: malformed request object", ErrInvalidQuery)
	}
	if query.EndTs <= 0 {
		return nil, fmt.Errorf("%w: end timestamp must be set", ErrInvalidQuery)
	}
	if query.Lookback < 0 {
		return nil, fmt.Errorf("%w: lookback must not be negative", ErrInvalidQuery)
	}
	if query.MinDuration != 0 && query.MaxDuration != 0 && query.MinDuration > query.MaxDuration {
		return nil, fmt.Errorf("%w: duration minimum is above maximum", ErrInvalidQuery)
	}
	q := *query
	if q.Limit == 0 {
		q.Limit = defaultNumTraces
	}
	if q.Lookback == 0 && s.maxSpanAge > 0 {
		q.Lookback = s.maxSpanAge.Microseconds()
	}
	return &q, nil
}

// timeWindow converts the query into an absolute [start, end] window,
// clamping the start so it never precedes the epoch.
func (*SpanReader) timeWindow(query *TraceQuery) (time.Time, time.Time) {
	end := model.EpochMicrosecondsAsTime(query.EndTs)
	startMicros := query.EndTs - query.Lookback
	if startMicros < 0 {
		startMicros = 0
	}
	return model.EpochMicrosecondsAsTime(startMicros), end
}

// findTraceIDs aggregates distinct trace IDs over the whole window in a
// single search spanning all candidate indices. A predicate aggregation
// cut off by the document cap can under-report, so in that case the walk
// narrows to one index at a time, newest first, issuing follow-up queries
// against the next-older index until enough distinct trace IDs are
// collected.
func (s *SpanReader) findTraceIDs(ctx context.Context, query *TraceQuery, start, end time.Time, indices []string) ([]dbmodel.TraceID, error) {
	ids, truncated, err := s.traceIDsInIndices(ctx, query, start, end, indices)
	if err != nil {
		return nil, err
	}
	if len(ids) > query.Limit {
		ids = ids[:query.Limit]
	}
	if len(ids) >= query.Limit || !truncated || len(indices) == 1 {
		return ids, nil
	}

	var collected []dbmodel.TraceID
	seen := make(map[dbmodel.TraceID]struct{})
	for _, index := range indices {
		if len(collected) >= query.Limit {
			break
		}
		ids, _, err := s.traceIDsInIndices(ctx, query, start, end, []string{index})
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			collected = append(collected, id)
			if len(collected) >= query.Limit {
				break
			}
		}
	}
	return collected, nil
}

// traceIDsInIndices aggregates the distinct trace IDs matching the query.
// Predicates are conjunctive at the trace level but may be satisfied by
// different spans of the same trace, so each predicate runs as its own
// aggregation and the resulting ID sets are intersected. The second return
// reports whether any aggregation hit the document cap and may therefore
// be incomplete.
func (s *SpanReader) traceIDsInIndices(ctx context.Context, query *TraceQuery, start, end time.Time, indices []string) ([]dbmodel.TraceID, bool, error) {
	if len(query.Annotations) == 0 {
		ids, err := s.aggregateTraceIDs(ctx, indices, query.Limit, s.buildBaseQuery(query, start, end))
		return ids, false, err
	}

	var result []dbmodel.TraceID
	var truncated bool
	for i, predicate := range query.Annotations {
		boolQuery := s.buildBaseQuery(query, start, end).Must(buildPredicateQuery(predicate))
		ids, err := s.aggregateTraceIDs(ctx, indices, s.maxDocCount, boolQuery)
		if err != nil {
			return nil, false, err
		}
		if len(ids) == s.maxDocCount {
			truncated = true
		}
		if i == 0 {
			result = ids
		} else {
			result = intersect(result, ids)
		}
		if len(result) == 0 {
			return nil, truncated, nil
		}
	}
	if len(result) > query.Limit {
		result = result[:query.Limit]
	}
	return result, truncated, nil
}

func (s *SpanReader) aggregateTraceIDs(ctx context.Context, indices []string, size int, boolQuery elastic.Query) ([]dbmodel.TraceID, error) {
	aggregation := elastic.NewTermsAggregation().Field(traceIDField).Size(size)
	searchResult, err := s.client().Search(indices...).
		Size(0). // no documents, only the aggregation
		IgnoreUnavailable(true).
		Aggregation(traceIDAggregation, aggregation).
		Query(boolQuery).
		Do(ctx)
	if err != nil {
		return nil, queryError(err)
	}

	bucket, found := searchResult.Aggregations.Terms(traceIDAggregation)
	if !found {
		return nil, nil
	}
	traceIDs := make([]dbmodel.TraceID, 0, len(bucket.Buckets))
	for _, keyItem := range bucket.Buckets {
		traceID, ok := keyItem.Key.(string)
		if !ok {
			return nil, fmt.Errorf("non-string trace ID key found in aggregation")
		}
		traceIDs = append(traceIDs, dbmodel.TraceID(traceID))
	}
	return traceIDs, nil
}

func (s *SpanReader) buildBaseQuery(query *TraceQuery, start, end time.Time) *elastic.BoolQuery {
	boolQuery := elastic.NewBoolQuery().Must(
		elastic.NewRangeQuery(timestampField).
			Gte(model.TimeAsEpochMicroseconds(start)).
			Lte(model.TimeAsEpochMicroseconds(end)),
	)
	if query.ServiceName != "" {
		boolQuery.Must(elastic.NewTermQuery(serviceNameField, query.ServiceName))
	}
	if query.SpanName != "" {
		boolQuery.Must(elastic.NewTermQuery(spanNameField, query.SpanName))
	}
	if query.MinDuration != 0 || query.MaxDuration != 0 {
		durationQuery := elastic.NewRangeQuery(durationField).Gte(query.MinDuration)
		if query.MaxDuration != 0 {
			durationQuery = durationQuery.Lte(query.MaxDuration)
		}
		boolQuery.Must(durationQuery)
	}
	return boolQuery
}

// buildPredicateQuery translates one annotation predicate. A bare key
// matches presence of the tag key or an annotation with that value; a
// key=value pair matches the tag exactly. Tags and annotations are nested
// documents, so the filters must be nested queries.
func buildPredicateQuery(predicate TagPredicate) elastic.Query {
	if predicate.Value == "" {
		tagPresence := elastic.NewNestedQuery(tagsField,
			elastic.NewTermQuery(tagKeyField, predicate.Key))
		annotationMatch := elastic.NewNestedQuery(annotationsField,
			elastic.NewTermQuery(annotationValueField, predicate.Key))
		return elastic.NewBoolQuery().Should(tagPresence, annotationMatch)
	}
	return elastic.NewNestedQuery(tagsField, elastic.NewBoolQuery().Must(
		elastic.NewTermQuery(tagKeyField, predicate.Key),
		elastic.NewTermQuery(tagValueField, predicate.Value),
	))
}

// multiRead fetches all spans of the given traces across the candidate
// indices in one multi-search, deduplicating documents that appear in more
// than one index because of rotation-boundary overlap.
func (s *SpanReader) multiRead(ctx context.Context, traceIDs []dbmodel.TraceID, indices []string) (map[dbmodel.TraceID][]*model.Span, error) {
	results := make(map[dbmodel.TraceID][]*model.Span)
	if len(traceIDs) == 0 || len(indices) == 0 {
		return results, nil
	}

	requests := make([]*elastic.SearchRequest, len(traceIDs))
	for i, traceID := range traceIDs {
		requests[i] = elastic.NewSearchRequest().
			IgnoreUnavailable(true).
			Source(elastic.NewSearchSource().
				Query(elastic.NewTermQuery(traceIDField, string(traceID))).
				Size(s.maxDocCount))
	}

	response, err := s.client().MultiSearch().Add(requests...).Index(indices...).Do(ctx)
	if err != nil {
		return nil, queryError(err)
	}

	type spanKey struct {
		traceID dbmodel.TraceID
		spanID  dbmodel.SpanID
		shared  bool
	}
	seen := make(map[spanKey]struct{})
	for _, result := range response.Responses {
		if result.Hits == nil {
			continue
		}
		for _, hit := range result.Hits.Hits {
			var dbSpan dbmodel.Span
			if err := json.Unmarshal(hit.Source, &dbSpan); err != nil {
				return nil, fmt.Errorf("invalid span document in index %q: %w", hit.Index, err)
			}
			key := spanKey{traceID: dbSpan.TraceID, spanID: dbSpan.SpanID, shared: dbSpan.Shared}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			results[dbSpan.TraceID] = append(results[dbSpan.TraceID], s.spanConverter.SpanToDomain(&dbSpan))
		}
	}
	return results, nil
}

// intersect keeps the elements of ordered that also appear in other,
// preserving the order of the first operand.
func intersect(ordered, other []dbmodel.TraceID) []dbmodel.TraceID {
	members := make(map[dbmodel.TraceID]struct{}, len(other))
	for _, id := range other {
		members[id] = struct{}{}
	}
	var result []dbmodel.TraceID
	for _, id := range ordered {
		if _, ok := members[id]; ok {
			result = append(result, id)
		}
	}
	return result
}

func sortSpans(spans []*model.Span) {
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].Timestamp < spans[j].Timestamp
	})
}

// queryError classifies an engine-side failure: a 400 means the query
// itself was malformed and is never retried; everything else keeps its
// detailed root cause for the caller's retry policy.
func queryError(err error) error {
	var esErr *elastic.Error
	if errors.As(err, &esErr) && esErr.Status == http.StatusBadRequest {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, es.DetailedError(err))
	}
	return es.DetailedError(err)
}
