// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package spanstore

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wenjq0911/zipkin/internal/es"
	"github.com/wenjq0911/zipkin/internal/es/config"
	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/spanstore/dbmodel"
	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/template"
	"github.com/wenjq0911/zipkin/model"
)

// TemplateEnsurer reconciles the index template for a pattern before data
// is written to it.
type TemplateEnsurer interface {
	EnsureTemplate(ctx context.Context, desired template.Spec) error
	Invalidate(name string)
}

// SpanWriterParams holds constructor parameters for NewSpanWriter
type SpanWriterParams struct {
	Client       func() es.Client
	Logger       *zap.Logger
	Reconciler   TemplateEnsurer
	TemplateSpec template.Spec
	IndexPrefix  config.IndexPrefix
	SpanIndex    config.IndexOptions
}

// SpanWriter submits span documents to the rolling index for their
// timestamp, reconciling the index template lazily before the first write
// to a newly-seen index pattern.
type SpanWriter struct {
	client        func() es.Client
	logger        *zap.Logger
	reconciler    TemplateEnsurer
	templateSpec  template.Spec
	selector      IndexSelector
	spanConverter dbmodel.FromDomain

	mu       sync.Mutex
	prepared map[string]bool
}

// NewSpanWriter creates a new SpanWriter for use
func NewSpanWriter(p SpanWriterParams) *SpanWriter {
	return &SpanWriter{
		client:        p.Client,
		logger:        p.Logger,
		reconciler:    p.Reconciler,
		templateSpec:  p.TemplateSpec,
		selector:      NewIndexSelector(p.IndexPrefix, p.SpanIndex),
		spanConverter: dbmodel.NewFromDomain(),
		prepared:      make(map[string]bool),
	}
}

// WriteSpans writes a batch of spans. Spans whose index pattern cannot be
// reconciled fail atomically as a subset; spans targeting an
// already-reconciled pattern are still submitted. A BatchWriteError
// describes any failed subset.
func (s *SpanWriter) WriteSpans(ctx context.Context, spans []*model.Span) error {
	type pending struct {
		index string
		doc   *dbmodel.Span
	}

	byPattern := make(map[string][]pending)
	for _, span := range spans {
		index := s.selector.IndexName(span.StartTime())
		byPattern[s.selector.Pattern()] = append(byPattern[s.selector.Pattern()], pending{
			index: index,
			doc:   s.spanConverter.FromDomainSpan(span),
		})
	}

	var failed []string
	var cause error
	for pattern, docs := range byPattern {
		if err := s.preparePattern(ctx, pattern); err != nil {
			for _, p := range docs {
				failed = appendUnique(failed, p.index)
			}
			cause = err
			s.logger.Error("dropping span batch, template reconciliation failed",
				zap.String("pattern", pattern), zap.Int("spans", len(docs)), zap.Error(err))
			continue
		}
		for _, p := range docs {
			s.writeSpan(p.index, p.doc)
		}
		s.logger.Debug("submitted spans to bulk processor",
			zap.String("pattern", pattern), zap.Int("spans", len(docs)))
	}

	if len(failed) > 0 {
		return &BatchWriteError{FailedIndices: failed, Err: fmt.Errorf("template reconciliation failed: %w", cause)}
	}
	return nil
}

// preparePattern runs template reconciliation once per distinct index
// pattern, until Invalidate drops the latch. A failed attempt is not
// recorded, so the next batch retries instead of failing forever;
// EnsureTemplate itself is cached and cheap once the template is in place.
func (s *SpanWriter) preparePattern(ctx context.Context, pattern string) error {
	if s.reconciler == nil {
		// template management disabled, indices use whatever is installed
		return nil
	}
	s.mu.Lock()
	done := s.prepared[pattern]
	s.mu.Unlock()
	if done {
		return nil
	}

	if err := s.reconciler.EnsureTemplate(ctx, s.templateSpec); err != nil {
		return err
	}

	s.mu.Lock()
	s.prepared[pattern] = true
	s.mu.Unlock()
	return nil
}

// Invalidate drops the prepared state for every pattern together with the
// cached template state behind it, so the next batch reconciles against
// the live cluster. Called when bulk writes report failures, which can
// mean the template was removed or replaced out-of-band.
func (s *SpanWriter) Invalidate() {
	s.mu.Lock()
	clear(s.prepared)
	s.mu.Unlock()
	if s.reconciler != nil {
		s.reconciler.Invalidate(s.templateSpec.Name)
	}
}

func (s *SpanWriter) writeSpan(indexName string, doc *dbmodel.Span) {
	s.client().Index().Index(indexName).Id(documentID(doc)).BodyJson(doc).Add()
}

// documentID derives a stable identifier so a span reported twice
// overwrites its earlier document instead of duplicating it. The shared
// server half of an RPC span carries the same trace and span IDs as the
// client half but is its own document.
func documentID(doc *dbmodel.Span) string {
	id := string(doc.TraceID) + "-" + string(doc.SpanID)
	if doc.Shared {
		return id + "-shared"
	}
	return id
}

// Close closes SpanWriter and flushes any buffered spans.
func (s *SpanWriter) Close() error {
	return s.client().Close()
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
