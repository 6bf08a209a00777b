// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wenjq0911/zipkin/internal/es"
	"github.com/wenjq0911/zipkin/internal/es/config"
	"github.com/wenjq0911/zipkin/internal/metrics"
	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/mappings"
	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/spanstore"
	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/template"
)

var _ io.Closer = (*Factory)(nil)

// Factory owns the Elasticsearch client, the template reconciler and the
// span store constructors built on top of them.
type Factory struct {
	logger *zap.Logger
	config *config.Configuration

	newClientFn func(ctx context.Context, c *config.Configuration, logger *zap.Logger, bulkMetrics *metrics.BulkMetrics, onBulkFailure func()) (es.Client, error)

	client atomic.Pointer[es.Client]

	reconciler   *template.Reconciler
	templateSpec template.Spec

	writersMu sync.Mutex
	writers   []*spanstore.SpanWriter
}

// CheckResult reports the outcome of a health probe.
type CheckResult struct {
	Ok    bool
	Error error
}

// NewFactory connects to the cluster, resolves the engine version and,
// when template management is enabled, reconciles the span template once
// before any store is handed out.
func NewFactory(
	ctx context.Context,
	cfg config.Configuration,
	logger *zap.Logger,
	registerer prometheus.Registerer,
) (*Factory, error) {
	f := &Factory{
		config:      &cfg,
		logger:      logger,
		newClientFn: config.NewClient,
	}

	client, err := f.newClientFn(ctx, f.config, logger, metrics.NewBulkMetrics(registerer), f.onBulkFailure)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	if err := f.wire(ctx, client, registerer); err != nil {
		return nil, err
	}
	return f, nil
}

// wire builds the reconciler for the engine version the client resolved
// and, when template management is enabled, reconciles the span template
// once before any store is handed out.
func (f *Factory) wire(ctx context.Context, client es.Client, registerer prometheus.Registerer) error {
	f.client.Store(&client)

	profile := template.ProfileForVersion(client.GetVersion())
	f.templateSpec = template.SpanTemplateSpec(f.config.Indices.IndexPrefix, f.config.Indices.Spans, profile)
	f.reconciler = template.NewReconciler(template.ReconcilerParams{
		API: &template.Client{
			Client:    &http.Client{Timeout: f.config.QueryTimeout},
			Endpoint:  f.config.Servers[0],
			BasicAuth: basicAuth(f.config.Authentication),
		},
		Renderer: mappings.Builder{TemplateBuilder: es.TextTemplateBuilder{}},
		Logger:   f.logger,
		Metrics:  metrics.NewTemplateMetrics(registerer),
		Profile:  profile,
	})

	if f.config.CreateIndexTemplates {
		if err := f.reconciler.EnsureTemplate(ctx, f.templateSpec); err != nil {
			return fmt.Errorf("failed to create index template: %w", err)
		}
	}
	return nil
}

// onBulkFailure runs after bulk flushes that report failures. Every writer
// drops its prepared state so the template is reconciled again before the
// next batch.
func (f *Factory) onBulkFailure() {
	f.writersMu.Lock()
	writers := make([]*spanstore.SpanWriter, len(f.writers))
	copy(writers, f.writers)
	f.writersMu.Unlock()
	for _, w := range writers {
		w.Invalidate()
	}
}

func (f *Factory) getClient() es.Client {
	if c := f.client.Load(); c != nil {
		return *c
	}
	return nil
}

// CreateSpanWriter creates a span writer backed by the factory's client.
func (f *Factory) CreateSpanWriter() *spanstore.SpanWriter {
	var reconciler spanstore.TemplateEnsurer
	if f.config.CreateIndexTemplates {
		reconciler = f.reconciler
	}
	w := spanstore.NewSpanWriter(spanstore.SpanWriterParams{
		Client:       f.getClient,
		Logger:       f.logger,
		Reconciler:   reconciler,
		TemplateSpec: f.templateSpec,
		IndexPrefix:  f.config.Indices.IndexPrefix,
		SpanIndex:    f.config.Indices.Spans,
	})
	f.writersMu.Lock()
	f.writers = append(f.writers, w)
	f.writersMu.Unlock()
	return w
}

// CreateSpanReader creates a trace query executor backed by the factory's client.
func (f *Factory) CreateSpanReader() *spanstore.SpanReader {
	return spanstore.NewSpanReader(spanstore.SpanReaderParams{
		Client:      f.getClient,
		Logger:      f.logger,
		MaxDocCount: f.config.MaxDocCount,
		MaxSpanAge:  f.config.MaxSpanAge,
		IndexPrefix: f.config.Indices.IndexPrefix,
		SpanIndex:   f.config.Indices.Spans,
	})
}

// Check probes the storage by dropping the cached template state and
// reconciling against the live cluster. A healthy cluster answers with
// either a satisfied template or a successful upsert.
func (f *Factory) Check(ctx context.Context) CheckResult {
	f.reconciler.Invalidate(f.templateSpec.Name)
	if err := f.reconciler.EnsureTemplate(ctx, f.templateSpec); err != nil {
		return CheckResult{Error: err}
	}
	return CheckResult{Ok: true}
}

// Purge removes all span indices managed by this factory. Meant for tests
// and operational cleanup, never called on the serving path.
func (f *Factory) Purge(ctx context.Context) error {
	pattern := f.templateSpec.IndexPatterns[0]
	exists, err := f.getClient().IndexExists(pattern).Do(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	_, err = f.getClient().DeleteIndex(pattern).Do(ctx)
	return err
}

// Close stops the bulk flusher and releases the underlying client.
func (f *Factory) Close() error {
	if c := f.getClient(); c != nil {
		return c.Close()
	}
	return nil
}

func basicAuth(auth config.BasicAuthentication) string {
	if auth.Username == "" && auth.Password == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
}
