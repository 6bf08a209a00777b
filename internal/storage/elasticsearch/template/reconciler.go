// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wenjq0911/zipkin/internal/metrics"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 100 * time.Millisecond
)

// BodyRenderer renders the wire body for a desired template spec. The
// mappings package provides the production implementation.
type BodyRenderer interface {
	TemplateBody(spec Spec) (string, error)
}

// ReconcilerParams holds constructor parameters for NewReconciler.
type ReconcilerParams struct {
	API      API
	Renderer BodyRenderer
	Logger   *zap.Logger
	Metrics  *metrics.TemplateMetrics
	// Profile is the template API shape resolved from the configured or
	// detected engine version. The reconciler may degrade it to Legacy once
	// if the server rejects the modern endpoint.
	Profile VersionProfile
	// MaxAttempts bounds retries of transient failures per operation.
	MaxAttempts int
	// InitialBackoff is doubled after each transient failure.
	InitialBackoff time.Duration
}

// Reconciler idempotently installs or updates index templates. It is the
// sole owner of the cached remote template state: the cache is committed
// only after a confirmed successful response, read-checked concurrently,
// and invalidated on staleness signals. Two callers racing through the
// not-satisfied path both upsert; the PUT is idempotent and both compute
// the same desired spec, so last write wins safely.
type Reconciler struct {
	api            API
	renderer       BodyRenderer
	logger         *zap.Logger
	metrics        *metrics.TemplateMetrics
	maxAttempts    int
	initialBackoff time.Duration

	mu      sync.RWMutex
	profile VersionProfile
	cache   map[string]Spec
	lastErr error
}

// NewReconciler returns a Reconciler with an empty template state cache.
func NewReconciler(p ReconcilerParams) *Reconciler {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.InitialBackoff == 0 {
		p.InitialBackoff = defaultInitialBackoff
	}
	if p.Metrics == nil {
		p.Metrics = metrics.NullTemplateMetrics()
	}
	return &Reconciler{
		api:            p.API,
		renderer:       p.Renderer,
		logger:         p.Logger,
		metrics:        p.Metrics,
		maxAttempts:    p.MaxAttempts,
		initialBackoff: p.InitialBackoff,
		profile:        p.Profile,
		cache:          make(map[string]Spec),
	}
}

// EnsureTemplate makes the remote template match desired, writing only when
// the observed state differs. Safe for concurrent use; callers racing on
// the same desired spec may each issue the idempotent upsert.
func (r *Reconciler) EnsureTemplate(ctx context.Context, desired Spec) error {
	if r.satisfiedFromCache(desired) {
		r.metrics.Skips.Inc()
		return nil
	}
	err := r.reconcile(ctx, desired, false)
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
	if err != nil {
		r.metrics.Failures.Inc()
	}
	return err
}

func (r *Reconciler) reconcile(ctx context.Context, desired Spec, degraded bool) error {
	profile := r.Profile()
	desired.Profile = profile

	var observed *Spec
	err := r.withRetry(ctx, func() error {
		var opErr error
		observed, opErr = r.api.Get(ctx, desired.Name, profile)
		return opErr
	})
	if err != nil {
		if next, ok := r.degrade(err, profile, degraded); ok {
			return next(ctx, desired)
		}
		return fmt.Errorf("failed to read template %q: %w", desired.Name, err)
	}

	if observed != nil && desired.Satisfies(*observed) {
		r.commit(desired)
		r.metrics.Skips.Inc()
		return nil
	}

	body, err := r.renderer.TemplateBody(desired)
	if err != nil {
		return fmt.Errorf("failed to render template %q: %w", desired.Name, err)
	}

	err = r.withRetry(ctx, func() error {
		return r.api.Put(ctx, desired.Name, body, profile)
	})
	if err != nil {
		if next, ok := r.degrade(err, profile, degraded); ok {
			return next(ctx, desired)
		}
		return fmt.Errorf("failed to upsert template %q: %w", desired.Name, err)
	}

	r.commit(desired)
	r.metrics.Upserts.Inc()
	r.logger.Info("installed index template",
		zap.String("template", desired.Name),
		zap.Int64("priority", desired.Priority),
		zap.String("profile", profile.String()))
	return nil
}

// degrade decides whether an error from the modern endpoint warrants one
// retry with the legacy encoding. A second incompatibility is fatal.
func (r *Reconciler) degrade(err error, profile VersionProfile, degraded bool) (func(context.Context, Spec) error, bool) {
	if !isUnsupportedAPI(err) {
		return nil, false
	}
	if profile != Modern || degraded {
		return func(context.Context, Spec) error {
			return fmt.Errorf("%w: %w", ErrUnsupported, err)
		}, true
	}
	r.mu.Lock()
	r.profile = Legacy
	r.mu.Unlock()
	r.logger.Warn("modern index template API rejected, degrading to legacy template encoding", zap.Error(err))
	return func(ctx context.Context, desired Spec) error {
		return r.reconcile(ctx, desired, true)
	}, true
}

// DeleteTemplate removes the named template, scoped to the exact name this
// reconciler derives from the index pattern; wildcard deletion is a caller
// responsibility. A missing template is a no-op success.
func (r *Reconciler) DeleteTemplate(ctx context.Context, name string) error {
	err := r.withRetry(ctx, func() error {
		return r.api.Delete(ctx, name, r.Profile())
	})
	r.Invalidate(name)
	if err != nil {
		return fmt.Errorf("failed to delete template %q: %w", name, err)
	}
	return nil
}

// Invalidate drops the cached state for name, forcing the next
// EnsureTemplate to refetch. Called on write failures signaling staleness
// and by health probes.
func (r *Reconciler) Invalidate(name string) {
	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()
}

// LastError returns the outcome of the most recent reconciliation, nil if
// it succeeded or none ran yet. Health checks report this without
// triggering network traffic.
func (r *Reconciler) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// Profile returns the template API shape currently in use.
func (r *Reconciler) Profile() VersionProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profile
}

func (r *Reconciler) satisfiedFromCache(desired Spec) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cached, ok := r.cache[desired.Name]
	if !ok {
		return false
	}
	desired.Profile = r.profile
	return desired.Satisfies(cached)
}

func (r *Reconciler) commit(desired Spec) {
	r.mu.Lock()
	r.cache[desired.Name] = desired
	r.mu.Unlock()
}

// withRetry runs op, retrying transient failures with bounded exponential
// backoff. Rejections and context cancellation surface immediately; no
// cache state is committed for an operation that did not confirm success.
func (r *Reconciler) withRetry(ctx context.Context, op func() error) error {
	backoff := r.initialBackoff
	var err error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err = op(); err == nil || !IsTransient(err) {
			return err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt == r.maxAttempts-1 {
			break
		}
		r.logger.Warn("transient template operation failure, retrying",
			zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
