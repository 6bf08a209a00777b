// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package template_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/template"
	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/template/mocks"
)

var testSpec = template.Spec{
	Name:          "zipkin-span",
	IndexPatterns: []string{"zipkin-span-*"},
	Priority:      10,
	Shards:        5,
	Replicas:      1,
	StoresSource:  true,
}

func newReconciler(api template.API, profile template.VersionProfile) *template.Reconciler {
	return template.NewReconciler(template.ReconcilerParams{
		API:            api,
		Renderer:       fakeRenderer{},
		Logger:         zap.NewNop(),
		Profile:        profile,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})
}

type fakeRenderer struct{}

func (fakeRenderer) TemplateBody(template.Spec) (string, error) {
	return `{"index_patterns":["zipkin-span-*"]}`, nil
}

func TestEnsureTemplateInstallsWhenMissing(t *testing.T) {
	api := &mocks.API{}
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(nil, nil).Once()
	api.On("Put", mock.Anything, "zipkin-span", mock.Anything, template.Modern).Return(nil).Once()

	r := newReconciler(api, template.Modern)
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))

	// the second call must be answered from the cache
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))
	api.AssertExpectations(t)
	require.NoError(t, r.LastError())
}

func TestEnsureTemplateSkipsWhenSatisfied(t *testing.T) {
	observed := testSpec
	observed.Profile = template.Modern
	api := &mocks.API{}
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(&observed, nil).Once()

	r := newReconciler(api, template.Modern)
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))
	api.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// satisfied remote state is cached as well
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))
	api.AssertExpectations(t)
}

func TestEnsureTemplateUpdatesStaleTemplate(t *testing.T) {
	observed := testSpec
	observed.Profile = template.Modern
	observed.Priority = 5
	api := &mocks.API{}
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(&observed, nil).Once()
	api.On("Put", mock.Anything, "zipkin-span", mock.Anything, template.Modern).Return(nil).Once()

	r := newReconciler(api, template.Modern)
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))
	api.AssertExpectations(t)
}

func TestEnsureTemplateDegradesToLegacy(t *testing.T) {
	unsupported := template.NewResponseError(
		errors.New("400: no handler found for uri [/_index_template/zipkin-span]"),
		http.StatusBadRequest,
		[]byte("no handler found for uri"))

	api := &mocks.API{}
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(nil, unsupported).Once()
	api.On("Get", mock.Anything, "zipkin-span", template.Legacy).Return(nil, nil).Once()
	api.On("Put", mock.Anything, "zipkin-span", mock.Anything, template.Legacy).Return(nil).Once()

	r := newReconciler(api, template.Modern)
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))
	assert.Equal(t, template.Legacy, r.Profile())
	api.AssertExpectations(t)

	// once degraded, later reconciliations stay on the legacy endpoint
	r.Invalidate(testSpec.Name)
	api.On("Get", mock.Anything, "zipkin-span", template.Legacy).Return(nil, nil).Once()
	api.On("Put", mock.Anything, "zipkin-span", mock.Anything, template.Legacy).Return(nil).Once()
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))
	api.AssertExpectations(t)
}

func TestEnsureTemplateSecondIncompatibilityIsFatal(t *testing.T) {
	unsupported := template.NewResponseError(
		errors.New("405: method not allowed"),
		http.StatusMethodNotAllowed,
		nil)

	api := &mocks.API{}
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(nil, unsupported).Once()
	api.On("Get", mock.Anything, "zipkin-span", template.Legacy).Return(nil, unsupported).Once()

	r := newReconciler(api, template.Modern)
	err := r.EnsureTemplate(context.Background(), testSpec)
	require.ErrorIs(t, err, template.ErrUnsupported)
	assert.ErrorIs(t, r.LastError(), template.ErrUnsupported)
	api.AssertExpectations(t)
}

func TestEnsureTemplateRetriesTransientFailures(t *testing.T) {
	transient := template.NewResponseError(errors.New("503: unavailable"), http.StatusServiceUnavailable, nil)

	api := &mocks.API{}
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(nil, nil).Once()
	api.On("Put", mock.Anything, "zipkin-span", mock.Anything, template.Modern).Return(transient).Twice()
	api.On("Put", mock.Anything, "zipkin-span", mock.Anything, template.Modern).Return(nil).Once()

	r := newReconciler(api, template.Modern)
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))
	api.AssertExpectations(t)
}

func TestEnsureTemplateGivesUpAfterMaxAttempts(t *testing.T) {
	transient := template.NewResponseError(errors.New("503: unavailable"), http.StatusServiceUnavailable, nil)

	api := &mocks.API{}
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(nil, transient).Times(3)

	r := newReconciler(api, template.Modern)
	err := r.EnsureTemplate(context.Background(), testSpec)
	require.Error(t, err)
	api.AssertExpectations(t)
}

func TestEnsureTemplateDoesNotRetryRejection(t *testing.T) {
	rejected := &template.RejectedError{Name: "zipkin-span", StatusCode: http.StatusBadRequest, Reason: "unknown setting"}

	api := &mocks.API{}
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(nil, nil).Once()
	api.On("Put", mock.Anything, "zipkin-span", mock.Anything, template.Modern).Return(rejected).Once()

	r := newReconciler(api, template.Modern)
	err := r.EnsureTemplate(context.Background(), testSpec)
	var re *template.RejectedError
	require.ErrorAs(t, err, &re)
	api.AssertExpectations(t)

	// a failed upsert must not poison the cache
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(nil, nil).Once()
	api.On("Put", mock.Anything, "zipkin-span", mock.Anything, template.Modern).Return(nil).Once()
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))
	api.AssertExpectations(t)
}

func TestEnsureTemplateDoesNotRetryAfterCancellation(t *testing.T) {
	api := &mocks.API{}
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(nil, context.Canceled).Once()

	r := newReconciler(api, template.Modern)
	err := r.EnsureTemplate(context.Background(), testSpec)
	require.ErrorIs(t, err, context.Canceled)
	api.AssertExpectations(t)
}

func TestDeleteTemplate(t *testing.T) {
	api := &mocks.API{}
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(nil, nil).Once()
	api.On("Put", mock.Anything, "zipkin-span", mock.Anything, template.Modern).Return(nil).Once()
	api.On("Delete", mock.Anything, "zipkin-span", template.Modern).Return(nil).Once()

	r := newReconciler(api, template.Modern)
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))
	require.NoError(t, r.DeleteTemplate(context.Background(), "zipkin-span"))

	// deletion drops the cache so the next ensure goes back to the engine
	api.On("Get", mock.Anything, "zipkin-span", template.Modern).Return(nil, nil).Once()
	api.On("Put", mock.Anything, "zipkin-span", mock.Anything, template.Modern).Return(nil).Once()
	require.NoError(t, r.EnsureTemplate(context.Background(), testSpec))
	api.AssertExpectations(t)
}

func TestDeleteTemplateFailure(t *testing.T) {
	api := &mocks.API{}
	api.On("Delete", mock.Anything, "zipkin-span", template.Legacy).
		Return(template.NewResponseError(errors.New("403: forbidden"), http.StatusForbidden, nil)).Once()

	r := newReconciler(api, template.Legacy)
	require.Error(t, r.DeleteTemplate(context.Background(), "zipkin-span"))
	api.AssertExpectations(t)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection failure", err: errors.New("connection refused"), want: true},
		{name: "server error", err: template.NewResponseError(errors.New("503"), http.StatusServiceUnavailable, nil), want: true},
		{name: "too many requests", err: template.NewResponseError(errors.New("429"), http.StatusTooManyRequests, nil), want: true},
		{name: "bad request", err: template.NewResponseError(errors.New("400"), http.StatusBadRequest, nil), want: false},
		{name: "rejection", err: &template.RejectedError{StatusCode: http.StatusBadRequest}, want: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, template.IsTransient(test.err))
		})
	}
}
