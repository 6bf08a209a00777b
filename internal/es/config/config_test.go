// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"testing"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wenjq0911/zipkin/internal/metrics"
)

func TestIndexPrefixApply(t *testing.T) {
	tests := []struct {
		prefix IndexPrefix
		want   string
	}{
		{prefix: "", want: "zipkin-span"},
		{prefix: "production", want: "production-zipkin-span"},
		{prefix: "production-", want: "production-zipkin-span"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.prefix.Apply("zipkin-span"))
	}
}

func TestRolloverDuration(t *testing.T) {
	assert.Equal(t, 24*time.Hour, IndexOptions{}.RolloverDuration())
	assert.Equal(t, 24*time.Hour, IndexOptions{RolloverFrequency: RotationDay}.RolloverDuration())
	assert.Equal(t, 7*24*time.Hour, IndexOptions{RolloverFrequency: RotationWeek}.RolloverDuration())
}

func TestApplyDefaults(t *testing.T) {
	source := Configuration{
		Authentication: BasicAuthentication{Username: "user", Password: "pass"},
		Sniffing:       Sniffing{Enabled: true},
		MaxSpanAge:     72 * time.Hour,
		MaxDocCount:    10000,
		LogLevel:       "error",
		BulkProcessing: BulkProcessing{
			MaxBytes:      5000000,
			Workers:       1,
			MaxActions:    1000,
			FlushInterval: 200 * time.Millisecond,
		},
		Indices: Indices{
			IndexPrefix: "production",
			Spans: IndexOptions{
				Shards:            5,
				Replicas:          1,
				Priority:          10,
				DateLayout:        "2006-01-02",
				RolloverFrequency: RotationDay,
			},
		},
	}

	empty := Configuration{}
	empty.ApplyDefaults(&source)
	assert.Equal(t, "user", empty.Authentication.Username)
	assert.Equal(t, source.MaxSpanAge, empty.MaxSpanAge)
	assert.Equal(t, source.Indices, empty.Indices)
	assert.Equal(t, source.BulkProcessing, empty.BulkProcessing)

	overridden := Configuration{
		MaxDocCount: 500,
		Indices:     Indices{Spans: IndexOptions{Shards: 1}},
	}
	overridden.ApplyDefaults(&source)
	assert.Equal(t, 500, overridden.MaxDocCount)
	assert.EqualValues(t, 1, overridden.Indices.Spans.Shards)
	assert.EqualValues(t, 1, overridden.Indices.Spans.Replicas)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Configuration
		wantErr bool
	}{
		{
			name:    "no servers",
			config:  Configuration{},
			wantErr: true,
		},
		{
			name:    "invalid url",
			config:  Configuration{Servers: []string{"not a url"}},
			wantErr: true,
		},
		{
			name:   "valid",
			config: Configuration{Servers: []string{"http://localhost:9200"}},
		},
		{
			name: "bad rollover frequency",
			config: Configuration{
				Servers: []string{"http://localhost:9200"},
				Indices: Indices{Spans: IndexOptions{RolloverFrequency: "hour"}},
			},
			wantErr: true,
		},
		{
			name: "weekly rollover",
			config: Configuration{
				Servers: []string{"http://localhost:9200"},
				Indices: Indices{Spans: IndexOptions{RolloverFrequency: RotationWeek}},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.config.Validate()
			if test.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGetConfigOptions(t *testing.T) {
	config := Configuration{
		Servers:         []string{"http://localhost:9200"},
		LogLevel:        "debug",
		HTTPCompression: true,
		Authentication:  BasicAuthentication{Username: "user", Password: "pass"},
	}
	options, err := config.getConfigOptions(zap.NewNop())
	require.NoError(t, err)
	assert.NotEmpty(t, options)
}

func TestGetConfigOptionsBadLogLevel(t *testing.T) {
	config := Configuration{Servers: []string{"http://localhost:9200"}, LogLevel: "warning"}
	_, err := config.getConfigOptions(zap.NewNop())
	require.Error(t, err)
}

func TestBulkCallbackFailureHook(t *testing.T) {
	var staleSignals int
	bcb := bulkCallback{
		metrics:   metrics.NullBulkMetrics(),
		logger:    zap.NewNop(),
		onFailure: func() { staleSignals++ },
	}

	// item failures signal staleness
	bcb.invoke(1, []elastic.BulkableRequest{elastic.NewBulkIndexRequest()}, &elastic.BulkResponse{
		Errors: true,
		Items: []map[string]*elastic.BulkResponseItem{
			{"index": {Status: 404, Error: &elastic.ErrorDetails{Type: "index_template_missing_exception"}}},
		},
	}, nil)
	assert.Equal(t, 1, staleSignals)

	// a clean flush does not
	bcb.invoke(2, []elastic.BulkableRequest{elastic.NewBulkIndexRequest()}, &elastic.BulkResponse{}, nil)
	assert.Equal(t, 1, staleSignals)

	// a flush-level error does
	bcb.invoke(3, nil, nil, errors.New("connection reset"))
	assert.Equal(t, 2, staleSignals)
}

func TestBulkCallbackNilHook(t *testing.T) {
	bcb := bulkCallback{metrics: metrics.NullBulkMetrics(), logger: zap.NewNop()}
	bcb.invoke(1, nil, nil, errors.New("connection reset"))
}
