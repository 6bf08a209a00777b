// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenjq0911/zipkin/internal/config"
	escfg "github.com/wenjq0911/zipkin/internal/es/config"
)

func TestOptionsDefaults(t *testing.T) {
	opts := NewOptions("es")
	cfg := opts.GetConfig()
	assert.Equal(t, []string{defaultServerURL}, cfg.Servers)
	assert.Equal(t, 72*time.Hour, cfg.MaxSpanAge)
	assert.Equal(t, defaultMaxDocCount, cfg.MaxDocCount)
	assert.True(t, cfg.CreateIndexTemplates)
	assert.EqualValues(t, 5, cfg.Indices.Spans.Shards)
	assert.Equal(t, escfg.RotationDay, cfg.Indices.Spans.RolloverFrequency)
}

func TestOptionsWithFlags(t *testing.T) {
	opts := NewOptions("es")
	v, command := config.Viperize(opts.AddFlags)
	err := command.ParseFlags([]string{
		"--es.server-urls=http://es1:9200, http://es2:9200",
		"--es.username=user",
		"--es.password=pass",
		"--es.index-prefix=production",
		"--es.index-date-separator=.",
		"--es.index-rollover-frequency=week",
		"--es.template-priority=10",
		"--es.num-shards=3",
		"--es.num-replicas=2",
		"--es.max-span-age=48h",
		"--es.max-doc-count=5000",
		"--es.create-index-templates=false",
		"--es.version=7",
		"--es.disable-source-storage=true",
		"--es.bulk.actions=500",
	})
	require.NoError(t, err)
	opts.InitFromViper(v)

	cfg := opts.GetConfig()
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Servers)
	assert.Equal(t, "user", cfg.Authentication.Username)
	assert.Equal(t, "pass", cfg.Authentication.Password)
	assert.EqualValues(t, "production", cfg.Indices.IndexPrefix)
	assert.Equal(t, "2006.01.02", cfg.Indices.Spans.DateLayout)
	assert.Equal(t, escfg.RotationWeek, cfg.Indices.Spans.RolloverFrequency)
	assert.EqualValues(t, 10, cfg.Indices.Spans.Priority)
	assert.EqualValues(t, 3, cfg.Indices.Spans.Shards)
	assert.EqualValues(t, 2, cfg.Indices.Spans.Replicas)
	assert.Equal(t, 48*time.Hour, cfg.MaxSpanAge)
	assert.Equal(t, 5000, cfg.MaxDocCount)
	assert.False(t, cfg.CreateIndexTemplates)
	assert.EqualValues(t, 7, cfg.Version)
	assert.True(t, cfg.Indices.Spans.DisableSourceStorage)
	assert.Equal(t, 500, cfg.BulkProcessing.MaxActions)

	require.NoError(t, cfg.Validate())
}
