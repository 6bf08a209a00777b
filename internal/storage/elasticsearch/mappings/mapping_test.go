// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package mappings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenjq0911/zipkin/internal/es"
	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/template"
)

func testSpec(profile template.VersionProfile) template.Spec {
	return template.Spec{
		Name:          "zipkin-span",
		IndexPatterns: []string{"zipkin-span-*"},
		Priority:      10,
		Shards:        5,
		Replicas:      1,
		StoresSource:  true,
		Profile:       profile,
	}
}

func TestTemplateBodyModern(t *testing.T) {
	builder := Builder{TemplateBuilder: es.TextTemplateBuilder{}}
	body, err := builder.TemplateBody(testSpec(template.Modern))
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &parsed), "rendered body must be valid JSON")
	assert.Equal(t, []any{"zipkin-span-*"}, parsed["index_patterns"])
	assert.EqualValues(t, 10, parsed["priority"])

	tmpl := parsed["template"].(map[string]any)
	settings := tmpl["settings"].(map[string]any)
	assert.EqualValues(t, 5, settings["index.number_of_shards"])
	assert.EqualValues(t, 1, settings["index.number_of_replicas"])

	mappings := tmpl["mappings"].(map[string]any)
	source := mappings["_source"].(map[string]any)
	assert.Equal(t, true, source["enabled"])

	properties := mappings["properties"].(map[string]any)
	for _, field := range []string{"traceId", "id", "name", "kind", "timestamp", "duration", "annotations", "tags"} {
		assert.Contains(t, properties, field)
	}
	assert.Equal(t, "nested", properties["tags"].(map[string]any)["type"])
	assert.Equal(t, "nested", properties["annotations"].(map[string]any)["type"])
}

func TestTemplateBodyLegacy(t *testing.T) {
	builder := Builder{TemplateBuilder: es.TextTemplateBuilder{}}
	body, err := builder.TemplateBody(testSpec(template.Legacy))
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	assert.Equal(t, []any{"zipkin-span-*"}, parsed["index_patterns"])
	// the legacy shape has no priority and no template wrapper
	assert.NotContains(t, parsed, "priority")
	assert.Contains(t, parsed, "settings")
	assert.Contains(t, parsed, "mappings")
}

func TestTemplateBodyDisabledSource(t *testing.T) {
	builder := Builder{TemplateBuilder: es.TextTemplateBuilder{}}
	spec := testSpec(template.Modern)
	spec.StoresSource = false
	body, err := builder.TemplateBody(spec)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	source := parsed["template"].(map[string]any)["mappings"].(map[string]any)["_source"].(map[string]any)
	assert.Equal(t, false, source["enabled"])
}

func TestTemplateBodyMultiplePatterns(t *testing.T) {
	builder := Builder{TemplateBuilder: es.TextTemplateBuilder{}}
	spec := testSpec(template.Modern)
	spec.IndexPatterns = []string{"a-*", "b-*"}
	body, err := builder.TemplateBody(spec)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	assert.Equal(t, []any{"a-*", "b-*"}, parsed["index_patterns"])
}
