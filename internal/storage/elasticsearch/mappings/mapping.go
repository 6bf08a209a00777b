// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package mappings

import (
	"bytes"
	"embed"
	"strconv"
	"strings"

	"github.com/wenjq0911/zipkin/internal/es"
	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/template"
)

// MAPPINGS contains embedded index template bodies.
//
//go:embed *.json
var MAPPINGS embed.FS

// Builder renders index template bodies from the embedded JSON templates.
type Builder struct {
	TemplateBuilder es.TemplateBuilder
}

var _ template.BodyRenderer = Builder{}

// templateParams holds parameters required to render a template body
type templateParams struct {
	IndexPatterns string
	Priority      int64
	Shards        int64
	Replicas      int64
	StoresSource  bool
}

// TemplateBody renders the wire body for the desired spec in the shape
// selected by its version profile.
func (b Builder) TemplateBody(spec template.Spec) (string, error) {
	name := "span-template-legacy.json"
	if spec.Profile == template.Modern {
		name = "span-template-modern.json"
	}
	return b.render(name, templateParams{
		IndexPatterns: quotePatterns(spec.IndexPatterns),
		Priority:      spec.Priority,
		Shards:        spec.Shards,
		Replicas:      spec.Replicas,
		StoresSource:  spec.StoresSource,
	})
}

func (b Builder) render(name string, params templateParams) (string, error) {
	content, err := MAPPINGS.ReadFile(name)
	if err != nil {
		return "", err
	}
	tmpl, err := b.TemplateBuilder.Parse(string(content))
	if err != nil {
		return "", err
	}
	writer := new(bytes.Buffer)
	if err := tmpl.Execute(writer, params); err != nil {
		return "", err
	}
	return writer.String(), nil
}

func quotePatterns(patterns []string) string {
	quoted := make([]string, len(patterns))
	for i, p := range patterns {
		quoted[i] = strconv.Quote(p)
	}
	return strings.Join(quoted, ", ")
}
