// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package dbmodel

import (
	"sort"

	"github.com/wenjq0911/zipkin/model"
)

// FromDomain converts model.Span into the Elasticsearch document shape.
type FromDomain struct{}

// NewFromDomain creates FromDomain used to convert model span to db span
func NewFromDomain() FromDomain {
	return FromDomain{}
}

// FromDomainSpan converts one span. Tag maps become sorted nested
// key/value lists so document bodies are deterministic.
func (FromDomain) FromDomainSpan(span *model.Span) *Span {
	return &Span{
		TraceID:        TraceID(span.TraceID),
		SpanID:         SpanID(span.ID),
		ParentID:       span.ParentID,
		Kind:           string(span.Kind),
		Name:           span.Name,
		Timestamp:      span.Timestamp,
		Duration:       span.Duration,
		Shared:         span.Shared,
		Debug:          span.Debug,
		LocalEndpoint:  convertEndpoint(span.LocalEndpoint),
		RemoteEndpoint: convertEndpoint(span.RemoteEndpoint),
		Annotations:    convertAnnotations(span.Annotations),
		Tags:           convertTags(span.Tags),
	}
}

func convertEndpoint(e *model.Endpoint) *Endpoint {
	if e == nil {
		return nil
	}
	return &Endpoint{
		ServiceName: e.ServiceName,
		IPv4:        e.IPv4,
		IPv6:        e.IPv6,
		Port:        e.Port,
	}
}

func convertAnnotations(annotations []model.Annotation) []Annotation {
	if len(annotations) == 0 {
		return nil
	}
	out := make([]Annotation, len(annotations))
	for i, a := range annotations {
		out[i] = Annotation{Timestamp: a.Timestamp, Value: a.Value}
	}
	return out
}

func convertTags(tags map[string]string) []KeyValue {
	if len(tags) == 0 {
		return nil
	}
	out := make([]KeyValue, 0, len(tags))
	for k, v := range tags {
		out = append(out, KeyValue{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
