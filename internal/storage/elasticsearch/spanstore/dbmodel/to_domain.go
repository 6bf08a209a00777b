// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package dbmodel

import (
	"github.com/wenjq0911/zipkin/model"
)

// ToDomain converts Elasticsearch documents back into model spans.
type ToDomain struct{}

// NewToDomain creates ToDomain
func NewToDomain() ToDomain {
	return ToDomain{}
}

// SpanToDomain converts one document.
func (ToDomain) SpanToDomain(dbSpan *Span) *model.Span {
	return &model.Span{
		TraceID:        string(dbSpan.TraceID),
		ID:             string(dbSpan.SpanID),
		ParentID:       dbSpan.ParentID,
		Kind:           model.Kind(dbSpan.Kind),
		Name:           dbSpan.Name,
		Timestamp:      dbSpan.Timestamp,
		Duration:       dbSpan.Duration,
		Shared:         dbSpan.Shared,
		Debug:          dbSpan.Debug,
		LocalEndpoint:  endpointToDomain(dbSpan.LocalEndpoint),
		RemoteEndpoint: endpointToDomain(dbSpan.RemoteEndpoint),
		Annotations:    annotationsToDomain(dbSpan.Annotations),
		Tags:           tagsToDomain(dbSpan.Tags),
	}
}

func endpointToDomain(e *Endpoint) *model.Endpoint {
	if e == nil {
		return nil
	}
	return &model.Endpoint{
		ServiceName: e.ServiceName,
		IPv4:        e.IPv4,
		IPv6:        e.IPv6,
		Port:        e.Port,
	}
}

func annotationsToDomain(annotations []Annotation) []model.Annotation {
	if len(annotations) == 0 {
		return nil
	}
	out := make([]model.Annotation, len(annotations))
	for i, a := range annotations {
		out[i] = model.Annotation{Timestamp: a.Timestamp, Value: a.Value}
	}
	return out
}

func tagsToDomain(tags []KeyValue) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for _, kv := range tags {
		out[kv.Key] = kv.Value
	}
	return out
}
