// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package dbmodel

// TraceID is the shared identifier of all spans in one trace.
type TraceID string

// SpanID identifies one span within a trace.
type SpanID string

// KeyValue is one tag stored as a nested key/value pair so that exact and
// existence filters work without mapping explosions.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Annotation is a timestamped event on a span.
type Annotation struct {
	Timestamp int64  `json:"timestamp"`
	Value     string `json:"value"`
}

// Endpoint is the network context of a span side.
type Endpoint struct {
	ServiceName string `json:"serviceName,omitempty"`
	IPv4        string `json:"ipv4,omitempty"`
	IPv6        string `json:"ipv6,omitempty"`
	Port        int    `json:"port,omitempty"`
}

// Span is the Elasticsearch document representation of a span.
type Span struct {
	TraceID        TraceID      `json:"traceId"`
	SpanID         SpanID       `json:"id"`
	ParentID       string       `json:"parentId,omitempty"`
	Kind           string       `json:"kind,omitempty"`
	Name           string       `json:"name,omitempty"`
	Timestamp      int64        `json:"timestamp,omitempty"`
	Duration       int64        `json:"duration,omitempty"`
	Shared         bool         `json:"shared,omitempty"`
	Debug          bool         `json:"debug,omitempty"`
	LocalEndpoint  *Endpoint    `json:"localEndpoint,omitempty"`
	RemoteEndpoint *Endpoint    `json:"remoteEndpoint,omitempty"`
	Annotations    []Annotation `json:"annotations,omitempty"`
	Tags           []KeyValue   `json:"tags,omitempty"`
}
