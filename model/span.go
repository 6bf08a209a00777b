// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"time"
)

// Kind describes the relationship of a span to an RPC, if any.
type Kind string

// Valid span kinds.
const (
	Client   Kind = "CLIENT"
	Server   Kind = "SERVER"
	Producer Kind = "PRODUCER"
	Consumer Kind = "CONSUMER"
)

// Endpoint identifies the network context of a service recording a span.
type Endpoint struct {
	ServiceName string `json:"serviceName,omitempty"`
	IPv4        string `json:"ipv4,omitempty"`
	IPv6        string `json:"ipv6,omitempty"`
	Port        int    `json:"port,omitempty"`
}

// Annotation associates an event that explains latency with a timestamp.
type Annotation struct {
	// Timestamp is in epoch microseconds.
	Timestamp int64  `json:"timestamp"`
	Value     string `json:"value"`
}

// Span is a single-host view of an operation within a trace.
//
// Timestamp and Duration are epoch microseconds and microseconds
// respectively, matching the wire format written to storage.
type Span struct {
	TraceID        string            `json:"traceId"`
	ID             string            `json:"id"`
	ParentID       string            `json:"parentId,omitempty"`
	Kind           Kind              `json:"kind,omitempty"`
	Name           string            `json:"name,omitempty"`
	Timestamp      int64             `json:"timestamp,omitempty"`
	Duration       int64             `json:"duration,omitempty"`
	Shared         bool              `json:"shared,omitempty"`
	Debug          bool              `json:"debug,omitempty"`
	LocalEndpoint  *Endpoint         `json:"localEndpoint,omitempty"`
	RemoteEndpoint *Endpoint         `json:"remoteEndpoint,omitempty"`
	Annotations    []Annotation      `json:"annotations,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// LocalServiceName returns the service name of the local endpoint, if any.
func (s *Span) LocalServiceName() string {
	if s.LocalEndpoint == nil {
		return ""
	}
	return s.LocalEndpoint.ServiceName
}

// StartTime returns the span timestamp as time.Time.
func (s *Span) StartTime() time.Time {
	return time.UnixMicro(s.Timestamp).UTC()
}

// Trace is the set of spans sharing one trace ID, ordered by timestamp.
type Trace struct {
	Spans []*Span
}

// TimeAsEpochMicroseconds converts a time.Time to the epoch microsecond
// representation used throughout the storage schema.
func TimeAsEpochMicroseconds(t time.Time) int64 {
	return t.UnixNano() / int64(time.Microsecond)
}

// EpochMicrosecondsAsTime is the inverse of TimeAsEpochMicroseconds.
func EpochMicrosecondsAsTime(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}
