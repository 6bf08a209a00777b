// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"sort"

	"github.com/wenjq0911/zipkin/internal/es/config"
)

// VersionProfile selects which template API shape is spoken to the engine.
type VersionProfile int

const (
	// Legacy is the unversioned /_template API without explicit priority,
	// matched by pattern precedence. Used for ES 6.x and early 7.x.
	Legacy VersionProfile = iota
	// Modern is the named /_index_template API with explicit integer
	// priority, highest wins on pattern overlap. Available since ES 7.8.
	Modern
)

func (p VersionProfile) String() string {
	if p == Modern {
		return "modern"
	}
	return "legacy"
}

// ProfileForVersion resolves the template API profile from the major engine
// version. Major version 7 starts out Modern; servers older than 7.8 reject
// the endpoint and the reconciler degrades to Legacy once.
func ProfileForVersion(esVersion uint) VersionProfile {
	if esVersion >= 7 {
		return Modern
	}
	return Legacy
}

// Spec is the declarative desired state of one named index template.
type Spec struct {
	Name          string
	IndexPatterns []string
	Priority      int64
	Shards        int64
	Replicas      int64
	// StoresSource controls _source.enabled for matching indices. False is
	// used by catch-all templates for data that is not retained.
	StoresSource bool
	Profile      VersionProfile
}

// SpanTemplateSpec computes the desired span template for the given index
// configuration. Pure: same inputs always produce the same spec, so
// independently configured writers converge on identical desired state.
func SpanTemplateSpec(prefix config.IndexPrefix, opts config.IndexOptions, profile VersionProfile) Spec {
	name := prefix.Apply("zipkin-span")
	return Spec{
		Name:          name,
		IndexPatterns: []string{name + "-*"},
		Priority:      opts.Priority,
		Shards:        opts.Shards,
		Replicas:      opts.Replicas,
		StoresSource:  !opts.DisableSourceStorage,
		Profile:       profile,
	}
}

// Satisfies reports whether an observed remote template already matches the
// desired one. Every asserted field must match exactly: a lower observed
// priority is just as stale as a missing pattern. Replicas are asserted on
// upsert but not compared, because legacy listings do not always echo them.
func (s Spec) Satisfies(observed Spec) bool {
	// The legacy wire shape carries no explicit priority, so there is
	// nothing to compare against under that profile.
	if s.Profile == Modern && s.Priority != observed.Priority {
		return false
	}
	if s.Shards != observed.Shards {
		return false
	}
	if s.StoresSource != observed.StoresSource {
		return false
	}
	return equalPatternSets(s.IndexPatterns, observed.IndexPatterns)
}

func equalPatternSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
