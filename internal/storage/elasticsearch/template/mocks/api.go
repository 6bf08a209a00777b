// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch/template"
)

type API struct {
	mock.Mock
}

func (_m *API) Get(ctx context.Context, name string, profile template.VersionProfile) (*template.Spec, error) {
	ret := _m.Called(ctx, name, profile)

	var r0 *template.Spec
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*template.Spec)
	}
	return r0, ret.Error(1)
}

func (_m *API) Put(ctx context.Context, name string, body string, profile template.VersionProfile) error {
	ret := _m.Called(ctx, name, body, profile)
	return ret.Error(0)
}

func (_m *API) Delete(ctx context.Context, name string, profile template.VersionProfile) error {
	ret := _m.Called(ctx, name, profile)
	return ret.Error(0)
}
