// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/mock"

	"github.com/wenjq0911/zipkin/internal/es"
)

type Client struct {
	mock.Mock
}

func (_m *Client) IndexExists(index string) es.IndicesExistsService {
	ret := _m.Called(index)

	var r0 es.IndicesExistsService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.IndicesExistsService)
	}
	return r0
}

func (_m *Client) DeleteIndex(index string) es.IndicesDeleteService {
	ret := _m.Called(index)

	var r0 es.IndicesDeleteService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.IndicesDeleteService)
	}
	return r0
}

func (_m *Client) Index() es.IndexService {
	ret := _m.Called()

	var r0 es.IndexService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.IndexService)
	}
	return r0
}

func (_m *Client) Search(indices ...string) es.SearchService {
	ret := _m.Called(indices)

	var r0 es.SearchService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.SearchService)
	}
	return r0
}

func (_m *Client) MultiSearch() es.MultiSearchService {
	ret := _m.Called()

	var r0 es.MultiSearchService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.MultiSearchService)
	}
	return r0
}

func (_m *Client) GetVersion() uint {
	ret := _m.Called()
	return ret.Get(0).(uint)
}

func (_m *Client) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

type IndicesExistsService struct {
	mock.Mock
}

func (_m *IndicesExistsService) Do(ctx context.Context) (bool, error) {
	ret := _m.Called(ctx)
	return ret.Get(0).(bool), ret.Error(1)
}

type IndicesDeleteService struct {
	mock.Mock
}

func (_m *IndicesDeleteService) Do(ctx context.Context) (*elastic.IndicesDeleteResponse, error) {
	ret := _m.Called(ctx)

	var r0 *elastic.IndicesDeleteResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*elastic.IndicesDeleteResponse)
	}
	return r0, ret.Error(1)
}

type IndexService struct {
	mock.Mock
}

func (_m *IndexService) Index(index string) es.IndexService {
	ret := _m.Called(index)

	var r0 es.IndexService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.IndexService)
	}
	return r0
}

func (_m *IndexService) Id(id string) es.IndexService {
	ret := _m.Called(id)

	var r0 es.IndexService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.IndexService)
	}
	return r0
}

func (_m *IndexService) BodyJson(body any) es.IndexService {
	ret := _m.Called(body)

	var r0 es.IndexService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.IndexService)
	}
	return r0
}

func (_m *IndexService) Add() {
	_m.Called()
}

type SearchService struct {
	mock.Mock
}

func (_m *SearchService) Size(size int) es.SearchService {
	ret := _m.Called(size)

	var r0 es.SearchService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.SearchService)
	}
	return r0
}

func (_m *SearchService) Aggregation(name string, aggregation elastic.Aggregation) es.SearchService {
	ret := _m.Called(name, aggregation)

	var r0 es.SearchService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.SearchService)
	}
	return r0
}

func (_m *SearchService) IgnoreUnavailable(ignoreUnavailable bool) es.SearchService {
	ret := _m.Called(ignoreUnavailable)

	var r0 es.SearchService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.SearchService)
	}
	return r0
}

func (_m *SearchService) Query(query elastic.Query) es.SearchService {
	ret := _m.Called(query)

	var r0 es.SearchService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.SearchService)
	}
	return r0
}

func (_m *SearchService) Do(ctx context.Context) (*elastic.SearchResult, error) {
	ret := _m.Called(ctx)

	var r0 *elastic.SearchResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*elastic.SearchResult)
	}
	return r0, ret.Error(1)
}

type MultiSearchService struct {
	mock.Mock
}

func (_m *MultiSearchService) Add(requests ...*elastic.SearchRequest) es.MultiSearchService {
	ret := _m.Called(requests)

	var r0 es.MultiSearchService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.MultiSearchService)
	}
	return r0
}

func (_m *MultiSearchService) Index(indices ...string) es.MultiSearchService {
	ret := _m.Called(indices)

	var r0 es.MultiSearchService
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(es.MultiSearchService)
	}
	return r0
}

func (_m *MultiSearchService) Do(ctx context.Context) (*elastic.MultiSearchResult, error) {
	ret := _m.Called(ctx)

	var r0 *elastic.MultiSearchResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*elastic.MultiSearchResult)
	}
	return r0, ret.Error(1)
}
