// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package es

import (
	"context"

	"github.com/olivere/elastic/v7"
)

// Client is an abstraction for elastic.Client
type Client interface {
	IndexExists(index string) IndicesExistsService
	DeleteIndex(index string) IndicesDeleteService
	Index() IndexService
	Search(indices ...string) SearchService
	MultiSearch() MultiSearchService
	GetVersion() uint
	Close() error
}

// IndicesExistsService is an abstraction for elastic.IndicesExistsService
type IndicesExistsService interface {
	Do(ctx context.Context) (bool, error)
}

// IndicesDeleteService is an abstraction for elastic.IndicesDeleteService
type IndicesDeleteService interface {
	Do(ctx context.Context) (*elastic.IndicesDeleteResponse, error)
}

// IndexService is an abstraction for elastic.IndexService
type IndexService interface {
	Index(index string) IndexService
	Id(id string) IndexService
	BodyJson(body any) IndexService
	Add()
}

// SearchService is an abstraction for elastic.SearchService
type SearchService interface {
	Size(size int) SearchService
	Aggregation(name string, aggregation elastic.Aggregation) SearchService
	IgnoreUnavailable(ignoreUnavailable bool) SearchService
	Query(query elastic.Query) SearchService
	Do(ctx context.Context) (*elastic.SearchResult, error)
}

// MultiSearchService is an abstraction for elastic.MultiSearchService
type MultiSearchService interface {
	Add(requests ...*elastic.SearchRequest) MultiSearchService
	Index(indices ...string) MultiSearchService
	Do(ctx context.Context) (*elastic.MultiSearchResult, error)
}
