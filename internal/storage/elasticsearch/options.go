// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package elasticsearch

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wenjq0911/zipkin/internal/es/config"
)

const (
	suffixUsername            = ".username"
	suffixPassword            = ".password"
	suffixSniffer             = ".sniffer"
	suffixSnifferTLSEnabled   = ".sniffer-tls-enabled"
	suffixServerURLs          = ".server-urls"
	suffixTimeout             = ".timeout"
	suffixMaxSpanAge          = ".max-span-age"
	suffixNumShards           = ".num-shards"
	suffixNumReplicas         = ".num-replicas"
	suffixBulkSize            = ".bulk.size"
	suffixBulkWorkers         = ".bulk.workers"
	suffixBulkActions         = ".bulk.actions"
	suffixBulkFlushInterval   = ".bulk.flush-interval"
	suffixIndexPrefix         = ".index-prefix"
	suffixIndexDateSeparator  = ".index-date-separator"
	suffixIndexRollover       = ".index-rollover-frequency"
	suffixTemplatePriority    = ".template-priority"
	suffixDisableSource       = ".disable-source-storage"
	suffixCreateIndexTemplate = ".create-index-templates"
	suffixVersion             = ".version"
	suffixMaxDocCount         = ".max-doc-count"
	suffixLogLevel            = ".log-level"
	suffixHTTPCompression     = ".http-compression"

	// elasticsearch allowed limit, see index.max_result_window
	defaultMaxDocCount = 10_000
	defaultServerURL   = "http://127.0.0.1:9200"
	defaultDateSep     = "-"
)

// Options binds the Elasticsearch storage configuration to command line
// flags under a single namespace.
type Options struct {
	Config    config.Configuration
	namespace string
}

// NewOptions creates a new Options struct with defaults applied.
func NewOptions(namespace string) *Options {
	return &Options{
		namespace: namespace,
		Config: config.Configuration{
			Servers:         []string{defaultServerURL},
			MaxSpanAge:      72 * time.Hour,
			MaxDocCount:     defaultMaxDocCount,
			HTTPCompression: true,
			LogLevel:        "error",
			BulkProcessing: config.BulkProcessing{
				MaxBytes:      5 * 1000 * 1000,
				Workers:       1,
				MaxActions:    1000,
				FlushInterval: 200 * time.Millisecond,
			},
			Indices: config.Indices{
				Spans: config.IndexOptions{
					Shards:            5,
					Replicas:          1,
					DateLayout:        "2006-01-02",
					RolloverFrequency: config.RotationDay,
				},
			},
			CreateIndexTemplates: true,
		},
	}
}

// AddFlags adds flags for Options
func (opt *Options) AddFlags(flagSet *flag.FlagSet) {
	ns := opt.namespace
	cfg := &opt.Config
	flagSet.String(
		ns+suffixUsername,
		cfg.Authentication.Username,
		"The username required by Elasticsearch")
	flagSet.String(
		ns+suffixPassword,
		cfg.Authentication.Password,
		"The password required by Elasticsearch")
	flagSet.Bool(
		ns+suffixSniffer,
		cfg.Sniffing.Enabled,
		"The sniffer config for Elasticsearch; client uses sniffing process to find all nodes automatically, disable if not required")
	flagSet.Bool(
		ns+suffixSnifferTLSEnabled,
		cfg.Sniffing.UseHTTPS,
		"Option to enable TLS when sniffing an Elasticsearch Cluster; disabled by default")
	flagSet.String(
		ns+suffixServerURLs,
		strings.Join(cfg.Servers, ","),
		"The comma-separated list of Elasticsearch servers, must be full url i.e. http://localhost:9200")
	flagSet.Duration(
		ns+suffixTimeout,
		cfg.QueryTimeout,
		"Timeout used for queries. A Timeout of zero means no timeout")
	flagSet.Duration(
		ns+suffixMaxSpanAge,
		cfg.MaxSpanAge,
		"The maximum lookback for trace queries")
	flagSet.Int64(
		ns+suffixNumShards,
		cfg.Indices.Spans.Shards,
		"The number of shards per index in Elasticsearch")
	flagSet.Int64(
		ns+suffixNumReplicas,
		cfg.Indices.Spans.Replicas,
		"The number of replicas per index in Elasticsearch")
	flagSet.Int(
		ns+suffixBulkSize,
		cfg.BulkProcessing.MaxBytes,
		"The number of bytes that the bulk requests can take up before the bulk processor decides to commit")
	flagSet.Int(
		ns+suffixBulkWorkers,
		cfg.BulkProcessing.Workers,
		"The number of workers that are able to receive bulk requests and eventually commit them to Elasticsearch")
	flagSet.Int(
		ns+suffixBulkActions,
		cfg.BulkProcessing.MaxActions,
		"The number of requests that can be enqueued before the bulk processor decides to commit")
	flagSet.Duration(
		ns+suffixBulkFlushInterval,
		cfg.BulkProcessing.FlushInterval,
		"A time.Duration after which bulk requests are committed, regardless of other thresholds. Set to zero to disable")
	flagSet.String(
		ns+suffixIndexPrefix,
		string(cfg.Indices.IndexPrefix),
		"Optional prefix of span indices. For example \"production\" creates \"production-zipkin-span-*\".")
	flagSet.String(
		ns+suffixIndexDateSeparator,
		defaultDateSep,
		"Optional date separator of span indices. For example \".\" creates \"zipkin-span-2020.11.20\".")
	flagSet.String(
		ns+suffixIndexRollover,
		cfg.Indices.Spans.RolloverFrequency,
		"Rotation frequency of span indices. Valid options: [day, week]")
	flagSet.Int64(
		ns+suffixTemplatePriority,
		cfg.Indices.Spans.Priority,
		"Priority of the installed index template. Only honored by the composable template API of Elasticsearch 7.8+")
	flagSet.Bool(
		ns+suffixDisableSource,
		cfg.Indices.Spans.DisableSourceStorage,
		"Install the template with document source storage disabled. Used for catch-all templates on clusters whose data is not read back")
	flagSet.Bool(
		ns+suffixCreateIndexTemplate,
		cfg.CreateIndexTemplates,
		"Create index templates at application startup. Set to false when templates are installed manually")
	flagSet.Uint(
		ns+suffixVersion,
		cfg.Version,
		"The major Elasticsearch version. If not specified, the value will be auto-detected from Elasticsearch")
	flagSet.Int(
		ns+suffixMaxDocCount,
		cfg.MaxDocCount,
		"The maximum document count to return from an Elasticsearch query. This will also apply to aggregations")
	flagSet.String(
		ns+suffixLogLevel,
		cfg.LogLevel,
		"The Elasticsearch client log-level. Valid levels: [debug, info, error]")
	flagSet.Bool(
		ns+suffixHTTPCompression,
		cfg.HTTPCompression,
		"Use gzip compression for requests to Elasticsearch")
}

// InitFromViper initializes Options with properties from viper
func (opt *Options) InitFromViper(v *viper.Viper) {
	ns := opt.namespace
	cfg := &opt.Config
	cfg.Authentication.Username = v.GetString(ns + suffixUsername)
	cfg.Authentication.Password = v.GetString(ns + suffixPassword)
	cfg.Sniffing.Enabled = v.GetBool(ns + suffixSniffer)
	cfg.Sniffing.UseHTTPS = v.GetBool(ns + suffixSnifferTLSEnabled)
	cfg.Servers = strings.Split(stripWhiteSpace(v.GetString(ns+suffixServerURLs)), ",")
	cfg.QueryTimeout = v.GetDuration(ns + suffixTimeout)
	cfg.MaxSpanAge = v.GetDuration(ns + suffixMaxSpanAge)
	cfg.Indices.Spans.Shards = v.GetInt64(ns + suffixNumShards)
	cfg.Indices.Spans.Replicas = v.GetInt64(ns + suffixNumReplicas)
	cfg.BulkProcessing.MaxBytes = v.GetInt(ns + suffixBulkSize)
	cfg.BulkProcessing.Workers = v.GetInt(ns + suffixBulkWorkers)
	cfg.BulkProcessing.MaxActions = v.GetInt(ns + suffixBulkActions)
	cfg.BulkProcessing.FlushInterval = v.GetDuration(ns + suffixBulkFlushInterval)
	cfg.Indices.IndexPrefix = config.IndexPrefix(v.GetString(ns + suffixIndexPrefix))
	cfg.Indices.Spans.DateLayout = initDateLayout(v.GetString(ns + suffixIndexDateSeparator))
	cfg.Indices.Spans.RolloverFrequency = v.GetString(ns + suffixIndexRollover)
	cfg.Indices.Spans.Priority = v.GetInt64(ns + suffixTemplatePriority)
	cfg.Indices.Spans.DisableSourceStorage = v.GetBool(ns + suffixDisableSource)
	cfg.CreateIndexTemplates = v.GetBool(ns + suffixCreateIndexTemplate)
	cfg.Version = v.GetUint(ns + suffixVersion)
	cfg.MaxDocCount = v.GetInt(ns + suffixMaxDocCount)
	cfg.LogLevel = v.GetString(ns + suffixLogLevel)
	cfg.HTTPCompression = v.GetBool(ns + suffixHTTPCompression)
}

// GetConfig returns the bound configuration.
func (opt *Options) GetConfig() *config.Configuration {
	return &opt.Config
}

// stripWhiteSpace removes all whitespace characters from a string
func stripWhiteSpace(str string) string {
	return strings.ReplaceAll(str, " ", "")
}

func initDateLayout(separator string) string {
	return fmt.Sprintf("2006%s01%s02", separator, separator)
}
