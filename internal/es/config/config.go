// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapgrpc"

	"github.com/wenjq0911/zipkin/internal/es"
	eswrapper "github.com/wenjq0911/zipkin/internal/es/wrapper"
	"github.com/wenjq0911/zipkin/internal/metrics"
)

const (
	IndexPrefixSeparator = "-"

	// RotationDay buckets indices by UTC calendar day.
	RotationDay = "day"
	// RotationWeek buckets indices by UTC week starting Monday.
	RotationWeek = "week"
)

// IndexPrefix is an optional prefix prepended to every index and template name.
type IndexPrefix string

// Apply returns the indexName prefixed with p, separated by "-".
func (p IndexPrefix) Apply(indexName string) string {
	ps := string(p)
	if ps == "" {
		return indexName
	}
	if strings.HasSuffix(ps, IndexPrefixSeparator) {
		return ps + indexName
	}
	return ps + IndexPrefixSeparator + indexName
}

// IndexOptions describes the index format, rotation frequency and the
// template settings asserted for indices matching the pattern.
type IndexOptions struct {
	// Priority contains the priority of the index template. When several
	// templates match a new index name the engine picks the highest.
	Priority int64 `mapstructure:"priority"`
	// DateLayout contains the format string used to format the rotation
	// bucket start into part of the index name, e.g. "2006-01-02".
	DateLayout string `mapstructure:"date_layout"`
	// Shards is the number of shards per index in Elasticsearch.
	Shards int64 `mapstructure:"shards"`
	// Replicas is the number of replicas per index in Elasticsearch.
	Replicas int64 `mapstructure:"replicas"`
	// RolloverFrequency selects the rotation bucket width.
	// Valid configuration options are: [day, week].
	RolloverFrequency string `mapstructure:"rollover_frequency"`
	// DisableSourceStorage, if set, installs the template with
	// _source.enabled=false so matching indices do not retain document
	// source. Used for low-priority catch-all templates.
	DisableSourceStorage bool `mapstructure:"disable_source_storage"`
}

// RolloverDuration returns the rotation bucket width as a duration.
func (o IndexOptions) RolloverDuration() time.Duration {
	if o.RolloverFrequency == RotationWeek {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// Indices describes the per-index-type configuration.
type Indices struct {
	IndexPrefix IndexPrefix  `mapstructure:"index_prefix"`
	Spans       IndexOptions `mapstructure:"spans"`
}

// Sniffing sets the sniffing configuration for the ElasticSearch client,
// which is the process of finding all the nodes of your cluster.
type Sniffing struct {
	Enabled  bool `mapstructure:"enabled"`
	UseHTTPS bool `mapstructure:"use_https"`
}

// BulkProcessing controls the background bulk flusher.
type BulkProcessing struct {
	// MaxBytes contains the number of buffered bytes which triggers a flush.
	MaxBytes int `mapstructure:"max_bytes"`
	// MaxActions contains the number of buffered actions which triggers a flush.
	MaxActions int `mapstructure:"max_actions"`
	// FlushInterval is the interval at the end of which a flush occurs.
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	// Workers contains the number of concurrent flush workers.
	Workers int `mapstructure:"workers"`
}

// BasicAuthentication contains credentials for the Elasticsearch cluster.
type BasicAuthentication struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password" json:"-"`
}

// Configuration describes the configuration properties needed to connect
// to an ElasticSearch cluster.
type Configuration struct {
	// Servers is a list of Elasticsearch servers. The strings must contain
	// full URLs (i.e. http://localhost:9200).
	Servers        []string            `mapstructure:"server_urls" valid:"required,url"`
	Authentication BasicAuthentication `mapstructure:"auth"`
	Sniffing       Sniffing            `mapstructure:"sniffing"`
	// QueryTimeout contains the timeout used for queries. A timeout of zero means no timeout.
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	// SendGetBodyAs is the HTTP verb to use for requests that contain a body.
	SendGetBodyAs string `mapstructure:"send_get_body_as"`
	// HTTPCompression can be set to false to disable gzip compression.
	HTTPCompression bool `mapstructure:"http_compression"`
	// Version contains the major Elasticsearch version. If this field is not
	// specified, the value will be auto-detected from Elasticsearch.
	Version uint `mapstructure:"version"`
	// LogLevel contains the Elasticsearch client log-level. Valid values
	// for this field are: [debug, info, error]
	LogLevel string `mapstructure:"log_level"`

	BulkProcessing BulkProcessing `mapstructure:"bulk_processing"`
	Indices        Indices        `mapstructure:"indices"`

	// CreateIndexTemplates, if set to true, reconciles index templates at
	// application startup. Set to false when templates are installed manually.
	CreateIndexTemplates bool `mapstructure:"create_mappings"`
	// MaxDocCount defines maximum number of documents to fetch from storage
	// per query, per index.
	MaxDocCount int `mapstructure:"max_doc_count"`
	// MaxSpanAge configures the maximum lookback on span reads.
	MaxSpanAge time.Duration `mapstructure:"max_span_age"`
}

// NewClient creates a new ElasticSearch client. onBulkFailure, when
// non-nil, runs after every bulk flush that reports failures.
func NewClient(ctx context.Context, c *Configuration, logger *zap.Logger, bulkMetrics *metrics.BulkMetrics, onBulkFailure func()) (es.Client, error) {
	if len(c.Servers) < 1 {
		return nil, errors.New("no servers specified")
	}
	options, err := c.getConfigOptions(logger)
	if err != nil {
		return nil, err
	}

	rawClient, err := elastic.NewClient(options...)
	if err != nil {
		return nil, err
	}

	if c.Version == 0 {
		pingResult, pingStatus, err := rawClient.Ping(c.Servers[0]).Do(ctx)
		if err != nil {
			return nil, err
		}

		// Non-2xx responses aren't reported as errors by the ping code.
		if pingStatus < 200 || pingStatus >= 300 {
			return nil, fmt.Errorf("ElasticSearch server %s returned HTTP %d, expected 2xx", c.Servers[0], pingStatus)
		}
		if pingResult.Version.Number == "" {
			return nil, fmt.Errorf("ElasticSearch server %s returned invalid ping response", c.Servers[0])
		}

		esVersion, err := strconv.Atoi(strings.Split(pingResult.Version.Number, ".")[0])
		if err != nil {
			return nil, err
		}
		// OpenSearch is based on ES 7.x
		if strings.Contains(pingResult.TagLine, "OpenSearch") {
			logger.Info("OpenSearch detected, using ES 7.x semantics")
			esVersion = 7
		}
		logger.Info("Elasticsearch detected", zap.Int("version", esVersion))
		c.Version = uint(esVersion)
	}

	if bulkMetrics == nil {
		bulkMetrics = metrics.NullBulkMetrics()
	}
	bcb := bulkCallback{
		metrics:   bulkMetrics,
		logger:    logger,
		onFailure: onBulkFailure,
	}

	bulkProc, err := rawClient.BulkProcessor().
		Before(func(id int64, _ /* requests */ []elastic.BulkableRequest) {
			bcb.startTimes.Store(id, time.Now())
		}).
		After(bcb.invoke).
		BulkSize(c.BulkProcessing.MaxBytes).
		Workers(c.BulkProcessing.Workers).
		BulkActions(c.BulkProcessing.MaxActions).
		FlushInterval(c.BulkProcessing.FlushInterval).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	return eswrapper.WrapESClient(rawClient, bulkProc, c.Version), nil
}

type bulkCallback struct {
	startTimes sync.Map
	metrics    *metrics.BulkMetrics
	logger     *zap.Logger
	onFailure  func()
}

func (bcb *bulkCallback) invoke(id int64, requests []elastic.BulkableRequest, response *elastic.BulkResponse, err error) {
	start, ok := bcb.startTimes.Load(id)
	if ok {
		bcb.startTimes.Delete(id)
	} else {
		start = time.Now()
	}

	// Log individual errors
	if response != nil && response.Errors {
		for _, it := range response.Items {
			for key, val := range it {
				if val.Error != nil {
					bcb.logger.Error("Elasticsearch part of bulk request failed",
						zap.String("map-key", key), zap.Reflect("response", val))
				}
			}
		}
	}

	latency := time.Since(start.(time.Time)).Seconds()
	if err != nil {
		bcb.metrics.LatencyErr.Observe(latency)
	} else {
		bcb.metrics.LatencyOk.Observe(latency)
	}

	var failed int
	if response != nil {
		failed = len(response.Failed())
	}

	total := len(requests)
	bcb.metrics.Attempts.Add(float64(total))
	bcb.metrics.Inserts.Add(float64(total - failed))
	bcb.metrics.Errors.Add(float64(failed))

	if err != nil {
		bcb.logger.Error("Elasticsearch could not process bulk request",
			zap.Int("request_count", total),
			zap.Int("failed_count", failed),
			zap.Error(err),
			zap.Any("response", response))
	}

	// Failed writes can mean the index template was removed or replaced
	// out-of-band, so cached template state must be treated as stale.
	if (err != nil || failed > 0) && bcb.onFailure != nil {
		bcb.onFailure()
	}
}

// ApplyDefaults copies settings from source unless its own value is non-zero.
func (c *Configuration) ApplyDefaults(source *Configuration) {
	if c.Authentication.Username == "" {
		c.Authentication.Username = source.Authentication.Username
	}
	if c.Authentication.Password == "" {
		c.Authentication.Password = source.Authentication.Password
	}
	if !c.Sniffing.Enabled {
		c.Sniffing.Enabled = source.Sniffing.Enabled
	}
	if !c.Sniffing.UseHTTPS {
		c.Sniffing.UseHTTPS = source.Sniffing.UseHTTPS
	}
	if c.MaxSpanAge == 0 {
		c.MaxSpanAge = source.MaxSpanAge
	}
	if c.MaxDocCount == 0 {
		c.MaxDocCount = source.MaxDocCount
	}
	if c.Indices.IndexPrefix == "" {
		c.Indices.IndexPrefix = source.Indices.IndexPrefix
	}
	setDefaultIndexOptions(&c.Indices.Spans, &source.Indices.Spans)
	if c.BulkProcessing.MaxBytes == 0 {
		c.BulkProcessing.MaxBytes = source.BulkProcessing.MaxBytes
	}
	if c.BulkProcessing.Workers == 0 {
		c.BulkProcessing.Workers = source.BulkProcessing.Workers
	}
	if c.BulkProcessing.MaxActions == 0 {
		c.BulkProcessing.MaxActions = source.BulkProcessing.MaxActions
	}
	if c.BulkProcessing.FlushInterval == 0 {
		c.BulkProcessing.FlushInterval = source.BulkProcessing.FlushInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = source.LogLevel
	}
	if c.SendGetBodyAs == "" {
		c.SendGetBodyAs = source.SendGetBodyAs
	}
	if !c.HTTPCompression {
		c.HTTPCompression = source.HTTPCompression
	}
}

func setDefaultIndexOptions(target, source *IndexOptions) {
	if target.Shards == 0 {
		target.Shards = source.Shards
	}
	if target.Replicas == 0 {
		target.Replicas = source.Replicas
	}
	if target.Priority == 0 {
		target.Priority = source.Priority
	}
	if target.DateLayout == "" {
		target.DateLayout = source.DateLayout
	}
	if target.RolloverFrequency == "" {
		target.RolloverFrequency = source.RolloverFrequency
	}
}

// Validate checks the configuration for structural problems.
func (c *Configuration) Validate() error {
	_, err := govalidator.ValidateStruct(c)
	if err != nil {
		return err
	}
	if f := c.Indices.Spans.RolloverFrequency; f != "" && f != RotationDay && f != RotationWeek {
		return fmt.Errorf("unsupported rollover frequency %q, expected %q or %q", f, RotationDay, RotationWeek)
	}
	return nil
}

// getConfigOptions wraps the configs to feed to the ElasticSearch client init
func (c *Configuration) getConfigOptions(logger *zap.Logger) ([]elastic.ClientOptionFunc, error) {
	options := []elastic.ClientOptionFunc{
		elastic.SetURL(c.Servers...),
		elastic.SetSniff(c.Sniffing.Enabled),
	}
	if c.Sniffing.UseHTTPS {
		options = append(options, elastic.SetScheme("https"))
	}
	if c.SendGetBodyAs != "" {
		options = append(options, elastic.SetSendGetBodyAs(c.SendGetBodyAs))
	}
	if c.Authentication.Username != "" || c.Authentication.Password != "" {
		options = append(options, elastic.SetBasicAuth(c.Authentication.Username, c.Authentication.Password))
	}
	options = append(options, elastic.SetGzip(c.HTTPCompression))

	httpClient := &http.Client{
		Timeout: c.QueryTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
		},
	}
	options = append(options, elastic.SetHttpClient(httpClient))

	return addLoggerOptions(options, c.LogLevel, logger)
}

func addLoggerOptions(options []elastic.ClientOptionFunc, logLevel string, logger *zap.Logger) ([]elastic.ClientOptionFunc, error) {
	// Decouple ES logger from the log-level assigned to the parent
	// application's log-level; otherwise, the least permissive log-level
	// will dominate.
	var lvl zapcore.Level
	var setLogger func(logger elastic.Logger) elastic.ClientOptionFunc

	switch logLevel {
	case "debug":
		lvl = zap.DebugLevel
		setLogger = elastic.SetTraceLog
	case "info", "":
		lvl = zap.InfoLevel
		setLogger = elastic.SetInfoLog
	case "error":
		lvl = zap.ErrorLevel
		setLogger = elastic.SetErrorLog
	default:
		return options, fmt.Errorf("unrecognized log-level: %q", logLevel)
	}

	esLogger := logger.WithOptions(
		zap.IncreaseLevel(lvl),
		zap.AddCallerSkip(2), // to ensure the right caller:lineno are logged
	)

	// Elastic client requires a "Printf"-able logger.
	options = append(options, setLogger(zapgrpc.NewLogger(esLogger)))
	return options, nil
}
