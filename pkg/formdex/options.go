package formdex

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs       []string
	username    string
	password    string
	db          int
	clientCache bool

	readinessTimeout time.Duration
	schemaCacheTTL   time.Duration
	defaultPageSize  int
	maxPageSize      int
	maxBatchSize     int
	concurrency      int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		clientCache:      true,
		readinessTimeout: 10 * time.Second,
	}
}

// WithAddr connects to a single Valkey or Redis node.
func WithAddr(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithCluster connects to a cluster through the given seed nodes.
func WithCluster(addrs []string, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = append([]string(nil), addrs...)
		c.password = password
	})
}

// WithACLUser authenticates as a named ACL user and selects a logical database.
func WithACLUser(username string, db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.db = db
	})
}

// WithoutClientCache disables server-assisted client-side caching of schemas.
// Needed for servers or proxies that do not support RESP3 tracking.
func WithoutClientCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.clientCache = false
	})
}

// WithReadinessTimeout bounds how long New waits for the database. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithSchemaCacheTTL sets how long a schema may be served from the local cache. Default: 30s.
func WithSchemaCacheTTL(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.schemaCacheTTL = d
	})
}

// WithPagination sets the default and maximum page sizes of record searches.
// Defaults: 20 and 100.
func WithPagination(defaultSize, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	})
}

// WithImportLimits sets the maximum items per import and how many are normalized concurrently.
// Defaults: 100 and 8.
func WithImportLimits(maxBatchSize, concurrency int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = maxBatchSize
		c.concurrency = concurrency
	})
}

// WithLogger enables structured logging for client operations and the intake pipeline.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
