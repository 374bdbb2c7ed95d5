package cli

import (
	"context"
	"net/http"

	"github.com/turtacn/OntoGround/internal/application/augmentation"
	"github.com/turtacn/OntoGround/internal/application/normalization"
	"github.com/turtacn/OntoGround/internal/config"
	"github.com/turtacn/OntoGround/internal/domain/ontology"
	neo4jinfra "github.com/turtacn/OntoGround/internal/infrastructure/database/neo4j"
	redisinfra "github.com/turtacn/OntoGround/internal/infrastructure/database/redis"
	kafkainfra "github.com/turtacn/OntoGround/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/OntoGround/internal/infrastructure/storage/dictfile"
	minioinfra "github.com/turtacn/OntoGround/internal/infrastructure/storage/minio"
	"github.com/turtacn/OntoGround/internal/infrastructure/vocabulary"
	"github.com/turtacn/OntoGround/internal/intelligence/normalizer"
	"github.com/turtacn/OntoGround/internal/intelligence/resolver"
	"github.com/turtacn/OntoGround/internal/interfaces/http/handlers"
	"github.com/turtacn/OntoGround/pkg/errors"
)

// Engine is the set of components one command works with, built from the
// loaded configuration. Optional backends are only connected when enabled.
type Engine struct {
	Config        *config.Config
	Logger        logging.Logger
	Collector     prometheus.MetricsCollector
	Metrics       *prometheus.EngineMetrics
	Store         *dictfile.Store
	Holder        *normalization.Holder
	Normalization *normalization.Service

	redis   *redisinfra.Client
	checks  []handlers.HealthChecker
	closers []func() error
}

// NewEngine wires the dictionary store, the normalizer holder and the
// enabled infrastructure backends.
func NewEngine(cfg *config.Config, log logging.Logger) (*Engine, error) {
	log = logging.OrNop(log)
	e := &Engine{Config: cfg, Logger: log}

	if cfg.Metrics.Enabled {
		coll, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, log)
		if err != nil {
			return nil, err
		}
		e.Collector = coll
		e.Metrics = prometheus.NewEngineMetrics(coll)
	}

	if cfg.Redis.Enabled {
		client, err := redisinfra.NewClient(&redisinfra.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, log.Named("redis"))
		if err != nil {
			return nil, err
		}
		e.redis = client
		e.closers = append(e.closers, client.Close)
		e.checks = append(e.checks, healthCheck{name: "redis", fn: client.Ping})
	}

	opts := dictfile.Options{
		BackupDir:   cfg.Dictionary.BackupDir,
		LockTimeout: cfg.Dictionary.LockTimeout,
		LockTTL:     cfg.Augment.LockTTL,
		Logger:      log.Named("dictfile"),
	}
	if cfg.Augment.DistributedLock && e.redis != nil {
		opts.Locker = redisinfra.NewLocker(e.redis, log.Named("lock"))
	}
	if cfg.MinIO.Enabled {
		mirror, err := minioinfra.NewMinIOClient(&minioinfra.MinIOConfig{
			Endpoint:        cfg.MinIO.Endpoint,
			AccessKeyID:     cfg.MinIO.AccessKeyID,
			SecretAccessKey: cfg.MinIO.SecretAccessKey,
			UseSSL:          cfg.MinIO.UseSSL,
			Region:          cfg.MinIO.Region,
			Bucket:          cfg.MinIO.Bucket,
			Prefix:          cfg.MinIO.Prefix,
		}, log.Named("minio"))
		if err != nil {
			_ = e.Close()
			return nil, err
		}
		opts.Mirror = mirror
	}
	e.Store = dictfile.New(cfg.Dictionary.Path, opts)

	e.Holder = normalization.NewHolder(e.Store, MatchingOptions(cfg, log, e.Metrics), log)
	e.Normalization = normalization.NewService(e.Holder, log)
	return e, nil
}

// MatchingOptions derives the normalizer options from cfg.
func MatchingOptions(cfg *config.Config, log logging.Logger, metrics *prometheus.EngineMetrics) normalizer.Options {
	opts := normalizer.Options{
		MinFuzzyScore:  cfg.Matching.MinFuzzyScore,
		ConflictPolicy: normalizer.ConflictPolicy(cfg.Dictionary.ConflictPolicy),
		FoldUnicode:    cfg.Matching.UnicodeFold,
		Logger:         log,
	}
	if metrics != nil {
		opts.Recorder = metrics
	}
	return opts
}

func (e *Engine) surface() normalizer.SurfaceFunc {
	return normalizer.NewSurfaceFunc(e.Config.Matching.UnicodeFold)
}

// Resolver builds the external resolver, or returns nil when lookups are
// disabled. The caller owns the returned cache lifecycle through
// Resolver.Load and Resolver.Flush.
func (e *Engine) Resolver() (*resolver.Resolver, error) {
	rc := e.Config.Resolver
	if !rc.Enabled {
		return nil, nil
	}

	hc := &http.Client{Timeout: rc.Timeout}
	var vocabs []resolver.Vocabulary
	if rc.RxNorm.Enabled {
		v, err := vocabulary.NewRxNav(rc.RxNorm.BaseURL,
			vocabulary.WithHTTPClient(hc), vocabulary.WithUserAgent(rc.UserAgent),
			vocabulary.WithMinScore(rc.RxNorm.MinScore))
		if err != nil {
			return nil, err
		}
		vocabs = append(vocabs, v)
	}
	if rc.SNOMED.Enabled {
		v, err := vocabulary.NewFHIRTerminology(rc.SNOMED.BaseURL, rc.SNOMED.ValueSet,
			vocabulary.WithHTTPClient(hc), vocabulary.WithUserAgent(rc.UserAgent))
		if err != nil {
			return nil, err
		}
		vocabs = append(vocabs, v)
	}

	var cache ontology.LookupCache
	switch rc.Cache.Backend {
	case config.CacheBackendMemory:
		cache = resolver.NewMemoryCache(rc.Cache.TTL, rc.Cache.NegativeTTL)
	case config.CacheBackendRedis:
		cache = redisinfra.NewLookupCache(e.redis, e.Logger.Named("cache"),
			redisinfra.WithPrefix(rc.Cache.KeyPrefix),
			redisinfra.WithTTL(rc.Cache.TTL),
			redisinfra.WithNegativeTTL(rc.Cache.NegativeTTL))
	default:
		cache = resolver.NewFileCache(rc.Cache.Path, rc.Cache.TTL, rc.Cache.NegativeTTL)
	}

	var rec resolver.Recorder
	if e.Metrics != nil {
		rec = e.Metrics
	}
	return resolver.New(resolver.Config{
		Timeout:     rc.Timeout,
		Concurrency: rc.Concurrency,
		Surface:     e.surface(),
	}, vocabs, cache, e.Logger, rec), nil
}

// Augmenter builds the augmentation service with the JSONL audit log and,
// when enabled, the Kafka audit publisher.
func (e *Engine) Augmenter() (*augmentation.Service, error) {
	res, err := e.Resolver()
	if err != nil {
		return nil, err
	}

	sinks := []ontology.AuditSink{augmentation.NewFileAudit(e.Config.Augment.AuditLogPath)}
	if kc := e.Config.Kafka; kc.Enabled {
		producer, err := kafkainfra.NewProducer(kafkainfra.ProducerConfig{
			Brokers:      kc.Brokers,
			Acks:         kc.Acks,
			WriteTimeout: kc.WriteTimeout,
		}, e.Logger.Named("kafka"))
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, producer.Close)
		sinks = append(sinks, kafkainfra.NewAuditPublisher(producer, kc.AuditTopic))
	}

	opts := augmentation.Options{
		Repository: e.Store,
		Audit:      sinks,
		Surface:    e.surface(),
		Logger:     e.Logger,
	}
	if res != nil {
		opts.Resolver = res
	}
	if e.Metrics != nil {
		opts.Recorder = e.Metrics
	}
	return augmentation.NewService(opts)
}

// GraphSink connects to Neo4j and returns the fact sink.
func (e *Engine) GraphSink(ctx context.Context) (*neo4jinfra.GraphSink, error) {
	nc := e.Config.Neo4j
	if !nc.Enabled {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "graph sink requires neo4j.enabled")
	}
	driver, err := neo4jinfra.NewDriver(neo4jinfra.Neo4jConfig{
		URI:                          nc.URI,
		Username:                     nc.User,
		Password:                     nc.Password,
		Database:                     nc.Database,
		MaxConnectionPoolSize:        nc.MaxConnectionPoolSize,
		ConnectionAcquisitionTimeout: nc.ConnectionTimeout,
	}, e.Logger.Named("neo4j"))
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, driver.Close)
	e.checks = append(e.checks, healthCheck{name: "neo4j", fn: driver.HealthCheck})

	sink := neo4jinfra.NewGraphSink(driver, nc.BatchSize, e.Logger)
	if err := sink.EnsureConstraints(ctx); err != nil {
		return nil, err
	}
	return sink, nil
}

// HealthCheckers returns the readiness checks of connected backends.
func (e *Engine) HealthCheckers() []handlers.HealthChecker { return e.checks }

// Close releases every connected backend, newest first.
func (e *Engine) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}

type healthCheck struct {
	name string
	fn   func(context.Context) error
}

func (h healthCheck) Name() string                    { return h.name }
func (h healthCheck) Check(ctx context.Context) error { return h.fn(ctx) }

//Personal.AI order the ending
