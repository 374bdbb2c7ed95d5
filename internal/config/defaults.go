package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	ConflictPolicyWarn   = "warn"
	ConflictPolicyReject = "reject"

	CacheBackendMemory = "memory"
	CacheBackendFile   = "file"
	CacheBackendRedis  = "redis"
)

const (
	DefaultDictionaryPath  = "configs/mappings.yaml"
	DefaultConflictPolicy  = ConflictPolicyWarn
	DefaultLockTimeout     = 30 * time.Second
	DefaultMinFuzzyScore   = 0.86
	DefaultResolverTimeout = 5 * time.Second
	DefaultResolverWorkers = 8
	DefaultUserAgent       = "ontoground/1.0"
	DefaultCachePath       = ".cache/ontoground/lookups.json"
	DefaultCacheTTL        = 30 * 24 * time.Hour
	DefaultNegativeTTL     = 7 * 24 * time.Hour
	DefaultCacheKeyPrefix  = "ontoground:lookup:"
	DefaultRxNormBaseURL   = "https://rxnav.nlm.nih.gov/REST"
	DefaultRxNormMinScore  = 8.0
	DefaultSNOMEDBaseURL   = "https://tx.fhir.org/r4"
	DefaultSNOMEDValueSet  = "http://snomed.info/sct?fhir_vs"
	DefaultAuditLogPath    = "augmentation_audit.jsonl"
	DefaultLockTTL         = 2 * time.Minute

	DefaultServerAddr      = ":8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = 16 << 20

	DefaultRedisAddr        = "localhost:6379"
	DefaultNeo4jURI         = "bolt://localhost:7687"
	DefaultNeo4jBatchSize   = 500
	DefaultKafkaAuditTopic  = "ontoground.augmentation.audit"
	DefaultMinIORegion      = "us-east-1"
	DefaultMinIOPrefix      = "dictionary-backups/"
	DefaultMetricsNamespace = "ontoground"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultConditionContextKeywords is the keyword list the upstream validator
// uses to accept a condition implied by clinical context.
var DefaultConditionContextKeywords = []string{
	"patients with", "diagnosed with", "treatment of", "in adults with", "suffering from",
}

// ApplyDefaults fills zero-value fields in cfg. Explicit values always win.
// Booleans are defaulted through viper (see setViperDefaults) since a zero
// bool cannot be told apart from an explicit false here.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Dictionary / matching ────────────────────────────────────────────────
	if cfg.Dictionary.Path == "" {
		cfg.Dictionary.Path = DefaultDictionaryPath
	}
	if cfg.Dictionary.ConflictPolicy == "" {
		cfg.Dictionary.ConflictPolicy = DefaultConflictPolicy
	}
	if cfg.Dictionary.LockTimeout == 0 {
		cfg.Dictionary.LockTimeout = DefaultLockTimeout
	}
	if cfg.Matching.MinFuzzyScore == 0 {
		cfg.Matching.MinFuzzyScore = DefaultMinFuzzyScore
	}

	// ── Resolver ─────────────────────────────────────────────────────────────
	if cfg.Resolver.Timeout == 0 {
		cfg.Resolver.Timeout = DefaultResolverTimeout
	}
	if cfg.Resolver.Concurrency == 0 {
		cfg.Resolver.Concurrency = DefaultResolverWorkers
	}
	if cfg.Resolver.UserAgent == "" {
		cfg.Resolver.UserAgent = DefaultUserAgent
	}
	if cfg.Resolver.Cache.Backend == "" {
		cfg.Resolver.Cache.Backend = CacheBackendFile
	}
	if cfg.Resolver.Cache.Path == "" {
		cfg.Resolver.Cache.Path = DefaultCachePath
	}
	if cfg.Resolver.Cache.TTL == 0 {
		cfg.Resolver.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Resolver.Cache.NegativeTTL == 0 {
		cfg.Resolver.Cache.NegativeTTL = DefaultNegativeTTL
	}
	if cfg.Resolver.Cache.KeyPrefix == "" {
		cfg.Resolver.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Resolver.RxNorm.BaseURL == "" {
		cfg.Resolver.RxNorm.BaseURL = DefaultRxNormBaseURL
	}
	if cfg.Resolver.RxNorm.MinScore == 0 {
		cfg.Resolver.RxNorm.MinScore = DefaultRxNormMinScore
	}
	if cfg.Resolver.SNOMED.BaseURL == "" {
		cfg.Resolver.SNOMED.BaseURL = DefaultSNOMEDBaseURL
	}
	if cfg.Resolver.SNOMED.ValueSet == "" {
		cfg.Resolver.SNOMED.ValueSet = DefaultSNOMEDValueSet
	}

	// ── Augment / validation ─────────────────────────────────────────────────
	if cfg.Augment.AuditLogPath == "" {
		cfg.Augment.AuditLogPath = DefaultAuditLogPath
	}
	if cfg.Augment.LockTTL == 0 {
		cfg.Augment.LockTTL = DefaultLockTTL
	}
	if cfg.Validation.ConditionContextKeywords == nil {
		cfg.Validation.ConditionContextKeywords = append([]string(nil), DefaultConditionContextKeywords...)
	}

	// ── Server ───────────────────────────────────────────────────────────────
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// ── Infrastructure ───────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.BatchSize == 0 {
		cfg.Neo4j.BatchSize = DefaultNeo4jBatchSize
	}
	if cfg.Kafka.AuditTopic == "" {
		cfg.Kafka.AuditTopic = DefaultKafkaAuditTopic
	}
	if cfg.MinIO.Region == "" {
		cfg.MinIO.Region = DefaultMinIORegion
	}
	if cfg.MinIO.Prefix == "" {
		cfg.MinIO.Prefix = DefaultMinIOPrefix
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Log ──────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// setViperDefaults registers every key with viper so that ONTOGROUND_*
// environment variables are honoured by Unmarshal even without a file entry.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("dictionary.path", DefaultDictionaryPath)
	v.SetDefault("dictionary.conflict_policy", DefaultConflictPolicy)
	v.SetDefault("dictionary.backup_dir", "")
	v.SetDefault("dictionary.lock_timeout", DefaultLockTimeout)
	v.SetDefault("dictionary.watch", true)

	v.SetDefault("matching.min_fuzzy_score", DefaultMinFuzzyScore)
	v.SetDefault("matching.unicode_fold", false)

	v.SetDefault("resolver.enabled", false)
	v.SetDefault("resolver.timeout", DefaultResolverTimeout)
	v.SetDefault("resolver.concurrency", DefaultResolverWorkers)
	v.SetDefault("resolver.user_agent", DefaultUserAgent)
	v.SetDefault("resolver.cache.backend", CacheBackendFile)
	v.SetDefault("resolver.cache.path", DefaultCachePath)
	v.SetDefault("resolver.cache.ttl", DefaultCacheTTL)
	v.SetDefault("resolver.cache.negative_ttl", DefaultNegativeTTL)
	v.SetDefault("resolver.cache.key_prefix", DefaultCacheKeyPrefix)
	v.SetDefault("resolver.rxnorm.enabled", true)
	v.SetDefault("resolver.rxnorm.base_url", DefaultRxNormBaseURL)
	v.SetDefault("resolver.rxnorm.min_score", DefaultRxNormMinScore)
	v.SetDefault("resolver.snomed.enabled", true)
	v.SetDefault("resolver.snomed.base_url", DefaultSNOMEDBaseURL)
	v.SetDefault("resolver.snomed.value_set", DefaultSNOMEDValueSet)
	v.SetDefault("resolver.snomed.min_score", 0.0)

	v.SetDefault("augment.audit_log_path", DefaultAuditLogPath)
	v.SetDefault("augment.distributed_lock", false)
	v.SetDefault("augment.lock_ttl", DefaultLockTTL)

	v.SetDefault("validation.condition_context_keywords", DefaultConditionContextKeywords)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.max_body_bytes", DefaultMaxBodyBytes)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("neo4j.enabled", false)
	v.SetDefault("neo4j.uri", DefaultNeo4jURI)
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "")
	v.SetDefault("neo4j.batch_size", DefaultNeo4jBatchSize)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.audit_topic", DefaultKafkaAuditTopic)
	v.SetDefault("kafka.acks", "one")

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", true)
	v.SetDefault("minio.region", DefaultMinIORegion)
	v.SetDefault("minio.bucket", "")
	v.SetDefault("minio.prefix", DefaultMinIOPrefix)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

// Default returns a fully defaulted configuration, equivalent to LoadFromEnv
// with no ONTOGROUND_* variables set.
func Default() *Config {
	v := newViper()
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
