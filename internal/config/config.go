// Package config defines the configuration structures for OntoGround.  No I/O
// lives in this file, only plain data types and validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Engine sections
// ─────────────────────────────────────────────────────────────────────────────

// DictionaryConfig locates the concept dictionary and controls how it is
// indexed and mutated.
type DictionaryConfig struct {
	Path string `mapstructure:"path"`
	// ConflictPolicy decides what happens when two concepts of one category
	// normalize to the same key: "warn" keeps the first registration and
	// reports the collision, "reject" aborts index construction.
	ConflictPolicy string        `mapstructure:"conflict_policy"`
	BackupDir      string        `mapstructure:"backup_dir"`
	LockTimeout    time.Duration `mapstructure:"lock_timeout"`
	Watch          bool          `mapstructure:"watch"`
}

// MatchingConfig tunes the Matcher.
type MatchingConfig struct {
	MinFuzzyScore float64 `mapstructure:"min_fuzzy_score"`
	// UnicodeFold applies NFKC compatibility folding before surface
	// normalization. Off by default; enabling it changes the keys that
	// compatibility characters produce.
	UnicodeFold bool `mapstructure:"unicode_fold"`
}

// ResolverCacheConfig selects the lookup cache backend.
type ResolverCacheConfig struct {
	Backend     string        `mapstructure:"backend"` // memory | file | redis
	Path        string        `mapstructure:"path"`
	TTL         time.Duration `mapstructure:"ttl"`
	NegativeTTL time.Duration `mapstructure:"negative_ttl"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// VocabularyConfig configures one external reference vocabulary.
type VocabularyConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	BaseURL  string  `mapstructure:"base_url"`
	ValueSet string  `mapstructure:"value_set"`
	// MinScore is the lowest approximate-match score accepted. RxNorm only.
	MinScore float64 `mapstructure:"min_score"`
}

// ResolverConfig configures the external reference resolver.
type ResolverConfig struct {
	Enabled     bool                `mapstructure:"enabled"`
	Timeout     time.Duration       `mapstructure:"timeout"`
	Concurrency int                 `mapstructure:"concurrency"`
	UserAgent   string              `mapstructure:"user_agent"`
	Cache       ResolverCacheConfig `mapstructure:"cache"`
	RxNorm      VocabularyConfig    `mapstructure:"rxnorm"`
	SNOMED      VocabularyConfig    `mapstructure:"snomed"`
}

// AugmentConfig configures the mapping augmenter.
type AugmentConfig struct {
	AuditLogPath    string        `mapstructure:"audit_log_path"`
	DistributedLock bool          `mapstructure:"distributed_lock"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
}

// ValidationConfig carries settings owned by the upstream fact validator.
// The engine does not evaluate them; they live here so that the keyword list
// is configuration rather than code.
type ValidationConfig struct {
	ConditionContextKeywords []string `mapstructure:"condition_context_keywords"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Infrastructure sections
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP serve-mode tunables.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Neo4jConfig holds graph sink connection parameters.
type Neo4jConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	BatchSize             int           `mapstructure:"batch_size"`
}

// KafkaConfig holds the augmentation audit publisher parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	AuditTopic   string        `mapstructure:"audit_topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Acks         string        `mapstructure:"acks"`
}

// MinIOConfig holds the backup mirror parameters.
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Resolver   ResolverConfig   `mapstructure:"resolver"`
	Augment    AugmentConfig    `mapstructure:"augment"`
	Validation ValidationConfig `mapstructure:"validation"`
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

// Validate checks cross-field constraints. Call ApplyDefaults first.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dictionary.Path) == "" {
		return fmt.Errorf("config: dictionary.path is required")
	}
	switch c.Dictionary.ConflictPolicy {
	case ConflictPolicyWarn, ConflictPolicyReject:
	default:
		return fmt.Errorf("config: dictionary.conflict_policy %q is invalid; expected warn|reject", c.Dictionary.ConflictPolicy)
	}
	if c.Dictionary.LockTimeout <= 0 {
		return fmt.Errorf("config: dictionary.lock_timeout must be > 0")
	}

	if c.Matching.MinFuzzyScore <= 0 || c.Matching.MinFuzzyScore > 1 {
		return fmt.Errorf("config: matching.min_fuzzy_score %.3f is out of range (0, 1]", c.Matching.MinFuzzyScore)
	}

	if c.Resolver.Enabled {
		if c.Resolver.Timeout <= 0 {
			return fmt.Errorf("config: resolver.timeout must be > 0")
		}
		if c.Resolver.Concurrency < 1 {
			return fmt.Errorf("config: resolver.concurrency must be ≥ 1, got %d", c.Resolver.Concurrency)
		}
		if c.Resolver.RxNorm.MinScore < 0 {
			return fmt.Errorf("config: resolver.rxnorm.min_score must be >= 0, got %v", c.Resolver.RxNorm.MinScore)
		}
		if c.Resolver.RxNorm.Enabled && c.Resolver.RxNorm.BaseURL == "" {
			return fmt.Errorf("config: resolver.rxnorm.base_url is required when rxnorm is enabled")
		}
		if c.Resolver.SNOMED.Enabled && c.Resolver.SNOMED.BaseURL == "" {
			return fmt.Errorf("config: resolver.snomed.base_url is required when snomed is enabled")
		}
	}
	switch c.Resolver.Cache.Backend {
	case CacheBackendMemory, CacheBackendFile:
	case CacheBackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("config: resolver.cache.backend redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("config: resolver.cache.backend %q is invalid; expected memory|file|redis", c.Resolver.Cache.Backend)
	}
	if c.Resolver.Cache.Backend == CacheBackendFile && c.Resolver.Cache.Path == "" {
		return fmt.Errorf("config: resolver.cache.path is required for the file backend")
	}

	if c.Augment.DistributedLock && !c.Redis.Enabled {
		return fmt.Errorf("config: augment.distributed_lock requires redis.enabled")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}
	if c.Neo4j.Enabled && c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.AuditTopic == "" {
			return fmt.Errorf("config: kafka.audit_topic is required")
		}
	}
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.endpoint and minio.bucket are required")
		}
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	return nil
}

//Personal.AI order the ending
