// Package neo4j writes normalized facts into a Neo4j property graph. The
// driver wrapper hides neo4j-go-driver behind small interfaces so the graph
// sink can be exercised with a mocked transaction.
package neo4j

import (
	"context"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/pkg/errors"
)

const (
	defaultDatabase       = "neo4j"
	defaultPoolSize       = 50
	defaultAcquireTimeout = 60 * time.Second
	connectivityTimeout   = 10 * time.Second
	maxConnectionLifetime = time.Hour
)

// Neo4jConfig holds the graph sink connection parameters.
type Neo4jConfig struct {
	URI                          string
	Username                     string
	Password                     string
	Database                     string
	MaxConnectionPoolSize        int
	ConnectionAcquisitionTimeout time.Duration
}

func (c Neo4jConfig) database() string {
	if c.Database == "" {
		return defaultDatabase
	}
	return c.Database
}

// Result is the part of neo4j.ResultWithContext the sink reads.
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
	Consume(ctx context.Context) (neo4j.ResultSummary, error)
}

// Transaction runs Cypher inside a managed transaction.
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

type internalSession interface {
	ExecuteRead(ctx context.Context, work func(Transaction) (any, error)) (any, error)
	ExecuteWrite(ctx context.Context, work func(Transaction) (any, error)) (any, error)
	Close(ctx context.Context) error
}

type internalDriver interface {
	VerifyConnectivity(ctx context.Context) error
	NewSession(ctx context.Context, config neo4j.SessionConfig) internalSession
	Close(ctx context.Context) error
}

// boltTx adapts neo4j.ManagedTransaction; the driver's result type already
// satisfies Result.
type boltTx struct{ neo4j.ManagedTransaction }

func (t boltTx) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return t.ManagedTransaction.Run(ctx, cypher, params)
}

func adaptWork(work func(Transaction) (any, error)) neo4j.ManagedTransactionWork {
	return func(tx neo4j.ManagedTransaction) (any, error) { return work(boltTx{tx}) }
}

type boltSession struct{ s neo4j.SessionWithContext }

func (b boltSession) ExecuteRead(ctx context.Context, work func(Transaction) (any, error)) (any, error) {
	return b.s.ExecuteRead(ctx, adaptWork(work))
}

func (b boltSession) ExecuteWrite(ctx context.Context, work func(Transaction) (any, error)) (any, error) {
	return b.s.ExecuteWrite(ctx, adaptWork(work))
}

func (b boltSession) Close(ctx context.Context) error { return b.s.Close(ctx) }

type boltDriver struct{ d neo4j.DriverWithContext }

func (b boltDriver) VerifyConnectivity(ctx context.Context) error { return b.d.VerifyConnectivity(ctx) }
func (b boltDriver) Close(ctx context.Context) error              { return b.d.Close(ctx) }

func (b boltDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) internalSession {
	return boltSession{s: b.d.NewSession(ctx, config)}
}

// Driver owns the connection pool to one Neo4j database.
type Driver struct {
	driver internalDriver
	cfg    Neo4jConfig
	logger logging.Logger
	once   sync.Once
}

// NewDriver connects and verifies connectivity before returning.
func NewDriver(cfg Neo4jConfig, log logging.Logger) (*Driver, error) {
	log = logging.OrNop(log)
	d, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = defaultPoolSize
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		c.ConnectionAcquisitionTimeout = defaultAcquireTimeout
		if cfg.ConnectionAcquisitionTimeout > 0 {
			c.ConnectionAcquisitionTimeout = cfg.ConnectionAcquisitionTimeout
		}
		c.MaxConnectionLifetime = maxConnectionLifetime
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfiguration, "invalid neo4j settings").WithDetail(cfg.URI)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectivityTimeout)
	defer cancel()
	if err := d.VerifyConnectivity(ctx); err != nil {
		_ = d.Close(context.Background())
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j unreachable").WithDetail(cfg.URI)
	}

	log.Info("neo4j connected", logging.String("uri", cfg.URI), logging.String("database", cfg.database()))
	return &Driver{driver: boltDriver{d: d}, cfg: cfg, logger: log}, nil
}

func (d *Driver) execute(ctx context.Context, mode neo4j.AccessMode, work func(Transaction) (any, error)) (any, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.cfg.database(), AccessMode: mode})
	defer session.Close(ctx)

	run, op := session.ExecuteWrite, "write"
	if mode == neo4j.AccessModeRead {
		run, op = session.ExecuteRead, "read"
	}
	out, err := run(ctx, work)
	if err != nil {
		d.logger.Error("neo4j transaction failed", logging.String("mode", op), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j "+op+" failed")
	}
	return out, nil
}

// ExecuteWrite runs work in a retried write transaction.
func (d *Driver) ExecuteWrite(ctx context.Context, work func(Transaction) (interface{}, error)) (interface{}, error) {
	return d.execute(ctx, neo4j.AccessModeWrite, work)
}

// HealthCheck verifies connectivity and runs a trivial read.
func (d *Driver) HealthCheck(ctx context.Context) error {
	if err := d.driver.VerifyConnectivity(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j connectivity check failed")
	}
	_, err := d.execute(ctx, neo4j.AccessModeRead, func(tx Transaction) (interface{}, error) {
		res, err := tx.Run(ctx, "RETURN 1 AS health", nil)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			return res.Record().Values[0], nil
		}
		return nil, res.Err()
	})
	return err
}

// Close releases the pool. Later calls are no-ops.
func (d *Driver) Close() error {
	var err error
	d.once.Do(func() {
		if err = d.driver.Close(context.Background()); err != nil {
			d.logger.Warn("neo4j close failed", logging.Err(err))
			return
		}
		d.logger.Debug("neo4j driver closed")
	})
	return err
}

//Personal.AI order the ending
