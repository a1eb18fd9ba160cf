package data

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolWrapper wraps a *pgxpool.Pool.
type PoolWrapper struct {
    Pool *pgxpool.Pool
}

// CreatePool creates a *pgxpool.Pool and assigns it to the wrapper's Pool
// field. maxConns and maxConnIdleTime override the pool defaults when they are
// positive.
func (pw *PoolWrapper) CreatePool(connString string, maxConns int, maxConnIdleTime time.Duration) error {
    cfg, err := pgxpool.ParseConfig(connString)
    if err != nil {
        return err
    }

    if maxConns > 0 {
        cfg.MaxConns = int32(maxConns)
    }
    if maxConnIdleTime > 0 {
        cfg.MaxConnIdleTime = maxConnIdleTime
    }

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    p, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil {
        return err
    }

    err = p.Ping(ctx)
    if err != nil {
        p.Close()
        return err
    }

    pw.Pool = p

    return nil
}
