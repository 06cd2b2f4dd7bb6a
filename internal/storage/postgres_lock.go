package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLocker holds advisory locks on dedicated pool connections.
// Postgres advisory locks belong to the session that took them, so each
// held key pins its connection until it is released.
type PostgresLocker struct {
	pool *pgxpool.Pool

	mu    sync.Mutex
	conns map[int64]*pgxpool.Conn
}

func OpenPostgresLocker(ctx context.Context, dsn string) (*PostgresLocker, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresLocker{pool: pool, conns: make(map[int64]*pgxpool.Conn)}, nil
}

func (l *PostgresLocker) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.conns[key]; held {
		return false, nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Release()
		return false, err
	}
	if !ok {
		conn.Release()
		return false, nil
	}
	l.conns[key] = conn
	return true, nil
}

func (l *PostgresLocker) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	l.mu.Lock()
	conn, held := l.conns[key]
	delete(l.conns, key)
	l.mu.Unlock()
	if !held {
		return false, errors.New("advisory lock not held")
	}
	defer conn.Release()

	var ok bool
	err := conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
	return ok, err
}

func (l *PostgresLocker) Close() {
	l.mu.Lock()
	for key, conn := range l.conns {
		conn.Release()
		delete(l.conns, key)
	}
	l.mu.Unlock()
	l.pool.Close()
}
