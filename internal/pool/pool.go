package pool

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Pool is a fixed-size set of database connections shared across concurrent
// operations. All connections are opened eagerly at construction; the pool
// never grows, never shrinks, and never validates staleness. Each connection
// is exclusively owned by one caller between Acquire and Release.
type Pool struct {
	db     *sqlx.DB
	conns  chan *sqlx.Conn
	size   int
	logger *zap.Logger
	closed atomic.Bool
}

// New opens exactly size connections from db. If any connection fails to
// open, the ones already opened are closed and the error is returned; callers
// treat that as fatal at startup.
func New(ctx context.Context, db *sqlx.DB, size int, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}

	p := &Pool{
		db:     db,
		conns:  make(chan *sqlx.Conn, size),
		size:   size,
		logger: logger,
	}

	for i := 0; i < size; i++ {
		conn, err := db.Connx(ctx)
		if err != nil {
			p.ShutdownAll()
			return nil, fmt.Errorf("failed to open connection %d of %d: %w", i+1, size, err)
		}
		p.conns <- conn
	}

	return p, nil
}

// Size returns the configured pool size.
func (p *Pool) Size() int {
	return p.size
}

// Available returns the number of connections currently checked in.
func (p *Pool) Available() int {
	return len(p.conns)
}

// Acquire blocks until a connection is free or ctx is done. The returned
// connection must be handed back with Release on every path.
func (p *Pool) Acquire(ctx context.Context) (*sqlx.Conn, error) {
	if p.closed.Load() {
		return nil, fmt.Errorf("connection pool is shut down")
	}

	select {
	case conn := <-p.conns:
		return conn, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for database connection: %w", ctx.Err())
	}
}

// Release returns a connection to the pool. Releasing a nil connection, or
// releasing after shutdown, is a no-op apart from a logged warning.
func (p *Pool) Release(conn *sqlx.Conn) {
	if conn == nil {
		p.logger.Warn("attempted to release a nil connection")
		return
	}

	if p.closed.Load() {
		p.logger.Warn("connection released after pool shutdown, closing it")
		if err := conn.Close(); err != nil {
			p.logger.Warn("closing released connection", zap.Error(err))
		}
		return
	}

	p.conns <- conn
}

// WithConn acquires a connection, runs fn, and releases the connection on
// every exit path.
func (p *Pool) WithConn(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(conn)

	return fn(conn)
}

// ShutdownAll drains the pool and closes every connection, tolerating
// connections that are already closed. Connections still checked out are
// closed by Release when they come back.
func (p *Pool) ShutdownAll() {
	p.closed.Store(true)

	for {
		select {
		case conn := <-p.conns:
			if err := conn.Close(); err != nil {
				p.logger.Warn("closing pooled connection", zap.Error(err))
			}
		default:
			return
		}
	}
}
