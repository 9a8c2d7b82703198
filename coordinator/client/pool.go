// Package client implements the per-attempt transport concerns of a
// coordinator Operation: a ConnectionPool contract (plus a TCP-dialing
// implementation), the wire codec, and OperationRequest -- the unit of work
// that performs exactly one replica attempt and reports exactly one
// Response (SPEC_FULL.md §4.2, §4.3).
package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.ambry.dev/ambry/protocol"
)

// Connection is a transport to a single replica, checked out from a
// ConnectionPool for the duration of one OperationRequest.
type Connection interface {
	net.Conn
}

// ErrCheckoutTimeout is returned by ConnectionPool.Checkout when ctx expires
// before a connection becomes available.
var ErrCheckoutTimeout = errors.New("connection pool: checkout timed out")

// ErrUnreachable is returned by ConnectionPool.Checkout when the replica
// could not be dialed (eg, connection refused, DNS failure).
var ErrUnreachable = errors.New("connection pool: replica unreachable")

// ConnectionPool borrows and returns transports to replica endpoints. It's a
// process-wide, shared resource: the only cross-operation mutable state in
// the coordinator (SPEC_FULL.md §5). Fairness across concurrent operations
// is the pool's concern, not the Operation's.
type ConnectionPool interface {
	// Checkout borrows a Connection to replica, subject to ctx's deadline.
	Checkout(ctx context.Context, replica protocol.ReplicaId) (Connection, error)
	// Checkin returns a healthy Connection to the pool for reuse.
	Checkin(replica protocol.ReplicaId, conn Connection)
	// Destroy discards a Connection that errored in use; it must not be
	// reused or returned to the free list.
	Destroy(replica protocol.ReplicaId, conn Connection)
}

// TCPPool is a ConnectionPool backed by plain TCP dialing, with a bounded
// per-replica free list of idle connections. It is intentionally simple:
// fairness and saturation behavior belong to the pool, and a coordinator
// Operation must work correctly regardless of how sophisticated the pool
// implementation is (SPEC_FULL.md §4.2).
type TCPPool struct {
	maxIdlePerReplica int
	dialTimeout       time.Duration

	mu   sync.Mutex
	idle map[protocol.ReplicaId][]Connection
}

// NewTCPPool returns a TCPPool that keeps up to maxIdlePerReplica idle
// connections per replica, dialing new ones with dialTimeout as an upper
// bound (independent of, and no larger than, the per-checkout ctx deadline).
func NewTCPPool(maxIdlePerReplica int, dialTimeout time.Duration) *TCPPool {
	if maxIdlePerReplica <= 0 {
		maxIdlePerReplica = 4
	}
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	return &TCPPool{
		maxIdlePerReplica: maxIdlePerReplica,
		dialTimeout:       dialTimeout,
		idle:              make(map[protocol.ReplicaId][]Connection),
	}
}

// Checkout implements ConnectionPool.
func (p *TCPPool) Checkout(ctx context.Context, replica protocol.ReplicaId) (Connection, error) {
	if conn, ok := p.popIdle(replica); ok {
		return conn, nil
	}

	var dialer = net.Dialer{Timeout: p.dialTimeout}
	var conn, err = dialer.DialContext(ctx, "tcp", replica.Endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCheckoutTimeout
		}
		return nil, ErrUnreachable
	}
	return conn, nil
}

// Checkin implements ConnectionPool.
func (p *TCPPool) Checkin(replica protocol.ReplicaId, conn Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.idle[replica]) >= p.maxIdlePerReplica {
		_ = conn.Close()
		return
	}
	p.idle[replica] = append(p.idle[replica], conn)
}

// Destroy implements ConnectionPool.
func (p *TCPPool) Destroy(_ protocol.ReplicaId, conn Connection) {
	_ = conn.Close()
}

func (p *TCPPool) popIdle(replica protocol.ReplicaId) (Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var list = p.idle[replica]
	if len(list) == 0 {
		return nil, false
	}
	var conn = list[len(list)-1]
	p.idle[replica] = list[:len(list)-1]
	return conn, true
}
