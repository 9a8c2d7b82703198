package client

import (
	"bufio"
	"context"
	"io"
	"sync/atomic"

	"go.ambry.dev/ambry/protocol"
)

// nextCorrelationId is a process-wide counter used to allocate a fresh
// correlation id per attempt (SPEC_FULL.md §9, resolving the source's
// ambiguity in favor of per-attempt ids distinguishable in replica logs).
var nextCorrelationId uint64

func newCorrelationId() uint64 { return atomic.AddUint64(&nextCorrelationId, 1) }

// Outcome is the classified result of one replica attempt.
type Outcome struct {
	// ServerErrorCode is populated whenever the replica sent a well-formed
	// response, including NoError.
	ServerErrorCode protocol.ServerErrorCode
	// MessageInfo is populated iff ServerErrorCode == protocol.NoError.
	MessageInfo protocol.MessageInfo
	// Payload streams the response body iff ServerErrorCode == protocol.NoError.
	// The caller must Close it to release the underlying Connection: Close
	// drains any unread bytes and checks the Connection back in, or
	// destroys it if a read failed. Reading to EOF alone releases nothing.
	Payload io.ReadCloser
	// TransportErr is non-nil for checkout timeouts, dial failures, socket
	// errors, or malformed frames -- faults the Operation driver retries
	// against another replica, never surfaces directly to the caller.
	TransportErr error
}

// Response is delivered by Request.Do: one outcome from one replica.
type Response struct {
	Replica protocol.ReplicaId
	Outcome Outcome
}

// Request performs one OperationRequest attempt against a single replica:
// checkout a connection, write the request, read and decode the response,
// and classify the result (SPEC_FULL.md §4.3).
type Request struct {
	Pool     ConnectionPool
	Replica  protocol.ReplicaId
	ClientId string
	Flags    protocol.GetFlags
	BlobId   protocol.BlobId
}

// Do executes the request attempt and returns its Response. Do never
// panics and never blocks past ctx's deadline: every suspension point
// (checkout, write, read) is ctx-aware.
func (req *Request) Do(ctx context.Context) Response {
	var resp = Response{Replica: req.Replica}

	var conn, err = req.Pool.Checkout(ctx, req.Replica)
	if err != nil {
		resp.Outcome.TransportErr = err
		return resp
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	var wire = protocol.GetRequest{
		CorrelationId: newCorrelationId(),
		ClientId:      req.ClientId,
		Flags:         req.Flags,
		PartitionId:   req.BlobId.PartitionId(),
		BlobIds:       []protocol.BlobId{req.BlobId},
	}
	if err := wire.Validate(); err != nil {
		req.Pool.Destroy(req.Replica, conn)
		resp.Outcome.TransportErr = err
		return resp
	}

	var bw = bufio.NewWriter(conn)
	if err := writeGetRequest(bw, &wire); err != nil {
		req.Pool.Destroy(req.Replica, conn)
		resp.Outcome.TransportErr = err
		return resp
	}

	var br = bufio.NewReader(conn)
	var getResp, payload, err2 = readGetResponse(br)
	if err2 != nil {
		req.Pool.Destroy(req.Replica, conn)
		resp.Outcome.TransportErr = err2
		return resp
	}
	if err := getResp.Validate(); err != nil {
		// A structural violation (eg, messageInfoList size != 1 on a
		// NoError response) is classified as Data_Corrupt: transient,
		// retryable on another replica (SPEC_FULL.md §7).
		req.Pool.Destroy(req.Replica, conn)
		resp.Outcome.ServerErrorCode = protocol.DataCorrupt
		return resp
	}

	resp.Outcome.ServerErrorCode = getResp.ServerErrorCode

	switch getResp.ServerErrorCode {
	case protocol.NoError:
		resp.Outcome.MessageInfo = getResp.MessageInfoList[0]
		resp.Outcome.Payload = newPayloadReader(conn, req.Pool, req.Replica, payload)
	default:
		// No payload follows a non-NoError response; the connection is
		// clean and may be reused.
		req.Pool.Checkin(req.Replica, conn)
	}
	return resp
}

// payloadReader adapts the remaining frame bytes of a successful response
// into an io.ReadCloser, returning the Connection to the pool (or
// destroying it on read error) when the caller closes it. This mirrors the
// teacher's FragmentReader, which likewise wraps a raw io.ReadCloser and
// ties its lifecycle to the bytes actually consumed
// (broker/client/reader.go).
type payloadReader struct {
	conn    Connection
	pool    ConnectionPool
	replica protocol.ReplicaId
	body    io.Reader
	failed  bool
	closed  bool
}

func newPayloadReader(conn Connection, pool ConnectionPool, replica protocol.ReplicaId, body io.Reader) *payloadReader {
	return &payloadReader{conn: conn, pool: pool, replica: replica, body: body}
}

func (p *payloadReader) Read(b []byte) (int, error) {
	var n, err = p.body.Read(b)
	if err != nil && err != io.EOF {
		p.failed = true
	}
	return n, err
}

func (p *payloadReader) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.failed {
		p.pool.Destroy(p.replica, p.conn)
	} else {
		// Drain any bytes the caller chose not to read, so the connection
		// can be safely reused for a future request.
		if _, err := io.Copy(io.Discard, p.body); err != nil {
			p.pool.Destroy(p.replica, p.conn)
			return nil
		}
		p.pool.Checkin(p.replica, p.conn)
	}
	return nil
}
