package coordinator

import (
	"context"
	"io"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"go.ambry.dev/ambry/coordinator/client"
	"go.ambry.dev/ambry/protocol"
)

// nextOperationId allocates a process-wide id grouping an Operation's
// attempts in logs, distinct from client.Request's own per-attempt
// correlation id (SPEC_FULL.md §9): a retry against a different replica
// shares one operationId but gets its own correlation id.
var nextOperationId uint64

func newOperationId() uint64 { return atomic.AddUint64(&nextOperationId, 1) }

// decisionTag identifies the variant held by a ServerDecision. Using a
// tagged value rather than a Java-style checked exception lets the
// Operation driver switch on the outcome of OnServerError the same way the
// teacher's appendFSM switches on appendState, instead of unwinding a panic
// for ordinary control flow (SPEC_FULL.md §9).
type decisionTag int

const (
	continueTag decisionTag = iota
	succeedTag
	failTag
)

// ServerDecision is returned by a Decider's OnServerError to tell the
// Operation driver whether to keep trying other replicas, accept the
// current response as the operation's result, or abandon the operation
// with a specific terminal error.
type ServerDecision struct {
	tag decisionTag
	err error
}

// Continue asks the driver to retry another replica.
func Continue() ServerDecision { return ServerDecision{tag: continueTag} }

// Succeed asks the driver to accept the response that triggered this
// decision as the operation's result.
func Succeed() ServerDecision { return ServerDecision{tag: succeedTag} }

// Fail asks the driver to abandon the operation immediately with err.
func Fail(err error) ServerDecision { return ServerDecision{tag: failTag, err: err} }

// Decider is the per-operation-kind decision capability the Operation
// skeleton is parameterized by (SPEC_FULL.md §4.4, §9). Get, GetProperties,
// and GetUserMetadata are expressed as distinct Deciders rather than
// subclasses of an abstract Operation.
type Decider interface {
	// OnServerError is invoked once per response carrying a server code
	// other than NoError, IO_Error or Data_Corrupt. The driver handles
	// IO_Error and Data_Corrupt itself, like transport faults, by retrying
	// another replica; they never reach the Decider.
	OnServerError(replica protocol.ReplicaId, code protocol.ServerErrorCode) ServerDecision
}

// Result is the payload of a successfully completed Operation.
type Result struct {
	Replica     protocol.ReplicaId
	MessageInfo protocol.MessageInfo
	Payload     io.ReadCloser
}

// Operation is the generic, deadline-bounded fan-out/decide skeleton
// described in SPEC_FULL.md §4.4. It dispatches OperationRequests up to
// Policy.Parallelism(), drains a single aggregation channel in arrival
// order, and asks Decider to resolve each server-reported error, exactly as
// the teacher's appendFSM drives a fixed sequence of named states but here
// generalized to the fetch, rather than append, direction of the protocol.
type Operation struct {
	Policy   Policy
	Decider  Decider
	Pool     client.ConnectionPool
	ClientId string
	BlobId   protocol.BlobId
	Flags    protocol.GetFlags

	log *log.Entry
}

// Execute runs the operation to completion, bounded by ctx's deadline, and
// returns its Result or a coordinator.Err* sentinel (possibly wrapped).
func (op *Operation) Execute(ctx context.Context) (Result, error) {
	if op.log == nil {
		op.log = log.WithFields(log.Fields{
			"operation_id": newOperationId(),
			"blob_id":      op.BlobId.String(),
			"flags":        op.Flags.String(),
		})
	}

	var respCh = make(chan client.Response, op.Policy.Parallelism())

	for {
		for op.Policy.MayDispatch() {
			var replica, ok = op.Policy.NextReplica()
			if !ok {
				break
			}
			op.Policy.OnDispatch()
			op.dispatch(ctx, replica, respCh)
		}

		if op.Policy.IsComplete() == Failed {
			op.log.Debug("policy exhausted with no terminal decision; failing as unavailable")
			return Result{}, ErrUnavailable
		}

		select {
		case <-ctx.Done():
			op.log.WithError(ctx.Err()).Debug("operation deadline elapsed")
			return Result{}, ErrOperationTimedOut

		case resp := <-respCh:
			if result, err, done := op.process(resp); done {
				return result, err
			}
		}

		if op.Policy.IsComplete() == Failed {
			op.log.Debug("policy exhausted with no terminal decision; failing as unavailable")
			return Result{}, ErrUnavailable
		}
	}
}

// dispatch starts one OperationRequest against replica in its own
// goroutine, delivering its Response to respCh. The goroutine is not
// forcibly cancelled when the operation's context expires: Request.Do is
// itself ctx-aware at every suspension point, so it unwinds promptly on its
// own and its eventual delivery is simply dropped by the (by then returned)
// Execute, per SPEC_FULL.md §4.3 cancellation semantics.
func (op *Operation) dispatch(ctx context.Context, replica protocol.ReplicaId, respCh chan<- client.Response) {
	var req = &client.Request{
		Pool:     op.Pool,
		Replica:  replica,
		ClientId: op.ClientId,
		Flags:    op.Flags,
		BlobId:   op.BlobId,
	}
	go func() {
		var resp = req.Do(ctx)
		select {
		case respCh <- resp:
		case <-ctx.Done():
		}
	}()
}

// process applies one Response to the policy and, if it carries a server
// error, to the Decider. It returns (result, err, true) if the operation
// has reached a terminal decision, or (_, _, false) if the driver should
// continue its loop.
func (op *Operation) process(resp client.Response) (Result, error, bool) {
	var o = resp.Outcome

	if o.TransportErr != nil {
		op.Policy.OnFailure()
		op.log.WithField("replica", resp.Replica).WithError(o.TransportErr).Debug("transport fault; retrying another replica")
		return Result{}, nil, false
	}

	switch o.ServerErrorCode {
	case protocol.NoError:
		op.Policy.OnSuccess()
		return Result{Replica: resp.Replica, MessageInfo: o.MessageInfo, Payload: o.Payload}, nil, true

	case protocol.IOError, protocol.DataCorrupt:
		op.Policy.OnFailure()
		op.log.WithField("replica", resp.Replica).WithField("code", o.ServerErrorCode).Debug("transient server fault; retrying another replica")
		return Result{}, nil, false

	default:
		var decision = op.Decider.OnServerError(resp.Replica, o.ServerErrorCode)
		if decision.tag == succeedTag {
			op.Policy.OnSuccess()
		} else {
			op.Policy.OnFailure()
		}
		switch decision.tag {
		case succeedTag:
			// The Decider accepted a non-NoError response as terminal
			// success without a payload (not used by Get, but available to
			// future policies); there is none to return here.
			return Result{Replica: resp.Replica}, nil, true
		case failTag:
			op.log.WithField("replica", resp.Replica).WithField("code", o.ServerErrorCode).WithError(decision.err).Error("operation failed")
			return Result{}, decision.err, true
		default:
			return Result{}, nil, false
		}
	}
}
