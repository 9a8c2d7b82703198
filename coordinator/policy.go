package coordinator

import "go.ambry.dev/ambry/protocol"

// Decision is the terminal status of an OperationPolicy as evaluated by
// IsComplete.
type Decision int

const (
	// Pending indicates neither success nor failure has yet been reached;
	// the Operation driver should continue dispatching and collecting.
	Pending Decision = iota
	// Succeeded indicates successTarget successful responses have been
	// observed.
	Succeeded
	// Failed indicates no replica remains to try and no request is
	// in flight, without reaching successTarget.
	Failed
)

// Policy decides which replica an Operation should try next, and whether
// the operation as a whole has succeeded, failed, or must continue. It's
// the seam the teacher's design notes call out explicitly: the same
// Operation skeleton serves Get, Put, and Delete by swapping the Policy
// (see SPEC_FULL.md §4.1). Only the Get policy is implemented here; Put
// (N-of-M write quorum) and Delete (at-least-one) are non-goals.
type Policy interface {
	// NextReplica returns the next replica to dispatch to, and true, or
	// false if the policy has exhausted its replica list.
	NextReplica() (protocol.ReplicaId, bool)
	// MayDispatch reports whether the driver may start another request:
	// true iff fewer than Parallelism() requests are in flight and a next
	// replica remains.
	MayDispatch() bool
	// OnDispatch must be called exactly once when a request is started
	// against the replica returned by NextReplica.
	OnDispatch()
	// OnSuccess must be called exactly once per completed request that
	// counts toward the success target.
	OnSuccess()
	// OnFailure must be called exactly once per completed request that
	// does not count toward the success target (a transport fault, or a
	// server error that the decision capability didn't resolve to success).
	OnFailure()
	// IsComplete evaluates the policy's current Decision.
	IsComplete() Decision
	// Parallelism returns the maximum number of concurrent in-flight
	// requests the policy permits.
	Parallelism() int
}

// GetPolicy is the Policy used by GetOperation and its variants. Replicas
// are tried local-datacenter-first, then remote; see SPEC_FULL.md §3.
type GetPolicy struct {
	local, remote []protocol.ReplicaId
	inFlight      int
	successes     int
	failures      int
	parallelism   int
	successTarget int
}

// NewGetPolicy returns a GetPolicy over partition's replicas, preferring
// localDC. parallelism and successTarget default to 2 and 1 respectively
// (the Get defaults from SPEC_FULL.md §6) when given as zero.
func NewGetPolicy(partition protocol.Partition, localDC protocol.DatacenterId, parallelism, successTarget int) *GetPolicy {
	if parallelism <= 0 {
		parallelism = 2
	}
	if successTarget <= 0 {
		successTarget = 1
	}
	var p = &GetPolicy{parallelism: parallelism, successTarget: successTarget}
	for _, r := range partition.Replicas {
		if r.Datacenter == localDC {
			p.local = append(p.local, r)
		} else {
			p.remote = append(p.remote, r)
		}
	}
	return p
}

// NextReplica implements Policy.
func (p *GetPolicy) NextReplica() (protocol.ReplicaId, bool) {
	if len(p.local) != 0 {
		var r = p.local[0]
		p.local = p.local[1:]
		return r, true
	}
	if len(p.remote) != 0 {
		var r = p.remote[0]
		p.remote = p.remote[1:]
		return r, true
	}
	return protocol.ReplicaId{}, false
}

func (p *GetPolicy) remaining() int { return len(p.local) + len(p.remote) }

// MayDispatch implements Policy.
func (p *GetPolicy) MayDispatch() bool {
	return p.inFlight < p.parallelism && p.remaining() > 0
}

// OnDispatch implements Policy.
func (p *GetPolicy) OnDispatch() { p.inFlight++ }

// OnSuccess implements Policy.
func (p *GetPolicy) OnSuccess() {
	p.inFlight--
	p.successes++
}

// OnFailure implements Policy.
func (p *GetPolicy) OnFailure() {
	p.inFlight--
	p.failures++
}

// IsComplete implements Policy.
func (p *GetPolicy) IsComplete() Decision {
	if p.successes >= p.successTarget {
		return Succeeded
	}
	if p.remaining() == 0 && p.inFlight == 0 {
		return Failed
	}
	return Pending
}

// Parallelism implements Policy.
func (p *GetPolicy) Parallelism() int { return p.parallelism }
