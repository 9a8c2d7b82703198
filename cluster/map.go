// Package cluster provides the ClusterMap contract: read-only lookup from a
// BlobId's partition to the ReplicaIds responsible for it. Cluster
// membership and partition topology are an external collaborator of the
// coordinator (see SPEC_FULL.md §1); this package specifies the contract and
// ships a static, in-memory implementation sufficient for tests and
// single-process deployments, following the teacher's pattern of a
// read-mostly topology guarded by a single RWMutex (topology.DatacenterContainer,
// allocator.State) rather than per-node locking.
package cluster

import (
	"fmt"
	"sync"

	"go.ambry.dev/ambry/protocol"
)

// Map resolves partitions to their replica sets. Implementations must be
// safe for concurrent use; a coordinator Operation reads a Map without any
// coordination of its own, trusting that membership is effectively immutable
// for the operation's lifetime.
type Map interface {
	// Partition returns the Partition owning id, or an error if id names no
	// known partition.
	Partition(id protocol.PartitionId) (protocol.Partition, error)
}

// ErrUnknownPartition is returned by Map.Partition for an unrecognized
// PartitionId.
type ErrUnknownPartition protocol.PartitionId

func (e ErrUnknownPartition) Error() string {
	return fmt.Sprintf("unknown partition %q", protocol.PartitionId(e))
}

// Static is a fixed, in-memory Map. It's the ClusterMap implementation used
// by coordinator tests and by small, single-process deployments that don't
// require dynamic rebalancing. A production deployment would instead back
// Map with a watched, distributed topology service (eg, etcd-backed, as the
// teacher's allocator.State is) -- that integration is explicitly a
// non-goal of this specification (see SPEC_FULL.md §1).
type Static struct {
	mu         sync.RWMutex
	partitions map[protocol.PartitionId]protocol.Partition
}

// NewStatic returns a Static Map seeded with partitions.
func NewStatic(partitions ...protocol.Partition) *Static {
	var m = &Static{partitions: make(map[protocol.PartitionId]protocol.Partition, len(partitions))}
	for _, p := range partitions {
		m.partitions[p.Id] = p
	}
	return m
}

// Partition implements Map.
func (m *Static) Partition(id protocol.PartitionId) (protocol.Partition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var p, ok = m.partitions[id]
	if !ok {
		return protocol.Partition{}, ErrUnknownPartition(id)
	}
	return p, nil
}

// Update replaces the Partition entry for p.Id. It exists so tests (and a
// future dynamic Map implementation) can evolve topology between or during
// operations without recreating the Static instance.
func (m *Static) Update(p protocol.Partition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partitions[p.Id] = p
}
