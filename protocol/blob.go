// Package protocol defines the wire-level data model shared by the
// coordinator and its replica servers: blob identifiers, partitions,
// replicas, and the Get request/response envelopes exchanged between them.
package protocol

import (
	"bytes"
	"encoding/base32"
	"fmt"
)

// BlobId is an opaque, totally ordered identifier of a stored blob. Its
// first bytes encode the PartitionId it belongs to, so a BlobId alone is
// sufficient to route a Get request to the correct Partition.
type BlobId struct {
	version     byte
	partitionId PartitionId
	suffix      [10]byte // Per-blob UUID-like suffix, unique within the partition.
}

// PartitionId names a Partition. It's carried both standalone (eg, in
// ClusterMap lookups) and embedded within a BlobId.
type PartitionId string

const blobIdVersion byte = 1

// NewBlobId constructs a BlobId addressed to partitionId, with the given
// per-blob suffix. The suffix is typically produced by the server at put
// time; the coordinator treats it as opaque.
func NewBlobId(partitionId PartitionId, suffix [10]byte) BlobId {
	return BlobId{version: blobIdVersion, partitionId: partitionId, suffix: suffix}
}

// PartitionId returns the Partition this BlobId is addressed to.
func (id BlobId) PartitionId() PartitionId { return id.partitionId }

// Bytes returns the canonical wire encoding of the BlobId.
func (id BlobId) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(id.version)
	buf.WriteByte(byte(len(id.partitionId)))
	buf.WriteString(string(id.partitionId))
	buf.Write(id.suffix[:])
	return buf.Bytes()
}

// String returns a base32-encoded textual form of the BlobId, suitable for
// use in URL paths and logs.
func (id BlobId) String() string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(id.Bytes())
}

// ParseBlobId decodes a BlobId previously produced by String.
func ParseBlobId(s string) (BlobId, error) {
	var raw, err = base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	if err != nil {
		return BlobId{}, fmt.Errorf("decoding blob id: %w", err)
	}
	return ParseBlobIdBytes(raw)
}

// ParseBlobIdBytes decodes a BlobId from its wire encoding, as returned by Bytes.
func ParseBlobIdBytes(raw []byte) (BlobId, error) {
	if len(raw) < 2 {
		return BlobId{}, fmt.Errorf("blob id too short (%d bytes)", len(raw))
	}
	var id BlobId
	id.version = raw[0]
	if id.version != blobIdVersion {
		return BlobId{}, fmt.Errorf("unsupported blob id version %d", id.version)
	}
	var n = int(raw[1])
	if len(raw) != 2+n+len(id.suffix) {
		return BlobId{}, fmt.Errorf("malformed blob id length (have %d, want %d)", len(raw), 2+n+len(id.suffix))
	}
	id.partitionId = PartitionId(raw[2 : 2+n])
	copy(id.suffix[:], raw[2+n:])
	return id, nil
}

// Compare returns -1, 0, or 1 as id orders before, equivalent to, or after
// other. BlobId is totally ordered on its wire encoding.
func (id BlobId) Compare(other BlobId) int {
	return bytes.Compare(id.Bytes(), other.Bytes())
}

// DatacenterId names a datacenter a ReplicaId is hosted within.
type DatacenterId string

// ReplicaId addresses a single replica server: its network endpoint and the
// datacenter it's hosted in. Two ReplicaIds are equal iff their Endpoint
// and Datacenter both match.
type ReplicaId struct {
	// Endpoint is a dialable "host:port" address of the replica.
	Endpoint string
	// Datacenter is the datacenter tag of the replica, used by OperationPolicy
	// to prefer local-DC replicas before falling back to remote ones.
	Datacenter DatacenterId
}

func (r ReplicaId) String() string { return string(r.Datacenter) + "/" + r.Endpoint }

// Partition is a logical group of ReplicaIds jointly responsible for the
// blob ids addressed to it. Partition membership is read-only for the
// duration of any single coordinator Operation.
type Partition struct {
	Id       PartitionId
	Replicas []ReplicaId
}

// ReplicasIn returns the subset of p.Replicas hosted in datacenter dc.
func (p Partition) ReplicasIn(dc DatacenterId) []ReplicaId {
	var out []ReplicaId
	for _, r := range p.Replicas {
		if r.Datacenter == dc {
			out = append(out, r)
		}
	}
	return out
}
