package coordinator

import (
	"context"

	"github.com/pkg/errors"

	"go.ambry.dev/ambry/coordinator/client"
	"go.ambry.dev/ambry/protocol"
)

// getDecider specializes Decider for the Get family of operations
// (GetBlob, GetBlobProperties, GetUserMetadata differ only in the
// protocol.GetFlags they request -- the decision thresholds below are
// identical across all three). It carries the per-operation counters
// described in SPEC_FULL.md §3 and §4.5.
type getDecider struct {
	replicaCount int

	notFoundCount int
	deletedCount  int
	expiredCount  int
}

// newGetDecider returns a Decider whose thresholds are scaled to
// replicaCount, per SPEC_FULL.md §4.5's min(threshold, replicaCount)
// handling of small partitions.
func newGetDecider(replicaCount int) *getDecider {
	return &getDecider{replicaCount: replicaCount}
}

// OnServerError implements Decider. Its thresholds are those of SPEC_FULL.md
// §4.5's table: unanimity for Not-Found, a single report for Deleted, two
// reports for Expired, anything else terminal immediately.
func (d *getDecider) OnServerError(_ protocol.ReplicaId, code protocol.ServerErrorCode) ServerDecision {
	switch code {
	case protocol.BlobNotFound:
		d.notFoundCount++
		if d.notFoundCount == d.replicaCount {
			return Fail(errors.Wrapf(ErrBlobDoesNotExist, "unanimous not-found across %d replicas", d.replicaCount))
		}
		return Continue()

	case protocol.BlobDeleted:
		d.deletedCount++
		if d.deletedCount >= min(1, d.replicaCount) {
			return Fail(errors.Wrapf(ErrBlobDeleted, "%d of %d replicas reported a tombstone", d.deletedCount, d.replicaCount))
		}
		return Continue()

	case protocol.BlobExpired:
		d.expiredCount++
		if d.expiredCount >= min(2, d.replicaCount) {
			return Fail(errors.Wrapf(ErrBlobExpired, "%d of %d replicas reported expiry", d.expiredCount, d.replicaCount))
		}
		return Continue()

	default:
		return Fail(errors.Wrapf(ErrUnexpectedInternal, "server reported code %s", code))
	}
}

// NewGetOperation builds an Operation that fetches flags-selected content
// for blobId from partition, via pool, bounded by parallelism/successTarget
// (both use the Get defaults of 2/1 when given as zero).
func NewGetOperation(
	partition protocol.Partition,
	localDC protocol.DatacenterId,
	blobId protocol.BlobId,
	flags protocol.GetFlags,
	clientId string,
	pool client.ConnectionPool,
	parallelism, successTarget int,
) *Operation {
	return &Operation{
		Policy:   NewGetPolicy(partition, localDC, parallelism, successTarget),
		Decider:  newGetDecider(len(partition.Replicas)),
		Pool:     pool,
		ClientId: clientId,
		BlobId:   blobId,
		Flags:    flags,
	}
}

// Get executes a GetBlob-flavored Operation and returns the payload stream
// on success. The caller must Close the returned ReadCloser.
func Get(ctx context.Context, op *Operation) (Result, error) {
	op.Flags = protocol.GetBlob
	return op.Execute(ctx)
}

// GetProperties executes a GetBlobProperties-flavored Operation.
func GetProperties(ctx context.Context, op *Operation) (Result, error) {
	op.Flags = protocol.GetBlobProperties
	var result, err = op.Execute(ctx)
	if err == nil && result.Payload != nil {
		_ = result.Payload.Close() // Properties are carried in MessageInfo; no body is needed.
	}
	return result, err
}

// GetUserMetadata executes a GetUserMetadata-flavored Operation.
func GetUserMetadata(ctx context.Context, op *Operation) (Result, error) {
	op.Flags = protocol.GetUserMetadata
	return op.Execute(ctx)
}
