package coordinator

import "errors"

// Sentinel errors comprising the coordinator's error taxonomy (SPEC_FULL.md
// §7). Callers should compare against these with errors.Is; internal
// plumbing wraps them with github.com/pkg/errors to attach context (replica,
// partition, blob id) without losing the sentinel identity.
var (
	// ErrBlobDoesNotExist is a quorum-negative result: every replica in the
	// partition reported Blob_Not_Found. Callers may treat this as a 404.
	ErrBlobDoesNotExist = errors.New("blob does not exist")
	// ErrBlobDeleted is a terminal result: a replica reported a delete
	// tombstone for the blob.
	ErrBlobDeleted = errors.New("blob has been deleted")
	// ErrBlobExpired is a terminal result: enough replicas agree the blob's
	// TTL has passed.
	ErrBlobExpired = errors.New("blob has expired")
	// ErrUnavailable indicates every replica was tried and none could be
	// reached, or all reported transient faults.
	ErrUnavailable = errors.New("ambry unavailable: no replica could serve the request")
	// ErrOperationTimedOut indicates the operation's deadline elapsed before
	// a terminal decision was reached.
	ErrOperationTimedOut = errors.New("operation timed out")
	// ErrUnexpectedInternal indicates a protocol violation or an unknown
	// server error code was observed.
	ErrUnexpectedInternal = errors.New("unexpected internal error")
)
