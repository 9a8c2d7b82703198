package protocol

// GetFlags selects which portion of a blob's stored message the server
// should return. The request always carries exactly one flag.
type GetFlags int32

const (
	GetBlob GetFlags = iota
	GetBlobProperties
	GetUserMetadata
	GetAll
)

func (f GetFlags) String() string {
	switch f {
	case GetBlob:
		return "Blob"
	case GetBlobProperties:
		return "BlobProperties"
	case GetUserMetadata:
		return "BlobUserMetadata"
	case GetAll:
		return "All"
	default:
		return "Unknown"
	}
}

// ServerErrorCode is the status a replica server attaches to a GetResponse.
// It's the wire analogue of the coordinator's own Error taxonomy, but
// expressed from the replica's point of view: a single replica's report,
// not yet resolved against a quorum policy.
type ServerErrorCode int32

const (
	NoError ServerErrorCode = iota
	IOError
	DataCorrupt
	BlobNotFound
	BlobDeleted
	BlobExpired
)

func (c ServerErrorCode) String() string {
	switch c {
	case NoError:
		return "NoError"
	case IOError:
		return "IO_Error"
	case DataCorrupt:
		return "Data_Corrupt"
	case BlobNotFound:
		return "Blob_Not_Found"
	case BlobDeleted:
		return "Blob_Deleted"
	case BlobExpired:
		return "Blob_Expired"
	default:
		return "Unknown_Error"
	}
}

// GetRequest is the wire request for a Get-flavored operation. It always
// carries exactly one BlobId, in a list, for protocol uniformity with
// batch-capable servers.
type GetRequest struct {
	CorrelationId uint64
	ClientId      string
	Flags         GetFlags
	PartitionId   PartitionId
	BlobIds       []BlobId
}

// Validate checks structural invariants of a GetRequest prior to sending.
func (r *GetRequest) Validate() error {
	if len(r.BlobIds) != 1 {
		return NewValidationError("GetRequest must carry exactly one blob id (has %d)", len(r.BlobIds))
	}
	if r.PartitionId == "" {
		return NewValidationError("GetRequest missing partition id")
	}
	return nil
}

// MessageInfo describes one stored message within a GetResponse's payload.
// The coordinator requires exactly one MessageInfo per successful response,
// since requests are always single-blob.
type MessageInfo struct {
	BlobId    BlobId
	Size      int64
	ExpiresAt int64 // Unix seconds; zero means no expiry.
	Deleted   bool
}

// GetResponse is the wire response for a Get-flavored operation.
type GetResponse struct {
	CorrelationId   uint64
	ServerErrorCode ServerErrorCode
	MessageInfoList []MessageInfo
	// Payload is the raw message-format body. Its meaning depends on the
	// GetFlags of the originating request; see package message.
	Payload []byte
}

// Validate checks structural invariants of a GetResponse after decoding.
// A successful (NoError) response must carry exactly one MessageInfo, per
// the single-blob batch-of-one convention; a violation is reported as
// DataCorrupt so the coordinator treats it as transient and retries another
// replica rather than surfacing a permanent error.
func (r *GetResponse) Validate() error {
	if r.ServerErrorCode == NoError && len(r.MessageInfoList) != 1 {
		return NewValidationError(
			"GetResponse with NoError must carry exactly one MessageInfo (has %d)", len(r.MessageInfoList))
	}
	return nil
}

// BlobProperties is the subset of MessageInfo a GetBlobProperties operation
// materializes for its caller.
type BlobProperties struct {
	BlobId    BlobId
	Size      int64
	ExpiresAt int64
}
