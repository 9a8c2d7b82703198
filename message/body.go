// Package message implements the Get-flavored body deserialization variants
// named by SPEC_FULL.md §4.5: GetBlob, GetBlobProperties, and
// GetUserMetadata. Each is handed a coordinator.Result positioned at a
// successful response and materializes the portion of it relevant to the
// caller, following the teacher's Framing interface (message/interfaces.go)
// as a model for a small, swappable decode capability rather than a single
// monolithic decoder.
package message

import (
	"io"
	"io/ioutil"

	"go.ambry.dev/ambry/protocol"
)

// Decoder materializes one Get-flavored view of a coordinator.Result. The
// three concrete Decoders (Blob, Properties, UserMetadata) differ only in
// which part of the result they read, exactly as SPEC_FULL.md §4.5
// describes for GetBlob/GetBlobProperties/GetUserMetadata.
type Decoder interface {
	// ContentType names the MIME type materialized values of this Decoder
	// should be served as over the HTTP ingress.
	ContentType() string
}

// BlobResult is returned by the Blob decoder. Body must be closed by the
// caller; closing it returns or destroys the underlying connection (see
// coordinator/client.Request.Do).
type BlobResult struct {
	Size int64
	Body io.ReadCloser
}

// BlobDecoder materializes the raw blob content stream. It does not buffer
// the payload: the returned Body streams directly from the replica
// connection so the HTTP ingress can relay it without holding the entire
// blob in memory.
type BlobDecoder struct{}

func (BlobDecoder) ContentType() string { return "application/octet-stream" }

// Decode returns a BlobResult sized from info and streaming body. It does no
// validation of its own; the exactly-one-message check (SPEC_FULL.md §4.5)
// is made earlier, by protocol.GetResponse.Validate in client.Request.Do.
func (BlobDecoder) Decode(info protocol.MessageInfo, body io.ReadCloser) (BlobResult, error) {
	return BlobResult{Size: info.Size, Body: body}, nil
}

// PropertiesDecoder materializes protocol.BlobProperties from the
// MessageInfo alone; it does not need the body stream at all, and Decode
// closes it itself to release the connection.
type PropertiesDecoder struct{}

func (PropertiesDecoder) ContentType() string { return "application/json" }

// Decode implements the GetBlobProperties variant: it never reads body,
// since properties are fully described by MessageInfo on this wire format.
func (PropertiesDecoder) Decode(info protocol.MessageInfo, body io.ReadCloser) (protocol.BlobProperties, error) {
	if body != nil {
		_ = body.Close()
	}
	return protocol.BlobProperties{
		BlobId:    info.BlobId,
		Size:      info.Size,
		ExpiresAt: info.ExpiresAt,
	}, nil
}

// UserMetadataDecoder materializes the user metadata bytes carried in the
// body stream. Unlike BlobDecoder, it fully buffers the body: user metadata
// is bounded in size by convention (a few KB of user-supplied key/value
// pairs), so buffering it is appropriate where streaming the full blob
// content would not be.
type UserMetadataDecoder struct{}

func (UserMetadataDecoder) ContentType() string { return "application/octet-stream" }

// Decode implements the GetUserMetadata variant, reading body to
// completion and closing it.
func (UserMetadataDecoder) Decode(_ protocol.MessageInfo, body io.ReadCloser) ([]byte, error) {
	defer body.Close()
	return ioutil.ReadAll(body)
}
