package client

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"go.ambry.dev/ambry/protocol"
)

// This file implements the wire codec described in SPEC_FULL.md §6: a
// length-prefixed binary frame, read and written with encoding/binary. No
// generated-code RPC stack (protobuf/gRPC, as the teacher uses for its own
// journal protocol) is available in this environment -- there's no protoc
// toolchain to run -- so the frame format is hand-rolled here, directly off
// the "read a length-prefixed response; decode" language of the original
// specification, following the same writer/reader shape
// (bufio.Writer/bufio.Reader around a net.Conn) the teacher uses in its own
// Framing implementations (see message.Framing, message/json_framing.go).

// maxFrameSize bounds a single request or response frame, guarding against a
// corrupt length prefix causing an unbounded read.
const maxFrameSize = 64 << 20 // 64MiB

// writeGetRequest encodes req as a length-prefixed frame to w and flushes it.
func writeGetRequest(w *bufio.Writer, req *protocol.GetRequest) error {
	var body = encodeGetRequest(req)
	if err := binary.Write(w, binary.BigEndian, uint32(len(body))); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	return w.Flush()
}

func encodeGetRequest(req *protocol.GetRequest) []byte {
	var buf []byte
	buf = appendUint64(buf, req.CorrelationId)
	buf = appendString(buf, req.ClientId)
	buf = appendUint32(buf, uint32(req.Flags))
	buf = appendString(buf, string(req.PartitionId))
	buf = appendUint16(buf, uint16(len(req.BlobIds)))
	for _, id := range req.BlobIds {
		buf = appendBytes(buf, id.Bytes())
	}
	return buf
}

// readGetResponse reads one length-prefixed frame from r and decodes its
// header. The returned payload reader yields exactly the payload bytes of
// the frame (the remainder after the decoded header) and must be fully
// drained or the caller must close the underlying connection, since a
// partially-consumed TCP stream cannot be safely reused for a future
// request.
func readGetResponse(r *bufio.Reader) (*protocol.GetResponse, io.Reader, error) {
	var frameLen uint32
	if err := binary.Read(r, binary.BigEndian, &frameLen); err != nil {
		return nil, nil, err
	}
	if frameLen > maxFrameSize {
		return nil, nil, fmt.Errorf("frame length %d exceeds maximum %d", frameLen, maxFrameSize)
	}

	var lr = &io.LimitedReader{R: r, N: int64(frameLen)}
	var resp, err = decodeGetResponseHeader(lr)
	if err != nil {
		return nil, nil, err
	}
	// Whatever remains of the frame (lr.N bytes) is the payload.
	return resp, lr, nil
}

func decodeGetResponseHeader(r io.Reader) (*protocol.GetResponse, error) {
	var resp = new(protocol.GetResponse)
	var err error

	if resp.CorrelationId, err = readUint64(r); err != nil {
		return nil, err
	}
	var code uint32
	if code, err = readUint32(r); err != nil {
		return nil, err
	}
	resp.ServerErrorCode = protocol.ServerErrorCode(code)

	var n uint16
	if n, err = readUint16(r); err != nil {
		return nil, err
	}
	resp.MessageInfoList = make([]protocol.MessageInfo, n)
	for i := range resp.MessageInfoList {
		var idBytes []byte
		if idBytes, err = readBytes(r); err != nil {
			return nil, err
		}
		var id protocol.BlobId
		if id, err = protocol.ParseBlobIdBytes(idBytes); err != nil {
			return nil, err
		}
		var size, expires uint64
		if size, err = readUint64(r); err != nil {
			return nil, err
		}
		if expires, err = readUint64(r); err != nil {
			return nil, err
		}
		var deleted byte
		if deleted, err = readByte(r); err != nil {
			return nil, err
		}
		resp.MessageInfoList[i] = protocol.MessageInfo{
			BlobId:    id,
			Size:      int64(size),
			ExpiresAt: int64(expires),
			Deleted:   deleted != 0,
		}
	}
	return resp, nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendString(buf []byte, s string) []byte { return appendBytes(buf, []byte(s)) }

func appendBytes(buf []byte, b []byte) []byte {
	buf = appendUint16(buf, uint16(len(b)))
	return append(buf, b...)
}

func readUint64(r io.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(tmp[:]), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func readUint16(r io.Reader) (uint16, error) {
	var tmp [2]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(tmp[:]), nil
}

func readByte(r io.Reader) (byte, error) {
	var tmp [1]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return tmp[0], nil
}

func readBytes(r io.Reader) ([]byte, error) {
	var n, err = readUint16(r)
	if err != nil {
		return nil, err
	}
	var buf = make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
