package ingress

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ambry.dev/ambry/cluster"
	"go.ambry.dev/ambry/config"
	"go.ambry.dev/ambry/coordinator/client"
	"go.ambry.dev/ambry/protocol"
)

// fakePool scripts one response, shared by every replica, over net.Pipe, the same shape
// coordinator/get_test.go uses, kept package-local since both are test-only
// helpers with no production caller.
type fakePool struct {
	respond func(net.Conn)
}

func (p *fakePool) Checkout(context.Context, protocol.ReplicaId) (client.Connection, error) {
	var server, clientSide = net.Pipe()
	go func() {
		p.respond(server)
		_ = server.Close()
	}()
	return clientSide, nil
}

func (p *fakePool) Checkin(_ protocol.ReplicaId, conn client.Connection) { _ = conn.Close() }

func (p *fakePool) Destroy(_ protocol.ReplicaId, conn client.Connection) { _ = conn.Close() }

func writeResponseFrame(conn net.Conn, code protocol.ServerErrorCode, info *protocol.MessageInfo, payload []byte) {
	var frameLen uint32
	if err := binary.Read(conn, binary.BigEndian, &frameLen); err == nil {
		_, _ = io.CopyN(io.Discard, conn, int64(frameLen))
	}

	var header []byte
	header = binary.BigEndian.AppendUint64(header, 0)
	header = binary.BigEndian.AppendUint32(header, uint32(code))
	if info != nil {
		header = binary.BigEndian.AppendUint16(header, 1)
		var idBytes = info.BlobId.Bytes()
		header = binary.BigEndian.AppendUint16(header, uint16(len(idBytes)))
		header = append(header, idBytes...)
		header = binary.BigEndian.AppendUint64(header, uint64(info.Size))
		header = binary.BigEndian.AppendUint64(header, uint64(info.ExpiresAt))
		header = append(header, 0)
	} else {
		header = binary.BigEndian.AppendUint16(header, 0)
	}

	var full = append(header, payload...)
	_ = binary.Write(conn, binary.BigEndian, uint32(len(full)))
	_, _ = conn.Write(full)
}

func testServer(t *testing.T, pool client.ConnectionPool) (*httptest.Server, protocol.BlobId) {
	t.Helper()
	var partition = protocol.Partition{
		Id:       "p1",
		Replicas: []protocol.ReplicaId{{Endpoint: "irrelevant:0", Datacenter: "dc1"}},
	}
	var blobId = protocol.NewBlobId(partition.Id, [10]byte{1})
	var clusterMap = cluster.NewStatic(partition)

	var srv = NewServer(
		config.ServerConfig{IdleTimeoutSeconds: 60, StartupWaitSeconds: 5},
		config.OperationConfig{GetParallelism: 1, GetSuccessTarget: 1},
		clusterMap, pool, "dc1", "test-client",
	)
	return httptest.NewServer(srv.httpSrv.Handler), blobId
}

func TestHandleGetBlob_HappyPath(t *testing.T) {
	var info = protocol.MessageInfo{Size: 5}
	var pool = &fakePool{respond: func(conn net.Conn) {
		writeResponseFrame(conn, protocol.NoError, &info, []byte("hello"))
	}}

	var ts, blobId = testServer(t, pool)
	defer ts.Close()
	info.BlobId = blobId // respond closure reads info by reference, so this is visible once a request arrives

	var resp, err = http.Get(ts.URL + "/blobs/" + blobId.String())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "hello", string(body))
}

func TestHandleGetBlob_NotFoundMapsTo404(t *testing.T) {
	var pool = &fakePool{respond: func(conn net.Conn) {
		writeResponseFrame(conn, protocol.BlobNotFound, nil, nil)
	}}

	var ts, blobId = testServer(t, pool)
	defer ts.Close()

	var resp, err = http.Get(ts.URL + "/blobs/" + blobId.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleGetBlob_MalformedBlobIdIs400(t *testing.T) {
	var ts, _ = testServer(t, &fakePool{})
	defer ts.Close()

	var resp, err = http.Get(ts.URL + "/blobs/not-valid-base32!!")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleHealthz(t *testing.T) {
	var ts, _ = testServer(t, &fakePool{})
	defer ts.Close()

	var client = http.Client{Timeout: time.Second}
	var resp, err = client.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
