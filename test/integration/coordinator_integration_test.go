//go:build integration

// Package integration exercises the coordinator end-to-end over real TCP
// listeners rather than the in-process net.Pipe fakes the unit tests use,
// following the teacher's convention of gating slower, real-socket tests
// behind the "integration" build tag (test/integration/partition_test.go).
// The teacher's own integration tests drive real etcd/gazette/minio pods via
// urkel.FetchPods/urkel.NewFaultSet; that harness requires a live Kubernetes
// cluster this environment doesn't have, so this suite stands up its own
// minimal replica stand-ins as plain TCP listeners instead.
package integration

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ambry.dev/ambry/cluster"
	"go.ambry.dev/ambry/config"
	"go.ambry.dev/ambry/coordinator/client"
	"go.ambry.dev/ambry/ingress"
	"go.ambry.dev/ambry/internal/task"
	"go.ambry.dev/ambry/protocol"
)

// fakeReplica is a minimal TCP server speaking just enough of the wire
// protocol (coordinator/client/codec.go) to answer one scripted response per
// accepted connection.
type fakeReplica struct {
	ln      net.Listener
	respond func(net.Conn)
}

func startFakeReplica(t *testing.T, respond func(net.Conn)) protocol.ReplicaId {
	t.Helper()
	var ln, err = net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var r = &fakeReplica{ln: ln, respond: respond}
	go r.serve()

	return protocol.ReplicaId{Endpoint: ln.Addr().String(), Datacenter: "dc1"}
}

func (r *fakeReplica) serve() {
	for {
		var conn, err = r.ln.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			r.respond(conn)
		}()
	}
}

func writeNoErrorResponse(conn net.Conn, blobId protocol.BlobId, payload []byte) {
	var frameLen uint32
	if err := binary.Read(conn, binary.BigEndian, &frameLen); err != nil {
		return
	}
	_, _ = io.CopyN(io.Discard, conn, int64(frameLen))

	var header []byte
	header = binary.BigEndian.AppendUint64(header, 0)
	header = binary.BigEndian.AppendUint32(header, uint32(protocol.NoError))
	header = binary.BigEndian.AppendUint16(header, 1)
	var idBytes = blobId.Bytes()
	header = binary.BigEndian.AppendUint16(header, uint16(len(idBytes)))
	header = append(header, idBytes...)
	header = binary.BigEndian.AppendUint64(header, uint64(len(payload)))
	header = binary.BigEndian.AppendUint64(header, 0)
	header = append(header, 0)

	var full = append(header, payload...)
	_ = binary.Write(conn, binary.BigEndian, uint32(len(full)))
	_, _ = conn.Write(full)
}

// TestCoordinatorServesAcrossRealTCPReplicas stands up two fake replica
// listeners and an ingress server in front of a real TCPPool, confirming a
// GetBlob request round-trips over actual sockets end to end.
func TestCoordinatorServesAcrossRealTCPReplicas(t *testing.T) {
	var blobId = protocol.NewBlobId("partition-1", [10]byte{7})

	var r1 = startFakeReplica(t, func(conn net.Conn) { writeNoErrorResponse(conn, blobId, []byte("integration-ok")) })
	var r2 = startFakeReplica(t, func(conn net.Conn) { writeNoErrorResponse(conn, blobId, []byte("integration-ok")) })

	var partition = protocol.Partition{Id: "partition-1", Replicas: []protocol.ReplicaId{r1, r2}}
	var clusterMap = cluster.NewStatic(partition)
	var pool = client.NewTCPPool(4, time.Second)

	var srv = ingress.NewServer(
		config.ServerConfig{Port: 0, IdleTimeoutSeconds: 60, StartupWaitSeconds: 5},
		config.OperationConfig{GetParallelism: 2, GetSuccessTarget: 1},
		clusterMap, pool, "dc1", "integration-test",
	)

	var group = task.NewGroup(context.Background())
	require.NoError(t, srv.Serve(group))
	defer group.Cancel()

	// Serve binds its listener synchronously before returning; only
	// Accept/Shutdown run in the queued background goroutines.
	var addr, ok = srv.Addr()
	require.True(t, ok)

	var resp, err = http.Get("http://" + addr + "/blobs/" + blobId.String())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "integration-ok", string(body))
}
