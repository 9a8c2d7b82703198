package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobId_RoundTripsThroughString(t *testing.T) {
	var id = NewBlobId("partition-7", [10]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	var decoded, err = ParseBlobId(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
	assert.Equal(t, PartitionId("partition-7"), decoded.PartitionId())
}

func TestBlobId_CompareIsTotalOrder(t *testing.T) {
	var a = NewBlobId("p1", [10]byte{0})
	var b = NewBlobId("p1", [10]byte{1})

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestParseBlobId_RejectsMalformedInput(t *testing.T) {
	var _, err = ParseBlobId("not-valid-base32!!")
	assert.Error(t, err)
}

func TestGetRequest_ValidateRequiresExactlyOneBlobId(t *testing.T) {
	var req = GetRequest{PartitionId: "p1"}
	assert.Error(t, req.Validate())

	req.BlobIds = []BlobId{NewBlobId("p1", [10]byte{})}
	assert.NoError(t, req.Validate())

	req.BlobIds = append(req.BlobIds, NewBlobId("p1", [10]byte{1}))
	assert.Error(t, req.Validate())
}

func TestGetResponse_ValidateRejectsMismatchedMessageCount(t *testing.T) {
	var resp = GetResponse{ServerErrorCode: NoError}
	assert.Error(t, resp.Validate())

	resp.MessageInfoList = []MessageInfo{{}}
	assert.NoError(t, resp.Validate())

	resp.ServerErrorCode = BlobNotFound
	resp.MessageInfoList = nil
	assert.NoError(t, resp.Validate())
}

func TestPartition_ReplicasIn(t *testing.T) {
	var p = Partition{
		Replicas: []ReplicaId{
			{Endpoint: "a:1", Datacenter: "dc1"},
			{Endpoint: "b:1", Datacenter: "dc2"},
			{Endpoint: "c:1", Datacenter: "dc1"},
		},
	}
	assert.Len(t, p.ReplicasIn("dc1"), 2)
	assert.Len(t, p.ReplicasIn("dc2"), 1)
	assert.Len(t, p.ReplicasIn("dc3"), 0)
}
