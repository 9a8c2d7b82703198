package cluster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.ambry.dev/ambry/protocol"
)

func TestStatic_PartitionLookup(t *testing.T) {
	var p1 = protocol.Partition{Id: "p1", Replicas: []protocol.ReplicaId{{Endpoint: "a:1", Datacenter: "dc1"}}}
	var m = NewStatic(p1)

	var got, err = m.Partition("p1")
	assert.NoError(t, err)
	assert.Equal(t, p1, got)
}

func TestStatic_UnknownPartition(t *testing.T) {
	var m = NewStatic()

	var _, err = m.Partition("missing")
	var unknown ErrUnknownPartition
	assert.True(t, errors.As(err, &unknown))
}

func TestStatic_Update(t *testing.T) {
	var p1 = protocol.Partition{Id: "p1", Replicas: []protocol.ReplicaId{{Endpoint: "a:1", Datacenter: "dc1"}}}
	var m = NewStatic(p1)

	var updated = protocol.Partition{
		Id: "p1",
		Replicas: []protocol.ReplicaId{
			{Endpoint: "a:1", Datacenter: "dc1"},
			{Endpoint: "b:1", Datacenter: "dc2"},
		},
	}
	m.Update(updated)

	var got, err = m.Partition("p1")
	assert.NoError(t, err)
	assert.Len(t, got.Replicas, 2)
}
