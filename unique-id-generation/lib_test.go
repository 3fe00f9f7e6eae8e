package uniqueidgeneration

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"maelstrom-node/message"
)

func TestNodeIndex(t *testing.T) {
	indices := map[string]uint64{"n0": 0, "n3": 3, "n12": 12, "node7": 7, "42": 42}
	for nodeID, expected := range indices {
		index, err := NodeIndex(nodeID)
		if err != nil {
			t.Errorf("%s: %v", nodeID, err)
			continue
		}
		if index != expected {
			t.Errorf("%s: expected index %d but was %d", nodeID, expected, index)
		}
	}
}

func TestNodeIndexWithoutSuffix(t *testing.T) {
	for _, nodeID := range []string{"", "n", "node", "n3a"} {
		if _, err := NodeIndex(nodeID); !errors.Is(err, message.ErrDecoding) {
			t.Errorf("%q: expected decoding error but was %v", nodeID, err)
		}
	}
}

func TestUniqueId(t *testing.T) {
	server := NewUniqueIdServer()
	if err := server.Init("n3", 3); err != nil {
		t.Fatal(err)
	}

	for _, expected := range []uint64{3, 6, 9} {
		reply, err := server.HandleMessage(&GenerateMessage{})
		if err != nil {
			t.Fatal(err)
		}
		if reply.Type() != "generate_ok" || reply.Id != expected {
			t.Fatalf("expected generate_ok with id %d but was %+v", expected, reply)
		}
	}
}

func TestGenerateBeforeInit(t *testing.T) {
	server := NewUniqueIdServer()

	if _, err := server.GenerateUniqueId(); !errors.Is(err, message.ErrPrecondition) {
		t.Fatalf("expected precondition error but was %v", err)
	}
}

func TestGenerateWithEmptyCluster(t *testing.T) {
	server := NewUniqueIdServer()
	if err := server.Init("n5", 0); err != nil {
		t.Fatal(err)
	}

	uniqueId1, _ := server.GenerateUniqueId()
	uniqueId2, _ := server.GenerateUniqueId()
	if uniqueId1 != 5 || uniqueId2 != 6 {
		t.Fatalf("expected stride of 1 but generated %d, %d", uniqueId1, uniqueId2)
	}
}

func TestGenerateUniqueIdsAcrossCluster(t *testing.T) {
	const clusterSize = 5
	servers := make([]*UniqueIdServer, clusterSize)
	for i := range servers {
		servers[i] = NewUniqueIdServer()
		if err := servers[i].Init(fmt.Sprintf("n%d", i), clusterSize); err != nil {
			t.Fatal(err)
		}
	}

	rng := rand.New(rand.NewSource(42))
	seen := make(map[uint64]int)
	for i := 0; i < 10_000; i++ {
		node := rng.Intn(clusterSize)
		uniqueId, err := servers[node].GenerateUniqueId()
		if err != nil {
			t.Fatal(err)
		}
		if other, found := seen[uniqueId]; found {
			t.Fatalf("id %d generated by both n%d and n%d", uniqueId, other, node)
		}
		seen[uniqueId] = node
	}
}
