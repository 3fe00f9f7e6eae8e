package broadcast

import (
	"errors"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"maelstrom-node/internal/telemetry"
	"maelstrom-node/message"
)

func TestRead(t *testing.T) {
	server := NewBroadcastServer(zaptest.NewLogger(t), TopologyGiven)
	server.messages[20] = struct{}{}
	server.messages[3] = struct{}{}
	readMessage := ReadMessage{}

	reply := server.Read(&readMessage)

	if reply.Type() != "read_ok" || !slices.Equal(reply.Messages, []int{3, 20}) {
		t.FailNow()
	}
}

func TestReadEmpty(t *testing.T) {
	server := NewBroadcastServer(zaptest.NewLogger(t), TopologyGiven)

	reply := server.Read(&ReadMessage{})

	if reply.Messages == nil || len(reply.Messages) != 0 {
		t.Fatalf("expected empty, non-nil messages but was %#v", reply.Messages)
	}
}

func TestBroadcastNewMessage(t *testing.T) {
	server := NewBroadcastServer(zaptest.NewLogger(t), TopologyGiven)
	server.neighbours = []string{"n2", "n3", "n1"}
	broadcastMessage := BroadcastMessage{Message: 1000}
	fanoutBefore := testutil.ToFloat64(telemetry.GossipFanout)

	broadcastReply, targets := server.Broadcast(&broadcastMessage, "n1", "c2")

	if broadcastReply.Type() != "broadcast_ok" {
		t.Fail()
	}

	if _, ok := server.messages[1000]; !ok {
		t.Fail()
	}

	if !slices.Equal(targets, []string{"n2", "n3"}) {
		t.Errorf("expected targets [n2 n3] but were %v", targets)
	}

	if fanout := testutil.ToFloat64(telemetry.GossipFanout) - fanoutBefore; fanout != 2 {
		t.Errorf("expected fan-out of 2 to be recorded but was %v", fanout)
	}
}

func TestBroadcastDuplicateMessage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	server := NewBroadcastServer(zap.New(core), TopologyGiven)
	server.neighbours = []string{"n2", "n3"}
	server.messages[1000] = struct{}{}
	broadcastMessage := BroadcastMessage{Message: 1000}
	duplicatesBefore := testutil.ToFloat64(telemetry.BroadcastDuplicates)

	broadcastReply, targets := server.Broadcast(&broadcastMessage, "n1", "n2")

	if broadcastReply.Type() != "broadcast_ok" {
		t.Fail()
	}

	if len(targets) != 0 {
		t.Errorf("duplicate forwarded to %v", targets)
	}

	if len(server.messages) != 1 {
		t.Errorf("expected one stored message but found %d", len(server.messages))
	}

	if logs.FilterMessage("message already present").Len() != 1 {
		t.Errorf("duplicate was not logged: %v", logs.All())
	}

	if duplicates := testutil.ToFloat64(telemetry.BroadcastDuplicates) - duplicatesBefore; duplicates != 1 {
		t.Errorf("expected one duplicate recorded but was %v", duplicates)
	}
}

func TestTopology(t *testing.T) {
	server := NewBroadcastServer(zaptest.NewLogger(t), TopologyGiven)
	topologyMessage := TopologyMessage{Topology: map[string][]string{"n1": {"n2", "n3"}, "": {"n1"}}}

	toplogyReply := server.Topology(&topologyMessage, "n1", []string{"n1", "n2", "n3"})

	if toplogyReply.Type() != "topology_ok" {
		t.FailNow()
	}

	if !slices.Equal(server.Neighbours(), []string{"n2", "n3"}) {
		t.Errorf("expected neighbours [n2 n3] but were %v", server.Neighbours())
	}
}

func TestTopologyDropsUnknownNodes(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	server := NewBroadcastServer(zap.New(core), TopologyGiven)
	topologyMessage := TopologyMessage{Topology: map[string][]string{"n1": {"n2", "n9", "n3"}}}

	server.Topology(&topologyMessage, "n1", []string{"n1", "n2", "n3"})

	if !slices.Equal(server.Neighbours(), []string{"n2", "n3"}) {
		t.Errorf("expected neighbours [n2 n3] but were %v", server.Neighbours())
	}
	if logs.FilterField(zap.String("neighbour", "n9")).Len() != 1 {
		t.Errorf("dropped neighbour was not logged: %v", logs.All())
	}
}

func TestTopologyMissingEntryKeepsNeighbours(t *testing.T) {
	server := NewBroadcastServer(zaptest.NewLogger(t), TopologyGiven)
	server.neighbours = []string{"n2"}

	server.Topology(&TopologyMessage{Topology: map[string][]string{"n3": {"n1"}}}, "n1", []string{"n1", "n2", "n3"})

	if !slices.Equal(server.Neighbours(), []string{"n2"}) {
		t.Errorf("expected neighbours [n2] but were %v", server.Neighbours())
	}
}

func TestTreeNeighbours(t *testing.T) {
	peers := []string{"n0", "n1", "n2", "n3", "n4", "n5"}
	expected := map[string][]string{
		"n0": {"n1", "n2"},
		"n1": {"n0", "n3", "n4"},
		"n2": {"n0", "n5"},
		"n3": {"n1"},
		"n5": {"n2"},
		"n9": {},
	}

	for self, neighbours := range expected {
		if got := treeNeighbours(self, peers); !slices.Equal(got, neighbours) {
			t.Errorf("%s: expected %v but was %v", self, neighbours, got)
		}
	}
}

func TestTreeStrategyIgnoresTopology(t *testing.T) {
	server := NewBroadcastServer(zaptest.NewLogger(t), TopologyTree)

	server.Topology(&TopologyMessage{Topology: map[string][]string{"n0": {"n3"}}}, "n0", []string{"n0", "n1", "n2", "n3"})

	if !slices.Equal(server.Neighbours(), []string{"n1", "n2"}) {
		t.Errorf("expected tree neighbours [n1 n2] but were %v", server.Neighbours())
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"given", "tree"} {
		if strategy, err := ParseStrategy(s); err != nil || string(strategy) != s {
			t.Errorf("%s: got %q, %v", s, strategy, err)
		}
	}
	if _, err := ParseStrategy("mesh"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestTopologyValidate(t *testing.T) {
	if err := (&TopologyMessage{}).Validate(); !errors.Is(err, message.ErrDecoding) {
		t.Errorf("expected decoding error but was %v", err)
	}
	if err := (&TopologyMessage{Topology: map[string][]string{}}).Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
