package broadcast

import (
	"fmt"

	"maelstrom-node/message"
)

type ReadMessage struct{}

func (m *ReadMessage) Type() string { return "read" }

type ReadMessageReply struct {
	Messages []int `json:"messages"`
}

func (m *ReadMessageReply) Type() string { return "read_ok" }

func (m *ReadMessage) Reply(messages []int) *ReadMessageReply {
	return &ReadMessageReply{
		Messages: messages,
	}
}

type TopologyMessage struct {
	Topology map[string][]string `json:"topology"`
}

func (m *TopologyMessage) Type() string { return "topology" }

func (m *TopologyMessage) RequiredFields() []string {
	return []string{"topology"}
}

func (m *TopologyMessage) Validate() error {
	if m.Topology == nil {
		return fmt.Errorf("%w: missing field %q", message.ErrDecoding, "topology")
	}
	return nil
}

type TopologyMessageReply struct{}

func (m *TopologyMessageReply) Type() string { return "topology_ok" }

func (m *TopologyMessage) Reply() *TopologyMessageReply {
	return &TopologyMessageReply{}
}

type BroadcastMessage struct {
	Message int `json:"message"`
}

func (m *BroadcastMessage) Type() string { return "broadcast" }

func (m *BroadcastMessage) RequiredFields() []string {
	return []string{"message"}
}

type BroadcastMessageReply struct{}

func (m *BroadcastMessageReply) Type() string { return "broadcast_ok" }

func (m *BroadcastMessage) Reply() *BroadcastMessageReply {
	return &BroadcastMessageReply{}
}
