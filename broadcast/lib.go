package broadcast

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"maelstrom-node/internal/telemetry"
)

// Strategy selects how a node picks the neighbours it gossips to.
type Strategy string

const (
	// TopologyGiven uses the neighbours named in the topology message.
	TopologyGiven Strategy = "given"
	// TopologyTree ignores the topology message and arranges the cluster
	// as a binary tree in node_ids order.
	TopologyTree Strategy = "tree"
)

func ParseStrategy(s string) (Strategy, error) {
	switch strategy := Strategy(s); strategy {
	case TopologyGiven, TopologyTree:
		return strategy, nil
	default:
		return "", fmt.Errorf("unknown topology strategy %q", s)
	}
}

// BroadcastServer holds the set of values seen by this node and the
// neighbours new values are fanned out to. It is not safe for concurrent use.
type BroadcastServer struct {
	log        *zap.Logger
	strategy   Strategy
	messages   map[int]struct{}
	neighbours []string
}

func NewBroadcastServer(log *zap.Logger, strategy Strategy) *BroadcastServer {
	return &BroadcastServer{
		log:        log,
		strategy:   strategy,
		messages:   make(map[int]struct{}),
		neighbours: make([]string, 0),
	}
}

func (s *BroadcastServer) getMessages() []int {
	storedMessages := make([]int, 0, len(s.messages))
	for message := range s.messages {
		storedMessages = append(storedMessages, message)
	}
	slices.Sort(storedMessages)
	return storedMessages
}

func (s *BroadcastServer) Neighbours() []string {
	return slices.Clone(s.neighbours)
}

func (s *BroadcastServer) Read(msg *ReadMessage) *ReadMessageReply {
	return msg.Reply(s.getMessages())
}

// Broadcast records msg.Message and returns the neighbours it must be
// forwarded to. A value is forwarded only the first time it is seen, and
// never back to src or to self.
func (s *BroadcastServer) Broadcast(msg *BroadcastMessage, self, src string) (*BroadcastMessageReply, []string) {
	if _, found := s.messages[msg.Message]; found {
		telemetry.BroadcastDuplicates.Inc()
		s.log.Debug("message already present", zap.Int("message", msg.Message), zap.String("from", src))
		return msg.Reply(), nil
	}
	s.messages[msg.Message] = struct{}{}

	targets := make([]string, 0, len(s.neighbours))
	for _, node := range s.neighbours {
		if node == src || node == self {
			continue
		}
		targets = append(targets, node)
	}

	telemetry.GossipFanout.Add(float64(len(targets)))
	s.log.Debug("broadcasting message",
		zap.Int("message", msg.Message),
		zap.String("from", src),
		zap.Strings("to", targets))
	return msg.Reply(), targets
}

func (s *BroadcastServer) Topology(msg *TopologyMessage, self string, peers []string) *TopologyMessageReply {
	switch s.strategy {
	case TopologyTree:
		s.neighbours = treeNeighbours(self, peers)
	default:
		if neighbours, ok := s.givenNeighbours(msg, self, peers); ok {
			s.neighbours = neighbours
		} else {
			s.log.Warn("topology has no entry for this node, keeping neighbours", zap.Strings("neighbours", s.neighbours))
		}
	}

	s.log.Info("topology updated", zap.String("strategy", string(s.strategy)), zap.Strings("neighbours", s.neighbours))
	return msg.Reply()
}

// givenNeighbours returns topology[self] restricted to known peers.
func (s *BroadcastServer) givenNeighbours(msg *TopologyMessage, self string, peers []string) ([]string, bool) {
	listed, ok := msg.Topology[self]
	if !ok {
		return nil, false
	}

	neighbours := make([]string, 0, len(listed))
	for _, node := range listed {
		if len(peers) > 0 && !slices.Contains(peers, node) {
			s.log.Warn("dropping unknown neighbour", zap.String("neighbour", node))
			continue
		}
		neighbours = append(neighbours, node)
	}
	return neighbours, true
}

// treeNeighbours links each node to its parent and children in a binary
// tree laid over peers, so every node reaches every other in O(log N) hops.
func treeNeighbours(self string, peers []string) []string {
	index := slices.Index(peers, self)
	if index < 0 {
		return make([]string, 0)
	}

	neighbours := make([]string, 0, 3)
	if index > 0 {
		neighbours = append(neighbours, peers[(index-1)/2])
	}
	for _, child := range []int{2*index + 1, 2*index + 2} {
		if child < len(peers) {
			neighbours = append(neighbours, peers[child])
		}
	}
	return neighbours
}
