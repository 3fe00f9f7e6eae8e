package uniqueidgeneration

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"maelstrom-node/message"
)

// UniqueIdServer hands out ids from the residue class of this node's index:
// index, index+N, index+2N, ... where N is the cluster size. Nodes with
// distinct indices never collide. It is not safe for concurrent use.
type UniqueIdServer struct {
	cursor uint64
	stride uint64
	ready  bool
}

func NewUniqueIdServer() *UniqueIdServer {
	return &UniqueIdServer{}
}

// NodeIndex returns the numeric suffix of a node id, "n3" -> 3.
func NodeIndex(nodeID string) (uint64, error) {
	digits := strings.TrimLeftFunc(nodeID, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if digits == "" {
		return 0, fmt.Errorf("%w: node id %q has no numeric suffix", message.ErrDecoding, nodeID)
	}

	index, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: node id %q: %v", message.ErrDecoding, nodeID, err)
	}
	return index, nil
}

func (s *UniqueIdServer) Init(nodeID string, clusterSize int) error {
	index, err := NodeIndex(nodeID)
	if err != nil {
		return err
	}

	s.cursor = index
	s.stride = uint64(max(clusterSize, 1))
	s.ready = true
	return nil
}

func (s *UniqueIdServer) GenerateUniqueId() (uint64, error) {
	if !s.ready {
		return 0, fmt.Errorf("%w: generate before init", message.ErrPrecondition)
	}

	id := s.cursor
	s.cursor += s.stride
	return id, nil
}

func (s *UniqueIdServer) HandleMessage(msg *GenerateMessage) (*GenerateMessageReply, error) {
	uniqueId, err := s.GenerateUniqueId()
	if err != nil {
		return nil, err
	}

	return msg.Reply(uniqueId), nil
}
