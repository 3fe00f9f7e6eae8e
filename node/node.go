// Package node is the protocol state machine of a single cluster member. It
// turns one inbound envelope into the ordered envelopes the node sends in
// response, and owns every piece of mutable node state.
package node

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"maelstrom-node/broadcast"
	"maelstrom-node/echo"
	"maelstrom-node/message"
	uniqueidgeneration "maelstrom-node/unique-id-generation"
)

type Node struct {
	// mu serialises Handle so that state transitions happen in a total order.
	mu sync.Mutex

	id    string
	peers []string

	seq       Sequencer
	ids       *uniqueidgeneration.UniqueIdServer
	broadcast *broadcast.BroadcastServer
	log       *zap.Logger
	strategy  broadcast.Strategy
}

type Option func(*Node)

func WithLogger(log *zap.Logger) Option {
	return func(n *Node) {
		n.log = log
	}
}

func WithTopology(strategy broadcast.Strategy) Option {
	return func(n *Node) {
		n.strategy = strategy
	}
}

func New(opts ...Option) *Node {
	n := &Node{
		log:      zap.NewNop(),
		strategy: broadcast.TopologyGiven,
		ids:      uniqueidgeneration.NewUniqueIdServer(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.broadcast = broadcast.NewBroadcastServer(n.log, n.strategy)
	return n
}

// ID returns the node id, empty until init has been handled.
func (n *Node) ID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.id
}

func (n *Node) Decode(line []byte) (message.Envelope, error) {
	return Payloads.Decode(line)
}

// Handle applies one inbound envelope and returns the envelopes to send, in
// order. Responses are accepted and produce nothing. On error no state
// changes and no message id is consumed.
func (n *Node) Handle(in message.Envelope) ([]message.Envelope, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	p := in.Body.Payload
	if p == nil {
		return nil, fmt.Errorf("%w: empty payload from %s", message.ErrDecoding, in.Src)
	}
	if _, ok := p.(*message.Unknown); ok {
		return nil, fmt.Errorf("%w: message type %q", message.ErrProtocol, p.Type())
	}
	if Payloads.IsResponse(p.Type()) {
		n.log.Debug("ignoring response", zap.String("type", p.Type()), zap.String("from", in.Src))
		return nil, nil
	}

	if msg, ok := p.(*message.InitMessage); ok {
		if err := n.init(msg); err != nil {
			return nil, err
		}
		return n.replyTo(in, msg.Reply()), nil
	}

	if n.id == "" {
		return nil, fmt.Errorf("%w: %s from %s before init", message.ErrPrecondition, p.Type(), in.Src)
	}

	switch msg := p.(type) {
	case *echo.EchoMessage:
		return n.replyTo(in, echo.HandleEcho(msg)), nil

	case *uniqueidgeneration.GenerateMessage:
		reply, err := n.ids.HandleMessage(msg)
		if err != nil {
			return nil, err
		}
		return n.replyTo(in, reply), nil

	case *broadcast.ReadMessage:
		return n.replyTo(in, n.broadcast.Read(msg)), nil

	case *broadcast.TopologyMessage:
		return n.replyTo(in, n.broadcast.Topology(msg, n.id, n.peers)), nil

	case *broadcast.BroadcastMessage:
		reply, targets := n.broadcast.Broadcast(msg, n.id, in.Src)
		out := n.replyTo(in, reply)
		for _, dest := range targets {
			out = append(out, message.New(n.id, dest, n.seq.Next(), &broadcast.BroadcastMessage{Message: msg.Message}))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %s is not a request", message.ErrProtocol, p.Type())
	}
}

func (n *Node) init(msg *message.InitMessage) error {
	if n.id != "" {
		if msg.NodeID != n.id {
			return fmt.Errorf("%w: already initialised as %s, init for %s", message.ErrPrecondition, n.id, msg.NodeID)
		}
		n.log.Info("repeated init")
		return nil
	}

	if err := n.ids.Init(msg.NodeID, len(msg.NodeIDs)); err != nil {
		return err
	}
	n.id = msg.NodeID
	n.peers = slices.Clone(msg.NodeIDs)
	n.log = n.log.With(zap.String("node", n.id))

	n.log.Info("node initialised", zap.Strings("peers", n.peers))
	return nil
}

func (n *Node) replyTo(in message.Envelope, p message.Payload) []message.Envelope {
	return []message.Envelope{message.NewReply(n.id, in, n.seq.Next(), p)}
}

// Reject builds an error reply for a request that Handle refused as
// unsupported. Other failures, and anything that is itself a reply, are
// never answered.
func (n *Node) Reject(in message.Envelope, err error) (message.Envelope, bool) {
	if !errors.Is(err, message.ErrProtocol) || in.Body.IsReply() || in.Src == "" {
		return message.Envelope{}, false
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	src := n.id
	if src == "" {
		src = in.Dest
	}
	return message.NewReply(src, in, n.seq.Next(), message.NewErrorMessage(err)), true
}
