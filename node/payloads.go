package node

import (
	"maelstrom-node/broadcast"
	"maelstrom-node/echo"
	"maelstrom-node/message"
	uniqueidgeneration "maelstrom-node/unique-id-generation"
)

// Payloads is every message kind a node understands. Anything else decodes
// to message.Unknown and is rejected by Handle.
var Payloads = message.Registry{
	"init":    {New: func() message.Payload { return new(message.InitMessage) }},
	"init_ok": {New: func() message.Payload { return new(message.InitMessageReply) }, Response: true},
	"error":   {New: func() message.Payload { return new(message.ErrorMessage) }, Response: true},

	"echo":    {New: func() message.Payload { return new(echo.EchoMessage) }},
	"echo_ok": {New: func() message.Payload { return new(echo.EchoMessageReply) }, Response: true},

	"generate":    {New: func() message.Payload { return new(uniqueidgeneration.GenerateMessage) }},
	"generate_ok": {New: func() message.Payload { return new(uniqueidgeneration.GenerateMessageReply) }, Response: true},

	"broadcast":    {New: func() message.Payload { return new(broadcast.BroadcastMessage) }},
	"broadcast_ok": {New: func() message.Payload { return new(broadcast.BroadcastMessageReply) }, Response: true},
	"read":         {New: func() message.Payload { return new(broadcast.ReadMessage) }},
	"read_ok":      {New: func() message.Payload { return new(broadcast.ReadMessageReply) }, Response: true},
	"topology":     {New: func() message.Payload { return new(broadcast.TopologyMessage) }},
	"topology_ok":  {New: func() message.Payload { return new(broadcast.TopologyMessageReply) }, Response: true},
}
