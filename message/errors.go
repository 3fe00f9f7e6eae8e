package message

import (
	"errors"
	"fmt"

	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
)

var (
	// ErrDecoding marks a record that cannot be parsed into a well-formed envelope.
	ErrDecoding = errors.New("malformed message")
	// ErrProtocol marks a well-formed payload the node does not accept as a request.
	ErrProtocol = errors.New("unsupported message")
	// ErrPrecondition marks a request that arrived before the node was initialised.
	ErrPrecondition = errors.New("precondition failed")
)

func errMissingField(name string) error {
	return fmt.Errorf("%w: missing field %q", ErrDecoding, name)
}

// Code maps an error to the Maelstrom RPC error code that describes it.
func Code(err error) int {
	switch {
	case errors.Is(err, ErrDecoding):
		return maelstrom.MalformedRequest
	case errors.Is(err, ErrProtocol):
		return maelstrom.NotSupported
	case errors.Is(err, ErrPrecondition):
		return maelstrom.PreconditionFailed
	}

	var rpcErr *maelstrom.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return maelstrom.Crash
}

// ErrorKind names the error kind, for logs and metric labels.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrDecoding):
		return "decoding"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	default:
		return "internal"
	}
}

func NewErrorMessage(err error) *ErrorMessage {
	rpcErr := maelstrom.NewRPCError(Code(err), err.Error())
	return &ErrorMessage{Code: rpcErr.Code, Text: rpcErr.Text}
}
