package message

import (
	"encoding/json"
	"fmt"
	"strconv"

	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
)

// Kind describes one payload kind a registry can decode.
type Kind struct {
	New      func() Payload
	Response bool
}

// Registry is the closed set of payload kinds, keyed by their "type" field.
type Registry map[string]Kind

type validator interface {
	Validate() error
}

// requirer lists body fields that must be present and non-null. Plain Go
// fields cannot tell a missing value from a zero one.
type requirer interface {
	RequiredFields() []string
}

type header struct {
	MsgID     *uint64 `json:"msg_id"`
	InReplyTo *uint64 `json:"in_reply_to"`
}

func (r Registry) IsResponse(typ string) bool {
	return r[typ].Response
}

// Decode parses one line of input into an envelope. Kinds missing from the
// registry decode to an Unknown payload so that the caller can still
// correlate a rejection with the request.
func (r Registry) Decode(line []byte) (Envelope, error) {
	var msg maelstrom.Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	if msg.Src == "" {
		return Envelope{}, errMissingField("src")
	}
	if msg.Dest == "" {
		return Envelope{}, errMissingField("dest")
	}
	if len(msg.Body) == 0 {
		return Envelope{}, errMissingField("body")
	}

	var h header
	if err := json.Unmarshal(msg.Body, &h); err != nil {
		return Envelope{}, fmt.Errorf("%w: body: %v", ErrDecoding, err)
	}

	typ := msg.Type()
	if typ == "" {
		return Envelope{}, errMissingField("type")
	}

	kind, ok := r[typ]
	if !ok {
		return envelope(msg, h, &Unknown{Kind: typ}), nil
	}
	if h.MsgID == nil && !kind.Response {
		return Envelope{}, errMissingField("msg_id")
	}

	p := kind.New()
	if req, ok := p.(requirer); ok {
		if err := requireFields(msg.Body, req.RequiredFields()); err != nil {
			return Envelope{}, err
		}
	}
	if err := json.Unmarshal(msg.Body, p); err != nil {
		return Envelope{}, fmt.Errorf("%w: %s: %v", ErrDecoding, typ, err)
	}
	if v, ok := p.(validator); ok {
		if err := v.Validate(); err != nil {
			return Envelope{}, err
		}
	}

	return envelope(msg, h, p), nil
}

func requireFields(body json.RawMessage, names []string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Errorf("%w: body: %v", ErrDecoding, err)
	}
	for _, name := range names {
		if raw, ok := fields[name]; !ok || string(raw) == "null" {
			return errMissingField(name)
		}
	}
	return nil
}

func envelope(msg maelstrom.Message, h header, p Payload) Envelope {
	body := Body{InReplyTo: h.InReplyTo, Payload: p}
	if h.MsgID != nil {
		body.MessageID = *h.MsgID
	}
	return Envelope{Src: msg.Src, Dest: msg.Dest, Body: body}
}

// Encode renders an envelope as a single line of JSON, without the newline.
// Payload fields are flattened into the body next to type, msg_id and
// in_reply_to.
func Encode(env Envelope) ([]byte, error) {
	if env.Body.Payload == nil {
		return nil, fmt.Errorf("encode %s->%s: nil payload", env.Src, env.Dest)
	}

	fields, err := json.Marshal(env.Body.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Body.Payload.Type(), err)
	}

	// Raw values keep large integers out of float64.
	body := make(map[string]json.RawMessage)
	if err := json.Unmarshal(fields, &body); err != nil {
		return nil, fmt.Errorf("encode %s: payload is not an object: %w", env.Body.Payload.Type(), err)
	}
	body["type"], _ = json.Marshal(env.Body.Payload.Type())
	body["msg_id"] = strconv.AppendUint(nil, env.Body.MessageID, 10)
	if env.Body.InReplyTo != nil {
		body["in_reply_to"] = strconv.AppendUint(nil, *env.Body.InReplyTo, 10)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(maelstrom.Message{Src: env.Src, Dest: env.Dest, Body: raw})
}
