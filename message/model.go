package message

// Payload is the typed content of a message body. Which kinds a node
// understands is decided by the Registry it decodes with.
type Payload interface {
	Type() string
}

// Body carries a payload together with its correlation metadata.
// InReplyTo is set only on direct replies.
type Body struct {
	MessageID uint64
	InReplyTo *uint64
	Payload   Payload
}

func (b Body) IsReply() bool {
	return b.InReplyTo != nil
}

type Envelope struct {
	Src  string
	Dest string
	Body Body
}

// New builds a self-initiated envelope, one that answers nothing.
func New(src, dest string, msgID uint64, p Payload) Envelope {
	return Envelope{
		Src:  src,
		Dest: dest,
		Body: Body{MessageID: msgID, Payload: p},
	}
}

// NewReply builds the envelope answering req, sent from src back to req's sender.
func NewReply(src string, req Envelope, msgID uint64, p Payload) Envelope {
	inReplyTo := req.Body.MessageID
	return Envelope{
		Src:  src,
		Dest: req.Src,
		Body: Body{MessageID: msgID, InReplyTo: &inReplyTo, Payload: p},
	}
}

type InitMessage struct {
	NodeID  string   `json:"node_id"`
	NodeIDs []string `json:"node_ids"`
}

func (m *InitMessage) Type() string { return "init" }

func (m *InitMessage) RequiredFields() []string {
	return []string{"node_id", "node_ids"}
}

func (m *InitMessage) Validate() error {
	if m.NodeID == "" {
		return errMissingField("node_id")
	}
	return nil
}

func (m *InitMessage) Reply() *InitMessageReply {
	return &InitMessageReply{}
}

type InitMessageReply struct{}

func (m *InitMessageReply) Type() string { return "init_ok" }

// ErrorMessage is the Maelstrom error body. Nodes receive it as a response
// and may send it when asked to reject unsupported requests.
type ErrorMessage struct {
	Code int    `json:"code"`
	Text string `json:"text,omitempty"`
}

func (m *ErrorMessage) Type() string { return "error" }

// Unknown stands in for a payload whose kind is not in the registry. The
// header fields of its envelope are still valid.
type Unknown struct {
	Kind string `json:"-"`
}

func (m *Unknown) Type() string { return m.Kind }
