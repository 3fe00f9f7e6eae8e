package echo

type EchoMessage struct {
	Echo string `json:"echo"`
}

func (m *EchoMessage) Type() string { return "echo" }

func (m *EchoMessage) RequiredFields() []string {
	return []string{"echo"}
}

type EchoMessageReply struct {
	Echo string `json:"echo"`
}

func (m *EchoMessageReply) Type() string { return "echo_ok" }

func (m *EchoMessage) Reply() *EchoMessageReply {
	return &EchoMessageReply{
		Echo: m.Echo,
	}
}

func HandleEcho(msg *EchoMessage) *EchoMessageReply {
	return msg.Reply()
}
