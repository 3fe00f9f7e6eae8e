package uniqueidgeneration

type GenerateMessage struct{}

func (m *GenerateMessage) Type() string { return "generate" }

type GenerateMessageReply struct {
	Id uint64 `json:"id"`
}

func (m *GenerateMessageReply) Type() string { return "generate_ok" }

func (m *GenerateMessage) Reply(id uint64) *GenerateMessageReply {
	return &GenerateMessageReply{
		Id: id,
	}
}
