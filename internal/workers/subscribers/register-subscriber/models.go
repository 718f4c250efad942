package registersubscriber

const (
	ActionStart  = "start"
	ActionUpdate = "update"
	ActionStep   = "step"
)

type Input struct {
	ActorID    int64  `json:"actorId"`
	ChatID     int64  `json:"chatId"`
	MessageID  int    `json:"messageId,omitempty"`
	Username   string `json:"username,omitempty"`
	Action     string `json:"action"`
	InputKind  string `json:"inputKind,omitempty"`
	InputValue string `json:"inputValue,omitempty"`
}

type Output struct {
	State    string `json:"state,omitempty"`
	Complete bool   `json:"complete"`
	Reason   string `json:"reason,omitempty"`
}
