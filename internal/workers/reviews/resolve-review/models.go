package resolvereview

const (
	ActionNext    = "next"
	ActionResolve = "resolve"
)

type Input struct {
	ActorID   int64  `json:"actorId"`
	ChatID    int64  `json:"chatId"`
	MessageID int    `json:"messageId,omitempty"`
	Action    string `json:"action"`
	ReviewID  string `json:"reviewId,omitempty"`
}

type Output struct {
	ReviewID string `json:"reviewId,omitempty"`
	Resolved bool   `json:"resolved"`
	Reason   string `json:"reason,omitempty"`
}
