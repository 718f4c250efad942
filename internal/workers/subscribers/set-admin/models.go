package setadmin

type Input struct {
	ActorID  int64 `json:"actorId"`
	ChatID   int64 `json:"chatId"`
	TargetID int64 `json:"targetId"`
	Enable   bool  `json:"enable"`
}

type Output struct {
	Changed bool   `json:"changed"`
	Reason  string `json:"reason,omitempty"`
}
