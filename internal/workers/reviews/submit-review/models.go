package submitreview

type Input struct {
	ActorID int64  `json:"actorId"`
	ChatID  int64  `json:"chatId"`
	Text    string `json:"text"`
}

type Output struct {
	Accepted bool   `json:"accepted"`
	ReviewID string `json:"reviewId,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
