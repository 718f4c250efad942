package submitposting

type Input struct {
	ActorID int64  `json:"actorId"`
	ChatID  int64  `json:"chatId"`
	Text    string `json:"text"`
}

// Output reports a rejected submission through Accepted and Reason so the
// process does not need an error boundary for bad input.
type Output struct {
	Accepted  bool   `json:"accepted"`
	PostingID int64  `json:"postingId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
