package matchsubscribers

type Input struct {
	PostingID int64 `json:"postingId"`
}

type Output struct {
	PostingID     int64   `json:"postingId"`
	SubscriberIDs []int64 `json:"subscriberIds"`
	Matched       int     `json:"matched"`
}
