package distributeposting

type Input struct {
	PostingID int64 `json:"postingId"`
}

type Output struct {
	PostingID   int64 `json:"postingId"`
	Matched     int   `json:"matched"`
	Delivered   int   `json:"delivered"`
	Failed      int   `json:"failed"`
	AlreadySent bool  `json:"alreadySent"`
	InProgress  bool  `json:"inProgress"`
}
