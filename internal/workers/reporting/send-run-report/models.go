package sendrunreport

// Distribution is the output of one distribute-posting job, collected by the
// multi-instance activity.
type Distribution struct {
	PostingID int64 `json:"postingId"`
	Matched   int   `json:"matched"`
	Delivered int   `json:"delivered"`
	Failed    int   `json:"failed"`
}

type Input struct {
	RunID         string         `json:"runId"`
	StartedAt     string         `json:"startedAt,omitempty"`
	Found         int            `json:"found"`
	Ingested      int            `json:"ingested"`
	Duplicates    int            `json:"duplicates"`
	SkippedNoText int            `json:"skippedNoDescription"`
	SkippedNoTags int            `json:"skippedNoTags"`
	FetchFailed   int            `json:"fetchFailed"`
	Distributions []Distribution `json:"distributions,omitempty"`
}

type Output struct {
	ReportID       string `json:"reportId"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	AlertMessageID string `json:"alertMessageId,omitempty"`
	Alerted        bool   `json:"alerted"`
}

// Summary is the report content before rendering.
type Summary struct {
	Input
	Delivered       int
	Failed          int
	SentPostings    int
	UnsentPostings  int
	SubscriberCount int
}
