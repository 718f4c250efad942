package fetchpostings

// Input overrides the configured search for one run. Zero values keep the
// configured query.
type Input struct {
	RunID      string `json:"runId,omitempty"`
	Text       string `json:"text,omitempty"`
	PeriodDays int    `json:"periodDays,omitempty"`
	MaxPages   int    `json:"maxPages,omitempty"`
}

type Output struct {
	RunID            string  `json:"runId,omitempty"`
	Found            int     `json:"found"`
	Ingested         int     `json:"ingested"`
	Duplicates       int     `json:"duplicates"`
	SkippedNoText    int     `json:"skippedNoDescription"`
	SkippedNoTags    int     `json:"skippedNoTags"`
	FetchFailed      int     `json:"fetchFailed"`
	UnsentPostingIDs []int64 `json:"unsentPostingIds"`
}
