package metadata

// Record is a single metadata item. Timestamps are epoch millis, matching
// what API consumers already store client-side.
type Record struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Checked   bool   `json:"checked"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

type RecordInput struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}
