package model

// CrossLink is a directed link between entries in possibly different
// partitions. Outgoing and incoming discovery are two indexes over the
// same edge set.
type CrossLink struct {
	Source    GlobalEntryRef `json:"source"`
	Target    GlobalEntryRef `json:"target"`
	CreatedBy Identity       `json:"created_by"`
	CreatedAt Timestamp      `json:"created_at"`
}
