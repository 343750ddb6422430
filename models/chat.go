package models

// ChatQueryRequest is a natural-language question against the caller's
// ingested documents.
type ChatQueryRequest struct {
	Query  string `json:"query" binding:"required,min=1,max=2000"`
	DealID string `json:"deal_id,omitempty"`
	TopK   int    `json:"top_k,omitempty"`
}

// EvidenceItem is a read-time projection of one retrieved chunk.
type EvidenceItem struct {
	Source         string  `json:"source"`
	Excerpt        string  `json:"excerpt"`
	Page           int     `json:"page"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ChatQueryResponse carries the answer with its supporting evidence.
// Confidence is one of "High", "Medium", "Low".
type ChatQueryResponse struct {
	Query      string         `json:"query"`
	Answer     string         `json:"answer"`
	Evidence   []EvidenceItem `json:"evidence"`
	Confidence string         `json:"confidence"`
}
