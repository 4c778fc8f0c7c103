package models

// MatchedPart is an owned part that a candidate set also uses.
type MatchedPart struct {
	PartNum       string  `json:"part_num"`
	PartName      string  `json:"part_name"`
	ColorID       int     `json:"color_id"`
	OwnedQuantity int     `json:"owned_qty"`
	SetQuantity   int     `json:"set_qty"`
	ImageURL      *string `json:"part_img_url,omitempty"`
}

// CandidateSet is one catalog kit encountered while matching.
// Built per request in a map keyed by SetID and never persisted.
type CandidateSet struct {
	SetID                string        `json:"set_id"`
	Name                 string        `json:"name"`
	NumParts             int           `json:"num_parts"`
	SetImageURL          string        `json:"set_img_url,omitempty"`
	SetURL               string        `json:"set_url,omitempty"`
	Year                 int           `json:"year,omitempty"`
	MatchedParts         []MatchedPart `json:"matched_parts"`
	TotalMatchedQuantity int           `json:"total_matched_quantity"` // sum of min(owned, required)
}

// ScoredBuild is a CandidateSet with its ranking score.
type ScoredBuild struct {
	CandidateSet

	// MatchScore is the coverage score: min(1, owned total / kit size) * 100.
	MatchScore float64 `json:"match_score"`

	// OverlapScore is min(1, TotalMatchedQuantity / kit size) * 100.
	OverlapScore float64 `json:"overlap_score"`

	// OwnedQuantity is the total owned piece count the coverage score was computed from.
	OwnedQuantity int `json:"owned_quantity"`
}
