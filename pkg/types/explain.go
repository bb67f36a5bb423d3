package types

// Improvement is a single suggested follow-up in an explanation.
type Improvement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Explanation is a natural-language narrative for a plan. It is either
// produced by the external narrative collaborator or assembled locally
// from templates; callers cannot tell the difference from the shape.
type Explanation struct {
	Summary         string        `json:"summary"`
	Steps           []string      `json:"steps"`
	Recommendations []string      `json:"recommendations"`
	Improvements    []Improvement `json:"improvements"`
}

// ExplainRequest carries everything the narrative generator needs to
// describe a plan in prose.
type ExplainRequest struct {
	Schedule Schedule `json:"schedule"`
	Mode     Mode     `json:"mode"`
	Savings  Savings  `json:"savings"`
}
