package domain

// RankedResult is a candidate annotated with its similarity to the query.
// Results are derived values; nothing mutates them after ranking.
type RankedResult struct {
	Candidate

	// Score is the cosine similarity between query and candidate document.
	Score float64 `json:"score"`

	// Rank is the 1-based position of the result in its list.
	Rank int `json:"rank"`
}

// RankedResults is a slice of RankedResult with helper methods.
type RankedResults []RankedResult

// Codes returns just the candidate codes, in rank order.
func (r RankedResults) Codes() []string {
	codes := make([]string, len(r))
	for i, result := range r {
		codes[i] = result.Code
	}
	return codes
}

// Top returns the best result and true, or the zero value and false when
// the list is empty.
func (r RankedResults) Top() (RankedResult, bool) {
	if len(r) == 0 {
		return RankedResult{}, false
	}
	return r[0], true
}

// FilterByMinScore returns results with score >= minScore.
func (r RankedResults) FilterByMinScore(minScore float64) RankedResults {
	var filtered RankedResults
	for _, result := range r {
		if result.Score >= minScore {
			filtered = append(filtered, result)
		}
	}
	return filtered
}
