// Package domain holds the core types of the code lookup pipeline:
// candidate records, ranked results, validated queries and sourcing outcomes.
// The package has no dependencies on infrastructure and performs no I/O.
package domain

import "strings"

// documentSeparator joins a candidate's title and definition when the
// ranking document is built.
const documentSeparator = ". "

// Candidate is a normalized reference entry such as an ICD code with its
// title and definition.
// Every field is a plain string. Sources that omit a field leave it empty;
// nested shapes from external services are flattened before a Candidate
// is constructed.
type Candidate struct {
	// Code is the classification code, for example "R50.9".
	Code string `json:"code" yaml:"code"`

	// Title is the short human-readable label in the configured language.
	Title string `json:"title" yaml:"title"`

	// Definition is an optional free-text description.
	Definition string `json:"definition" yaml:"definition"`
}

// Document returns the text used to rank the candidate: the title, a
// separator, then the definition. Each field is trimmed first, and a
// missing title yields the definition alone.
func (c Candidate) Document() string {
	var b strings.Builder
	if title := strings.TrimSpace(c.Title); title != "" {
		b.WriteString(title)
		b.WriteString(documentSeparator)
	}
	if def := strings.TrimSpace(c.Definition); def != "" {
		b.WriteString(def)
	}
	return strings.TrimSpace(b.String())
}

// IsBlank reports whether the candidate carries no information at all.
func (c Candidate) IsBlank() bool {
	return strings.TrimSpace(c.Code) == "" &&
		strings.TrimSpace(c.Title) == "" &&
		strings.TrimSpace(c.Definition) == ""
}

// MostlyBlank reports whether more than half of the candidates are blank.
// A remote response in that shape parsed, but its records did not match any
// known field names, so the pipeline treats it like an empty result.
func MostlyBlank(candidates []Candidate) bool {
	if len(candidates) == 0 {
		return false
	}
	blank := 0
	for _, c := range candidates {
		if c.IsBlank() {
			blank++
		}
	}
	return blank*2 > len(candidates)
}

// CloneCandidates returns a copy of the slice so callers can never alias a
// source's backing table.
func CloneCandidates(candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	return out
}
