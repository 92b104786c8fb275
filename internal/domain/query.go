package domain

import "strings"

// Query is a validated, trimmed, non-empty search text.
// The zero value is not a valid query; use NewQuery.
type Query struct {
	text string
}

// NewQuery trims raw and returns ErrEmptyQuery when nothing is left.
func NewQuery(raw string) (Query, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Query{}, ErrEmptyQuery
	}
	return Query{text: text}, nil
}

// Text returns the trimmed query text.
func (q Query) Text() string { return q.text }

// String implements fmt.Stringer.
func (q Query) String() string { return q.text }
