package domain

// SourceKind names where a set of candidates came from.
type SourceKind string

const (
	// SourceRemote marks candidates fetched from the remote lookup service.
	SourceRemote SourceKind = "remote"

	// SourceLocal marks candidates taken from the bundled local dataset.
	SourceLocal SourceKind = "local"
)

// Outcome is the result of asking a candidate source for candidates.
// Sources report failures through Err instead of returning an error, so a
// caller only has to decide whether the outcome is usable.
type Outcome struct {
	// Source identifies the source that produced this outcome.
	Source SourceKind

	// Candidates holds the normalized candidates. It is nil when Err is set.
	Candidates []Candidate

	// Err records why the source could not produce candidates.
	Err error
}

// Failed reports whether the source hit an error.
func (o Outcome) Failed() bool { return o.Err != nil }

// Empty reports whether the source produced no candidates.
func (o Outcome) Empty() bool { return len(o.Candidates) == 0 }

// Degenerate reports whether most candidates carry no data at all.
func (o Outcome) Degenerate() bool { return MostlyBlank(o.Candidates) }

// Usable reports whether the candidates can be ranked as-is.
func (o Outcome) Usable() bool { return !o.Failed() && !o.Empty() && !o.Degenerate() }

// Succeeded builds a successful outcome.
func Succeeded(source SourceKind, candidates []Candidate) Outcome {
	return Outcome{Source: source, Candidates: candidates}
}

// FailedWith builds a failed outcome.
func FailedWith(source SourceKind, err error) Outcome {
	return Outcome{Source: source, Err: err}
}
