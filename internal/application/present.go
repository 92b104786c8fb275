package application

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// Fixed user-facing text.
const (
	Banner          = "=== ICD-11 simple matcher (reference only) ==="
	Prompt          = "Describe the symptoms briefly: "
	NoInputMessage  = "No input provided. Exiting."
	NoResultsText   = "No relevant results found."
	ResultsHeader   = "RESULTS (reference only):"
	DisclaimerText  = "Note: these are lexical text matches, NOT a medical diagnosis."
	RemoteNotice    = "Querying the WHO ICD-API..."
	LocalOnlyNotice = "No ICD-API token configured, using the local sample dataset."
	FallbackNotice  = "Remote lookup unavailable (%s), using the local sample dataset."
)

// maxDefinitionRunes bounds the definition excerpt printed under a result.
const maxDefinitionRunes = 200

// WriteAnswer prints the numbered result list followed by the disclaimer.
// Results without a definition get no excerpt line.
func WriteAnswer(w io.Writer, a Answer) error {
	pw := &printer{w: w}

	pw.printf("\n%s\n", ResultsHeader)
	for i, r := range a.Results {
		pw.printf("%d. [%.3f] %s — %s\n", i+1, r.Score, r.Code, r.Title)
		if r.Definition != "" {
			pw.printf("    -> %s\n", excerpt(r.Definition, maxDefinitionRunes))
		}
	}
	pw.printf("\n%s\n", DisclaimerText)

	return pw.err
}

// WriteNoResults prints the message shown when ranking yields nothing.
func WriteNoResults(w io.Writer) error {
	_, err := fmt.Fprintln(w, NoResultsText)
	return err
}

// WriteSourceNotice announces which path a query is about to take.
func WriteSourceNotice(w io.Writer, hasRemote bool) error {
	msg := LocalOnlyNotice
	if hasRemote {
		msg = RemoteNotice
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}

// WriteFallbackNotice tells the user the remote result was not used.
// It prints nothing when the answer did not fall back.
func WriteFallbackNotice(w io.Writer, a Answer) error {
	if a.FallbackReason == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, FallbackNotice+"\n", a.FallbackReason)
	return err
}

// excerpt returns at most limit runes of s, with "..." appended when cut.
func excerpt(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

// printer remembers the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
