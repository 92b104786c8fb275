package application

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-icdmatch/internal/domain"
)

func TestWriteAnswer_Format(t *testing.T) {
	answer := Answer{
		Query:  "fever",
		Source: domain.SourceLocal,
		Results: domain.RankedResults{
			{Candidate: domain.Candidate{Code: "R50.9", Title: "Fever, unspecified", Definition: "Elevated body temperature without clear cause."}, Score: 0.53219, Rank: 1},
			{Candidate: domain.Candidate{Code: "A00", Title: "Cholera"}, Score: 0, Rank: 2},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAnswer(&buf, answer))

	want := "\n" +
		"RESULTS (reference only):\n" +
		"1. [0.532] R50.9 — Fever, unspecified\n" +
		"    -> Elevated body temperature without clear cause.\n" +
		"2. [0.000] A00 — Cholera\n" +
		"\n" +
		"Note: these are lexical text matches, NOT a medical diagnosis.\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteAnswer_TruncatesDefinition(t *testing.T) {
	tests := []struct {
		name       string
		definition string
		want       string
	}{
		{
			name:       "exactly the limit is kept",
			definition: strings.Repeat("a", 200),
			want:       strings.Repeat("a", 200),
		},
		{
			name:       "one over the limit is cut",
			definition: strings.Repeat("b", 201),
			want:       strings.Repeat("b", 200) + "...",
		},
		{
			name:       "limit counts runes not bytes",
			definition: strings.Repeat("é", 250),
			want:       strings.Repeat("é", 200) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer := Answer{Results: domain.RankedResults{
				{Candidate: domain.Candidate{Code: "X", Title: "T", Definition: tt.definition}, Rank: 1},
			}}

			var buf bytes.Buffer
			require.NoError(t, WriteAnswer(&buf, answer))
			assert.Contains(t, buf.String(), "    -> "+tt.want+"\n")
		})
	}
}

func TestWriteNoResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNoResults(&buf))
	assert.Equal(t, "No relevant results found.\n", buf.String())
}

func TestWriteNotices(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteSourceNotice(&buf, false))
	require.NoError(t, WriteSourceNotice(&buf, true))
	require.NoError(t, WriteFallbackNotice(&buf, Answer{}))
	require.NoError(t, WriteFallbackNotice(&buf, Answer{FallbackReason: FallbackEmpty}))

	assert.Equal(t,
		LocalOnlyNotice+"\n"+
			RemoteNotice+"\n"+
			"Remote lookup unavailable (empty), using the local sample dataset.\n",
		buf.String())
}

type failingWriter struct{ writes int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.writes++
	return 0, errors.New("disk full")
}

func TestWriteAnswer_StopsAtFirstWriteError(t *testing.T) {
	w := &failingWriter{}
	answer := Answer{Results: domain.RankedResults{
		{Candidate: domain.Candidate{Code: "A", Title: "a"}, Rank: 1},
		{Candidate: domain.Candidate{Code: "B", Title: "b"}, Rank: 2},
	}}

	err := WriteAnswer(w, answer)
	require.Error(t, err)
	assert.Equal(t, 1, w.writes)
}
