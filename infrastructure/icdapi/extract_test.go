package icdapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-icdmatch/internal/ports"
)

func TestExtractRecords(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCodes []string
	}{
		{"destination entities", `{"destinationEntities":[{"id":"a"},{"id":"b"}]}`, []string{"a", "b"}},
		{"results key", `{"results":[{"id":"r"}]}`, []string{"r"}},
		{"primary order wins", `{"items":[{"id":"i"}],"destination":[{"id":"d"}]}`, []string{"d"}},
		{"primary key with non-array value is skipped", `{"results":"none","entities":[{"id":"e"}]}`, []string{"e"}},
		{"empty primary array is taken", `{"collection":[],"result":[{"id":"x"}]}`, nil},
		{"fallback result key", `{"result":[{"id":"f"}]}`, []string{"f"}},
		{"fallback skips empty arrays", `{"result":[],"hits":[{"id":"h"}]}`, []string{"h"}},
		{"bare array", `[{"id":"z"}]`, []string{"z"}},
		{"no container", `{"error":false}`, nil},
		{"scalar body", `42`, nil},
	}

	n := NewNormalizer("en")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ExtractRecords([]byte(tt.body))
			require.NoError(t, err)

			var codes []string
			for _, c := range n.NormalizeAll(records, 0) {
				codes = append(codes, c.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}

func TestExtractRecords_InvalidJSON(t *testing.T) {
	for _, body := range []string{``, `{"results":[`, `not json`} {
		_, err := ExtractRecords([]byte(body))
		require.Error(t, err, "body %q should be rejected", body)
		assert.ErrorIs(t, err, ports.ErrInvalidResponse)
	}
}
