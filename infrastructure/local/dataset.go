package local

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-icdmatch/internal/domain"
)

// Dataset is the on-disk form of a replacement reference table.
//
//	entries:
//	  - code: R50.9
//	    title: Fever, unspecified
//	    definition: Elevated body temperature without clear cause.
type Dataset struct {
	Entries []Entry `yaml:"entries" json:"entries" validate:"required,min=1,dive"`
}

// Entry is one row of a Dataset.
type Entry struct {
	Code       string `yaml:"code" json:"code" validate:"required,max=64"`
	Title      string `yaml:"title" json:"title" validate:"required,max=512"`
	Definition string `yaml:"definition" json:"definition" validate:"max=4096"`
}

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = validator.New()

// LoadDataset reads a YAML or JSON dataset file. Files ending in .json are
// decoded as JSON; everything else as YAML. Unknown fields, missing codes or
// titles and duplicate codes are rejected.
func LoadDataset(path string) ([]domain.Candidate, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var ds Dataset
	if strings.EqualFold(filepath.Ext(cleanPath), ".json") {
		err = decodeJSON(data, &ds)
	} else {
		err = decodeYAML(data, &ds)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", cleanPath, err)
	}

	if err := validateDataset(&ds); err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(ds.Entries))
	for _, e := range ds.Entries {
		out = append(out, domain.Candidate{
			Code:       strings.TrimSpace(e.Code),
			Title:      strings.TrimSpace(e.Title),
			Definition: strings.TrimSpace(e.Definition),
		})
	}
	return out, nil
}

func decodeYAML(data []byte, ds *Dataset) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(ds); err != nil {
		return fmt.Errorf("YAML decode failed: %w", err)
	}
	return nil
}

func decodeJSON(data []byte, ds *Dataset) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(ds); err != nil {
		return fmt.Errorf("JSON decode failed: %w", err)
	}
	return nil
}

// validateDataset runs struct validation and then checks that codes are unique.
func validateDataset(ds *Dataset) error {
	vErr := domain.NewValidationError("Dataset")

	if err := validate.Struct(ds); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("struct validation failed: %w", err)
		}
		for _, fe := range fieldErrs {
			vErr.AddError(fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
		}
		return vErr
	}

	seen := make(map[string]int, len(ds.Entries))
	for i, e := range ds.Entries {
		code := strings.TrimSpace(e.Code)
		if first, ok := seen[code]; ok {
			vErr.AddError(fmt.Sprintf("entry %d: duplicate code %q (first at entry %d)", i, code, first))
			continue
		}
		seen[code] = i
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// DatasetStats summarizes a dataset for display.
type DatasetStats struct {
	Entries         int
	WithDefinition  int
	AvgTitleLength  float64
	LongestCodeSize int
}

// ComputeDatasetStats returns summary counts for candidates.
func ComputeDatasetStats(candidates []domain.Candidate) DatasetStats {
	var stats DatasetStats
	stats.Entries = len(candidates)
	if stats.Entries == 0 {
		return stats
	}

	titleRunes := 0
	for _, c := range candidates {
		if c.Definition != "" {
			stats.WithDefinition++
		}
		titleRunes += utf8.RuneCountInString(c.Title)
		stats.LongestCodeSize = max(stats.LongestCodeSize, len(c.Code))
	}
	stats.AvgTitleLength = float64(titleRunes) / float64(stats.Entries)
	return stats
}

// SaveDataset writes candidates to path in the format LoadDataset reads,
// choosing JSON or YAML by extension the same way. The candidates are
// validated first, so a saved file always loads back.
func SaveDataset(path string, candidates []domain.Candidate) error {
	cleanPath := filepath.Clean(path)

	ds := Dataset{Entries: make([]Entry, 0, len(candidates))}
	for _, c := range candidates {
		ds.Entries = append(ds.Entries, Entry{Code: c.Code, Title: c.Title, Definition: c.Definition})
	}
	if err := validateDataset(&ds); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(cleanPath), ".json") {
		data, err = json.MarshalIndent(ds, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(ds)
	}
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create dataset directory: %w", err)
		}
	}
	if err := os.WriteFile(cleanPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}
