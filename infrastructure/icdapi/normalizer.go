package icdapi

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ahrav/go-icdmatch/internal/domain"
)

// accessor reads one candidate field out of a raw record.
type accessor func(record gjson.Result) (gjson.Result, bool)

// byKey returns an accessor for a top-level key. Keys such as
// "skos:notation" are matched literally rather than as gjson paths.
func byKey(name string) accessor {
	return func(record gjson.Result) (gjson.Result, bool) {
		return field(record, name)
	}
}

// Field rules in priority order. The first rule whose value flattens to a
// non-empty string wins.
var (
	codeRules       = []accessor{byKey("id"), byKey("code"), byKey("skos:notation"), byKey("icd:code")}
	titleRules      = []accessor{byKey("title"), byKey("prefLabel"), byKey("label"), byKey("rdfs:label")}
	definitionRules = []accessor{byKey("definition"), byKey("description"), byKey("fullySpecifiedName")}
)

// highlightTag matches the <em class='found'> markup the search endpoint
// wraps around matched words.
var highlightTag = regexp.MustCompile(`(?i)</?em\b[^>]*>`)

// Normalizer maps heterogeneous search records onto domain.Candidate.
// It never fails: missing or unusable fields become empty strings.
type Normalizer struct {
	language string
}

// NewNormalizer creates a Normalizer that prefers the given language when a
// field holds a language map.
func NewNormalizer(language string) *Normalizer {
	return &Normalizer{language: language}
}

// Normalize converts one raw record into a Candidate.
func (n *Normalizer) Normalize(record gjson.Result) domain.Candidate {
	if !record.IsObject() {
		return domain.Candidate{}
	}
	return domain.Candidate{
		Code:       n.extract(record, codeRules),
		Title:      n.extract(record, titleRules),
		Definition: n.extract(record, definitionRules),
	}
}

// NormalizeAll converts at most limit records, preserving order.
// A limit of zero or less keeps every record.
func (n *Normalizer) NormalizeAll(records []gjson.Result, limit int) []domain.Candidate {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	out := make([]domain.Candidate, 0, len(records))
	for _, r := range records {
		out = append(out, n.Normalize(r))
	}
	return out
}

func (n *Normalizer) extract(record gjson.Result, rules []accessor) string {
	for _, rule := range rules {
		v, ok := rule(record)
		if !ok {
			continue
		}
		if s := n.flatten(v); s != "" {
			return s
		}
	}
	return ""
}

// flatten reduces any JSON value to a plain string.
func (n *Normalizer) flatten(v gjson.Result) string {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return ""
	case v.Type == gjson.String:
		return clean(v.Str)
	case v.Type == gjson.Number:
		return v.Raw
	case v.Type == gjson.True || v.Type == gjson.False:
		return v.String()
	case v.IsArray():
		var out string
		v.ForEach(func(_, elem gjson.Result) bool {
			out = n.flatten(elem)
			return out == ""
		})
		return out
	case v.IsObject():
		return n.flattenLanguageMap(v)
	}
	return ""
}

// flattenLanguageMap picks the configured language, then a JSON-LD @value,
// then the first entry in document order that has text.
func (n *Normalizer) flattenLanguageMap(obj gjson.Result) string {
	if n.language != "" {
		if v, ok := field(obj, n.language); ok {
			if s := n.flatten(v); s != "" {
				return s
			}
		}
	}
	if v, ok := field(obj, "@value"); ok {
		if s := n.flatten(v); s != "" {
			return s
		}
	}

	var out string
	obj.ForEach(func(key, value gjson.Result) bool {
		if strings.HasPrefix(key.Str, "@") {
			return true
		}
		out = n.flatten(value)
		return out == ""
	})
	return out
}

// field looks up a top-level key without interpreting it as a path.
func field(obj gjson.Result, name string) (gjson.Result, bool) {
	var (
		out   gjson.Result
		found bool
	)
	obj.ForEach(func(key, value gjson.Result) bool {
		if key.Str == name {
			out, found = value, true
			return false
		}
		return true
	})
	return out, found
}

func clean(s string) string {
	return strings.TrimSpace(highlightTag.ReplaceAllString(s, ""))
}
