package icdapi

import (
	"github.com/tidwall/gjson"
)

// primaryContainerKeys are probed first; the first key holding an array is
// used even when that array is empty.
var primaryContainerKeys = []string{
	"destinationEntities",
	"destination",
	"results",
	"items",
	"entities",
	"collection",
}

// fallbackContainerKeys are probed when no primary key holds an array; the
// first non-empty array wins.
var fallbackContainerKeys = []string{"result", "items", "data", "hits"}

// ExtractRecords locates the list of result records in a search response.
// A body that is not valid JSON yields a LookupError of type
// ErrorTypeInvalidResponse. A valid body without any recognizable list
// yields no records and no error.
func ExtractRecords(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, NewLookupError(DefaultServiceName, ErrorTypeInvalidResponse, 0, "response is not valid JSON", nil)
	}

	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return root.Array(), nil
	}
	if !root.IsObject() {
		return nil, nil
	}

	for _, key := range primaryContainerKeys {
		if v, ok := field(root, key); ok && v.IsArray() {
			return v.Array(), nil
		}
	}
	for _, key := range fallbackContainerKeys {
		if v, ok := field(root, key); ok && v.IsArray() {
			if records := v.Array(); len(records) > 0 {
				return records, nil
			}
		}
	}
	return nil, nil
}
