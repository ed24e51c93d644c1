package relevance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rubiojr/basket/pkg/core"
)

var (
	// ErrNoJSON is returned when a reply holds no JSON value.
	ErrNoJSON = errors.New("no JSON found in reply")
	// ErrNoMatches is returned when a reply object lacks a matches list.
	ErrNoMatches = errors.New("reply has no matches field")
)

// ExtractMatches pulls the product list out of a model reply. Exactly one
// JSON value is decoded, starting at the first opening bracket and ending at
// its matching close, so surrounding prose and code fences are ignored. Both
// {"matches": [...]} and a bare array are accepted.
func ExtractMatches(reply string) ([]core.ProductRecord, error) {
	start := strings.IndexAny(reply, "[{")
	if start < 0 {
		return nil, ErrNoJSON
	}

	closer := "}"
	if reply[start] == '[' {
		closer = "]"
	}
	if !strings.Contains(reply[start:], closer) {
		return nil, ErrNoJSON
	}
	dec := json.NewDecoder(strings.NewReader(reply[start:]))

	if reply[start] == '[' {
		var records []core.ProductRecord
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding array: %w", err)
		}
		return nonNil(records), nil
	}

	var obj struct {
		Matches *[]core.ProductRecord `json:"matches"`
	}
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	if obj.Matches == nil {
		return nil, ErrNoMatches
	}
	return nonNil(*obj.Matches), nil
}

func nonNil(records []core.ProductRecord) []core.ProductRecord {
	if records == nil {
		return []core.ProductRecord{}
	}
	return records
}
