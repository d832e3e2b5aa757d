package source

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/impresso/impresso-linguistic-processing/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// rawRecord mirrors one input line loosely enough to accept both the "id"
// and "ci_id" identifier spellings and an arbitrary text property.
type rawRecord map[string]jsoniter.RawMessage

// decodeRecord parses one JSONL line into an InputRecord. Absent title and
// body fields stay nil so the admission gate can distinguish a missing text
// property from an empty one.
func decodeRecord(line []byte, textProp string) (*domain.InputRecord, error) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("malformed record: %w", err)
	}

	rec := &domain.InputRecord{}

	id, err := stringField(raw, "id")
	if err != nil {
		return nil, err
	}
	if id == nil {
		if id, err = stringField(raw, "ci_id"); err != nil {
			return nil, err
		}
	}
	if id == nil || *id == "" {
		return nil, fmt.Errorf("record has no id")
	}
	rec.ID = *id

	lg, err := stringField(raw, "lg")
	if err != nil {
		return nil, err
	}
	if lg != nil {
		rec.Language = *lg
	}

	if rec.Title, err = stringField(raw, "t"); err != nil {
		return nil, err
	}
	if rec.FullText, err = stringField(raw, textProp); err != nil {
		return nil, err
	}

	return rec, nil
}

// stringField extracts an optional string property; nil means absent.
// JSON null is treated as absent as well.
func stringField(raw rawRecord, key string) (*string, error) {
	msg, ok := raw[key]
	if !ok || string(msg) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return nil, fmt.Errorf("property %q is not a string: %w", key, err)
	}
	return &s, nil
}
