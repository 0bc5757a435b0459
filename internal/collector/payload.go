package collector

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/newthinker/finscope/internal/core"
)

// Field captures an upstream JSON scalar as text.
// Providers disagree on whether numbers arrive quoted, bare or as null,
// so every scalar is held verbatim and converted through core.ParseNumeric.
type Field string

// UnmarshalJSON accepts strings, numbers, booleans and null.
// Objects and arrays are tolerated and stored as empty.
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field(s)
	case data[0] == '{', data[0] == '[':
		*f = ""
	default:
		*f = Field(data)
	}
	return nil
}

// String returns the trimmed text
func (f Field) String() string {
	return strings.TrimSpace(string(f))
}

// Empty reports whether the field carries no usable text
func (f Field) Empty() bool {
	return f.String() == ""
}

// Number parses the field as a finite float
func (f Field) Number() null.Float {
	return core.ParseNumeric(string(f))
}

// Count parses the field as an integer
func (f Field) Count() null.Int {
	return core.ParseCount(string(f))
}

// Bool parses "true"/"false" text; anything else is absent
func (f Field) Bool() null.Bool {
	switch strings.ToLower(f.String()) {
	case "true":
		return null.BoolFrom(true)
	case "false":
		return null.BoolFrom(false)
	}
	return null.Bool{}
}

// Raw wraps Yahoo-style {"raw": 1.23, "fmt": "1.23"} values.
// Only the raw member is kept.
type Raw struct {
	Raw Field `json:"raw"`
}

// UnmarshalJSON accepts either the wrapped object or a bare scalar
func (r *Raw) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Raw Field `json:"raw"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		r.Raw = obj.Raw
		return nil
	}
	return r.Raw.UnmarshalJSON(data)
}

// Number parses the raw member as a finite float
func (r Raw) Number() null.Float {
	return r.Raw.Number()
}

// Count parses the raw member as an integer
func (r Raw) Count() null.Int {
	return r.Raw.Count()
}
