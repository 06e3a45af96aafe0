package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexID is an identifier that may arrive as a JSON number or string.
// It is held as a string and marshals back to a number when it is all digits.
type FlexID string

func (f FlexID) String() string { return string(f) }

func (f FlexID) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte(`null`), nil
	}
	if _, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*f = FlexID(n.String())
	}
	return nil
}
