package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VideoID is the canonical video identifier. Valid identifiers are strictly positive.
type VideoID int64

// NoVideoID is the value an identifier decodes to when the wire value cannot be parsed as a number.
const NoVideoID VideoID = 0

// ParseVideoID parses a decimal identifier, rejecting anything that is not a positive integer.
func ParseVideoID(s string) (VideoID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return NoVideoID, fmt.Errorf("invalid video id %q: %w", s, err)
	}
	if n <= 0 {
		return NoVideoID, fmt.Errorf("invalid video id %q: must be positive", s)
	}
	return VideoID(n), nil
}

// Valid reports whether the identifier was parsed successfully.
func (id VideoID) Valid() bool { return id > 0 }

func (id VideoID) String() string { return strconv.FormatInt(int64(id), 10) }

// UnmarshalJSON accepts a JSON number or a numeric string.
//
// Values that cannot be parsed decode to [NoVideoID] instead of failing, so one malformed record does not
// discard an entire listing.
func (id *VideoID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	*id = NoVideoID

	if raw == "" || raw == "null" {
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if parsed, err := ParseVideoID(s); err == nil {
			*id = parsed
		}
		return nil
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 0 {
			*id = VideoID(n)
		}
		return nil
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 && f < math.MaxInt64 && f == math.Trunc(f) {
		*id = VideoID(f)
	}
	return nil
}

// Ident is a string identifier that may arrive as a JSON string or number.
type Ident string

// UnmarshalJSON accepts a JSON string, number or null.
func (i *Ident) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "" || raw == "null":
		*i = ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = Ident(s)
	default:
		*i = Ident(raw)
	}
	return nil
}

func (i Ident) String() string { return string(i) }
