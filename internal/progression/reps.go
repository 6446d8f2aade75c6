package progression

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RepCount is the number of reps entered for one set. The zero value is unset,
// which is distinct from an entered 0.
type RepCount struct {
	Value int
	Valid bool
}

// Reps returns an entered rep count.
func Reps(n int) RepCount {
	return RepCount{Value: n, Valid: true}
}

// Unset is a set with nothing entered yet.
var Unset = RepCount{}

// UnsetReps returns n unset entries.
func UnsetReps(n int) []RepCount {
	return make([]RepCount, n)
}

// String renders the count, or "" when unset.
func (r RepCount) String() string {
	if !r.Valid {
		return ""
	}
	return strconv.Itoa(r.Value)
}

// ParseRepCount converts form input to a RepCount. Blank input is unset.
func ParseRepCount(s string) (RepCount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unset, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Unset, fmt.Errorf("%w: %q is not a whole number", ErrIncompleteInput, s)
	}
	if n < 0 {
		return Unset, fmt.Errorf("%w: %d is negative", ErrIncompleteInput, n)
	}
	return Reps(n), nil
}

// ParseRepCounts converts one form value per set.
func ParseRepCounts(values []string) ([]RepCount, error) {
	out := make([]RepCount, len(values))
	for i, v := range values {
		r, err := ParseRepCount(v)
		if err != nil {
			return nil, fmt.Errorf("set %d: %w", i+1, err)
		}
		out[i] = r
	}
	return out, nil
}

// MarshalJSON encodes unset as null.
func (r RepCount) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(r.Value)), nil
}

// UnmarshalJSON accepts null, a number, or a string. The empty string is unset,
// which is how browser-stored records wrote untouched inputs.
func (r *RepCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Unset
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseRepCount(s)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rep count: %w", err)
	}
	*r = Reps(n)
	return nil
}

// RepList is the per-set entry list of a session.
type RepList []RepCount

// UnmarshalJSON accepts a JSON array or a string holding a JSON array. Older
// records double-encoded the list that way.
func (l *RepList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		data = []byte(inner)
	}
	var list []RepCount
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("reps completed: %w", err)
	}
	*l = list
	return nil
}

// Strings renders each entry as form text.
func (l RepList) Strings() []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = r.String()
	}
	return out
}
