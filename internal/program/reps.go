package program

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RepScheme is the target reps for each set of a phase: either one count
// shared by every set or an explicit per-set list.
type RepScheme struct {
	uniform int
	perSet  []int
}

// UniformReps returns a scheme with the same target for every set.
func UniformReps(n int) RepScheme {
	return RepScheme{uniform: n}
}

// PerSetReps returns a scheme with an individual target for each set.
func PerSetReps(reps ...int) RepScheme {
	return RepScheme{perSet: append([]int(nil), reps...)}
}

// Uniform returns the shared target and true when the scheme is uniform.
func (s RepScheme) Uniform() (int, bool) {
	if s.perSet != nil {
		return 0, false
	}
	return s.uniform, true
}

// Target returns the target reps for the set at index i.
func (s RepScheme) Target(i int) int {
	if s.perSet == nil {
		return s.uniform
	}
	if i < 0 || i >= len(s.perSet) {
		return 0
	}
	return s.perSet[i]
}

func (s RepScheme) validate(setCount int) error {
	if s.perSet == nil {
		if s.uniform <= 0 {
			return fmt.Errorf("reps per set must be positive")
		}
		return nil
	}
	if len(s.perSet) != setCount {
		return fmt.Errorf("%d per-set rep targets for %d sets", len(s.perSet), setCount)
	}
	for i, n := range s.perSet {
		if n <= 0 {
			return fmt.Errorf("rep target for set %d must be positive", i+1)
		}
	}
	return nil
}

func (s RepScheme) clone() RepScheme {
	if s.perSet != nil {
		s.perSet = append([]int(nil), s.perSet...)
	}
	return s
}

// UnmarshalYAML accepts either a scalar count or a sequence of counts.
func (s *RepScheme) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var n int
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("reps per set: %w", err)
		}
		*s = UniformReps(n)
	case yaml.SequenceNode:
		var list []int
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("reps per set: %w", err)
		}
		*s = PerSetReps(list...)
	default:
		return fmt.Errorf("reps per set: expected a number or a list, line %d", node.Line)
	}
	return nil
}

// MarshalJSON renders a uniform scheme as a number and a per-set scheme as an array.
func (s RepScheme) MarshalJSON() ([]byte, error) {
	if s.perSet != nil {
		return json.Marshal(s.perSet)
	}
	return json.Marshal(s.uniform)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *RepScheme) UnmarshalJSON(data []byte) error {
	var list []int
	if err := json.Unmarshal(data, &list); err == nil {
		*s = PerSetReps(list...)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("reps per set: %w", err)
	}
	*s = UniformReps(n)
	return nil
}
