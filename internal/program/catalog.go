package program

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Unbounded marks the open upper end of a progression rule.
const Unbounded = math.MaxInt

// ErrPhaseNotFound is returned when a phase name does not resolve in the catalog.
var ErrPhaseNotFound = errors.New("phase not found")

// ProgressionRule maps a range of last-set reps to a training max adjustment in pounds.
type ProgressionRule struct {
	MinReps      int     `json:"min_reps"`
	MaxReps      int     `json:"max_reps"`
	WeightChange float64 `json:"weight_change_lbs"`
}

// Contains reports whether reps falls inside the rule's inclusive range.
func (r ProgressionRule) Contains(reps int) bool {
	return reps >= r.MinReps && reps <= r.MaxReps
}

// Describe renders the rule as shown to the lifter, e.g. "10-11 reps: Increase 5 pounds".
func (r ProgressionRule) Describe() string {
	var reps string
	switch {
	case r.MaxReps == Unbounded:
		reps = fmt.Sprintf("%d+ reps", r.MinReps)
	case r.MinReps == 0 && r.MaxReps > 0:
		reps = fmt.Sprintf("%d or fewer reps", r.MaxReps)
	case r.MinReps == r.MaxReps && r.MinReps == 1:
		reps = "1 rep"
	case r.MinReps == r.MaxReps:
		reps = fmt.Sprintf("%d reps", r.MinReps)
	default:
		reps = fmt.Sprintf("%d-%d reps", r.MinReps, r.MaxReps)
	}

	switch {
	case r.WeightChange > 0:
		return fmt.Sprintf("%s: Increase %s pounds", reps, formatPounds(r.WeightChange))
	case r.WeightChange < 0:
		return fmt.Sprintf("%s: Decrease %s pounds", reps, formatPounds(-r.WeightChange))
	default:
		return reps + ": No change"
	}
}

func formatPounds(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// PhaseDefinition is one block of the program: a fixed set/rep/percentage scheme
// repeated for Sessions workouts.
type PhaseDefinition struct {
	Name        string            `json:"name"`
	SetCount    int               `json:"set_count"`
	Reps        RepScheme         `json:"reps_per_set"`
	Percentages []float64         `json:"percentages"`
	Sessions    int               `json:"sessions_per_phase"`
	Rules       []ProgressionRule `json:"progression_rules"`
}

// RuleFor returns the first rule whose range contains reps.
func (p PhaseDefinition) RuleFor(reps int) (ProgressionRule, bool) {
	for _, r := range p.Rules {
		if r.Contains(reps) {
			return r, true
		}
	}
	return ProgressionRule{}, false
}

func (p PhaseDefinition) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("phase name is required")
	}
	if p.SetCount <= 0 {
		return fmt.Errorf("phase %q: set count must be positive", p.Name)
	}
	if p.Sessions <= 0 {
		return fmt.Errorf("phase %q: sessions per phase must be positive", p.Name)
	}
	if len(p.Percentages) != p.SetCount {
		return fmt.Errorf("phase %q: %d percentages for %d sets", p.Name, len(p.Percentages), p.SetCount)
	}
	for i, pct := range p.Percentages {
		if !(pct > 0) || math.IsInf(pct, 0) {
			return fmt.Errorf("phase %q: percentage for set %d must be positive", p.Name, i+1)
		}
	}
	if err := p.Reps.validate(p.SetCount); err != nil {
		return fmt.Errorf("phase %q: %w", p.Name, err)
	}
	if err := validateRules(p.Rules); err != nil {
		return fmt.Errorf("phase %q: %w", p.Name, err)
	}
	return nil
}

// validateRules checks that the rules cover every non-negative rep count and
// that the last rule is open-ended.
func validateRules(rules []ProgressionRule) error {
	if len(rules) == 0 {
		return fmt.Errorf("no progression rules")
	}
	for i, r := range rules {
		if r.MinReps < 0 || r.MaxReps < r.MinReps {
			return fmt.Errorf("rule %d: invalid range %d-%d", i+1, r.MinReps, r.MaxReps)
		}
	}
	if rules[len(rules)-1].MaxReps != Unbounded {
		return fmt.Errorf("last progression rule must be open-ended")
	}

	// Walk upward from 0; every count must hit some rule.
	next := 0
	for {
		extended := false
		for _, r := range rules {
			if r.MinReps <= next && r.MaxReps >= next {
				if r.MaxReps == Unbounded {
					return nil
				}
				next = r.MaxReps + 1
				extended = true
			}
		}
		if !extended {
			return fmt.Errorf("no progression rule covers %d reps", next)
		}
	}
}

// Catalog is the ordered, read-only table of phases. Order defines the
// direction of progression.
type Catalog struct {
	phases []PhaseDefinition
	index  map[string]int
}

// NewCatalog validates phases and builds a catalog in declaration order.
func NewCatalog(phases []PhaseDefinition) (*Catalog, error) {
	if len(phases) == 0 {
		return nil, fmt.Errorf("catalog has no phases")
	}
	c := &Catalog{
		phases: make([]PhaseDefinition, 0, len(phases)),
		index:  make(map[string]int, len(phases)),
	}
	for _, p := range phases {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[p.Name]; dup {
			return nil, fmt.Errorf("duplicate phase %q", p.Name)
		}
		c.index[p.Name] = len(c.phases)
		c.phases = append(c.phases, clonePhase(p))
	}
	return c, nil
}

// PhaseNames returns phase names in catalog order.
func (c *Catalog) PhaseNames() []string {
	names := make([]string, len(c.phases))
	for i, p := range c.phases {
		names[i] = p.Name
	}
	return names
}

// Phases returns a copy of every phase definition in catalog order.
func (c *Catalog) Phases() []PhaseDefinition {
	out := make([]PhaseDefinition, len(c.phases))
	for i, p := range c.phases {
		out[i] = clonePhase(p)
	}
	return out
}

// Phase looks up a phase by name.
func (c *Catalog) Phase(name string) (PhaseDefinition, error) {
	i, ok := c.index[name]
	if !ok {
		return PhaseDefinition{}, fmt.Errorf("%w: %q", ErrPhaseNotFound, name)
	}
	return clonePhase(c.phases[i]), nil
}

// Index returns the position of name in catalog order.
func (c *Catalog) Index(name string) (int, error) {
	i, ok := c.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrPhaseNotFound, name)
	}
	return i, nil
}

// At returns the phase at position i and whether it exists.
func (c *Catalog) At(i int) (PhaseDefinition, bool) {
	if i < 0 || i >= len(c.phases) {
		return PhaseDefinition{}, false
	}
	return clonePhase(c.phases[i]), true
}

// First returns the phase every new exercise starts in.
func (c *Catalog) First() PhaseDefinition {
	return clonePhase(c.phases[0])
}

// Len returns the number of phases.
func (c *Catalog) Len() int {
	return len(c.phases)
}

func clonePhase(p PhaseDefinition) PhaseDefinition {
	p.Percentages = append([]float64(nil), p.Percentages...)
	p.Rules = append([]ProgressionRule(nil), p.Rules...)
	p.Reps = p.Reps.clone()
	return p
}
