package program

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// TestDefaultPhaseOrder verifies the built-in catalog lists phases in declaration order.
func TestDefaultPhaseOrder(t *testing.T) {
	got := Default().PhaseNames()
	want := []string{BasePhase, StrengthPhaseOne, StrengthPhaseTwo, PeakPhase}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PhaseNames() = %v, want %v", got, want)
	}
}

// TestPhaseNotFound verifies lookup misses wrap ErrPhaseNotFound.
func TestPhaseNotFound(t *testing.T) {
	_, err := Default().Phase("Deload Phase")
	if !errors.Is(err, ErrPhaseNotFound) {
		t.Fatalf("err = %v, want ErrPhaseNotFound", err)
	}
	if _, err := Default().Index("nope"); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("Index err = %v, want ErrPhaseNotFound", err)
	}
}

// TestPhaseIsCopy verifies callers cannot mutate the catalog through a returned phase.
func TestPhaseIsCopy(t *testing.T) {
	c := Default()
	p, err := c.Phase(BasePhase)
	if err != nil {
		t.Fatal(err)
	}
	p.Percentages[0] = 99
	p.Rules[0].WeightChange = 100

	again, _ := c.Phase(BasePhase)
	if again.Percentages[0] != 65 {
		t.Errorf("percentage mutated through copy: %v", again.Percentages[0])
	}
	if again.Rules[0].WeightChange != 0 {
		t.Errorf("rule mutated through copy: %v", again.Rules[0].WeightChange)
	}
}

// TestDefaultRulesCoverEveryRepCount verifies each built-in phase maps 0..50 reps to a rule.
func TestDefaultRulesCoverEveryRepCount(t *testing.T) {
	for _, p := range Default().Phases() {
		for reps := 0; reps <= 50; reps++ {
			if _, ok := p.RuleFor(reps); !ok {
				t.Errorf("%s: no rule for %d reps", p.Name, reps)
			}
		}
	}
}

// TestBaseRuleFirstMatchWins verifies the base phase adjustments for the documented rep counts.
func TestBaseRuleFirstMatchWins(t *testing.T) {
	p, _ := Default().Phase(BasePhase)
	tests := []struct {
		reps int
		want float64
	}{
		{9, 0},
		{8, 0},
		{6, -5},
		{0, -5},
		{11, 5},
		{12, 10},
		{15, 10},
	}
	for _, tt := range tests {
		r, ok := p.RuleFor(tt.reps)
		if !ok {
			t.Fatalf("no rule for %d", tt.reps)
		}
		if r.WeightChange != tt.want {
			t.Errorf("reps %d: change = %v, want %v", tt.reps, r.WeightChange, tt.want)
		}
	}
}

// TestRepSchemeTargets verifies uniform and per-set rep targets.
func TestRepSchemeTargets(t *testing.T) {
	base, _ := Default().Phase(BasePhase)
	if n, ok := base.Reps.Uniform(); !ok || n != 10 {
		t.Errorf("base Uniform() = %d, %v; want 10, true", n, ok)
	}
	if got := base.Reps.Target(2); got != 10 {
		t.Errorf("base Target(2) = %d, want 10", got)
	}

	peak, _ := Default().Phase(PeakPhase)
	if _, ok := peak.Reps.Uniform(); ok {
		t.Error("peak phase should not be uniform")
	}
	if got := peak.Reps.Target(5); got != 2 {
		t.Errorf("peak Target(5) = %d, want 2", got)
	}
	if got := peak.Reps.Target(6); got != 0 {
		t.Errorf("peak Target(6) = %d, want 0", got)
	}
}

// TestDescribe verifies rule text rendering.
func TestDescribe(t *testing.T) {
	tests := []struct {
		rule ProgressionRule
		want string
	}{
		{ProgressionRule{8, 9, 0}, "8-9 reps: No change"},
		{ProgressionRule{0, 7, -5}, "7 or fewer reps: Decrease 5 pounds"},
		{ProgressionRule{12, Unbounded, 10}, "12+ reps: Increase 10 pounds"},
		{ProgressionRule{7, 7, 0}, "7 reps: No change"},
		{ProgressionRule{1, 1, -5}, "1 rep: Decrease 5 pounds"},
		{ProgressionRule{3, 3, 2.5}, "3 reps: Increase 2.5 pounds"},
	}
	for _, tt := range tests {
		if got := tt.rule.Describe(); got != tt.want {
			t.Errorf("Describe(%+v) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

// TestNewCatalogValidation verifies malformed phase tables are rejected.
func TestNewCatalogValidation(t *testing.T) {
	valid := func() PhaseDefinition {
		return PhaseDefinition{
			Name:        "A",
			SetCount:    2,
			Reps:        UniformReps(5),
			Percentages: []float64{70, 80},
			Sessions:    2,
			Rules:       []ProgressionRule{{0, 4, -5}, {5, Unbounded, 5}},
		}
	}

	tests := []struct {
		name   string
		mutate func(p *PhaseDefinition)
	}{
		{"empty name", func(p *PhaseDefinition) { p.Name = " " }},
		{"zero sets", func(p *PhaseDefinition) { p.SetCount = 0 }},
		{"zero sessions", func(p *PhaseDefinition) { p.Sessions = 0 }},
		{"percentage count", func(p *PhaseDefinition) { p.Percentages = []float64{70} }},
		{"negative percentage", func(p *PhaseDefinition) { p.Percentages = []float64{70, -1} }},
		{"per-set length", func(p *PhaseDefinition) { p.Reps = PerSetReps(5, 4, 3) }},
		{"no rules", func(p *PhaseDefinition) { p.Rules = nil }},
		{"gap", func(p *PhaseDefinition) { p.Rules = []ProgressionRule{{0, 3, -5}, {5, Unbounded, 5}} }},
		{"missing zero", func(p *PhaseDefinition) { p.Rules = []ProgressionRule{{1, Unbounded, 5}} }},
		{"closed last rule", func(p *PhaseDefinition) { p.Rules = []ProgressionRule{{5, Unbounded, 5}, {0, 4, -5}} }},
		{"inverted range", func(p *PhaseDefinition) { p.Rules = []ProgressionRule{{4, 2, 0}, {0, Unbounded, 5}} }},
	}

	if _, err := NewCatalog([]PhaseDefinition{valid()}); err != nil {
		t.Fatalf("valid catalog rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			if _, err := NewCatalog([]PhaseDefinition{p}); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if _, err := NewCatalog(nil); err == nil {
		t.Error("expected error for empty catalog")
	}
	if _, err := NewCatalog([]PhaseDefinition{valid(), valid()}); err == nil {
		t.Error("expected error for duplicate phase names")
	}
}

const twoPhaseYAML = `
phases:
  - name: Volume
    sets: 2
    reps_per_set: 12
    percentages: [60, 65]
    sessions: 3
    progression:
      - {min_reps: 0, max_reps: 9, change: -5}
      - {min_reps: 10, max_reps: 12, change: 0}
      - {min_reps: 13, change: 5}
  - name: Intensity
    sets: 3
    reps_per_set: [5, 3, 1]
    percentages: [80, 85, 90]
    sessions: 2
    progression:
      - {min_reps: 0, max_reps: 1, change: 0}
      - {min_reps: 2, change: 10}
`

// TestParseYAML verifies a YAML catalog with scalar and list rep schemes and an open-ended rule.
func TestParseYAML(t *testing.T) {
	c, err := Parse([]byte(twoPhaseYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := c.PhaseNames(); !reflect.DeepEqual(got, []string{"Volume", "Intensity"}) {
		t.Errorf("PhaseNames() = %v", got)
	}
	vol, _ := c.Phase("Volume")
	if n, ok := vol.Reps.Uniform(); !ok || n != 12 {
		t.Errorf("Volume reps = %d, %v", n, ok)
	}
	if last := vol.Rules[len(vol.Rules)-1]; last.MaxReps != Unbounded || last.WeightChange != 5 {
		t.Errorf("Volume last rule = %+v", last)
	}
	in, _ := c.Phase("Intensity")
	if got := in.Reps.Target(1); got != 3 {
		t.Errorf("Intensity Target(1) = %d, want 3", got)
	}
}

// TestLoadFile verifies catalogs load from disk and that missing files error.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(twoPhaseYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestParseRejectsGap verifies YAML catalogs go through the same coverage validation.
func TestParseRejectsGap(t *testing.T) {
	bad := `
phases:
  - name: Gappy
    sets: 1
    reps_per_set: 5
    percentages: [70]
    sessions: 1
    progression:
      - {min_reps: 0, max_reps: 3, change: 0}
      - {min_reps: 6, change: 5}
`
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatal("expected coverage error")
	}
}
