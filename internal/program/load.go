package program

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML layout of a catalog:
//
//	phases:
//	  - name: Base Phase
//	    sets: 3
//	    reps_per_set: 10          # or a list, one entry per set
//	    percentages: [65, 70, 75]
//	    sessions: 4
//	    progression:
//	      - {min_reps: 0, max_reps: 7, change: -5}
//	      - {min_reps: 8, change: 0}   # no max_reps: open-ended
type catalogFile struct {
	Phases []phaseYAML `yaml:"phases"`
}

type phaseYAML struct {
	Name        string     `yaml:"name"`
	Sets        int        `yaml:"sets"`
	RepsPerSet  RepScheme  `yaml:"reps_per_set"`
	Percentages []float64  `yaml:"percentages"`
	Sessions    int        `yaml:"sessions"`
	Progression []ruleYAML `yaml:"progression"`
}

type ruleYAML struct {
	MinReps int     `yaml:"min_reps"`
	MaxReps *int    `yaml:"max_reps"`
	Change  float64 `yaml:"change"`
}

// Load reads and validates a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	phases := make([]PhaseDefinition, 0, len(f.Phases))
	for _, p := range f.Phases {
		rules := make([]ProgressionRule, 0, len(p.Progression))
		for _, r := range p.Progression {
			upper := Unbounded
			if r.MaxReps != nil {
				upper = *r.MaxReps
			}
			rules = append(rules, ProgressionRule{MinReps: r.MinReps, MaxReps: upper, WeightChange: r.Change})
		}
		phases = append(phases, PhaseDefinition{
			Name:        p.Name,
			SetCount:    p.Sets,
			Reps:        p.RepsPerSet,
			Percentages: p.Percentages,
			Sessions:    p.Sessions,
			Rules:       rules,
		})
	}
	return NewCatalog(phases)
}
