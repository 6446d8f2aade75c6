package program

// Phase names of the built-in program, in order.
const (
	BasePhase        = "Base Phase"
	StrengthPhaseOne = "Strength Phase One"
	StrengthPhaseTwo = "Strength Phase Two"
	PeakPhase        = "Peak Phase"
)

// DefaultPhases is the built-in four-phase program. The bottom rule of each
// phase starts at zero reps so every rep count maps to an adjustment.
var DefaultPhases = []PhaseDefinition{
	{
		Name:        BasePhase,
		SetCount:    3,
		Reps:        UniformReps(10),
		Percentages: []float64{65, 70, 75},
		Sessions:    4,
		Rules: []ProgressionRule{
			{MinReps: 8, MaxReps: 9, WeightChange: 0},
			{MinReps: 0, MaxReps: 7, WeightChange: -5},
			{MinReps: 10, MaxReps: 11, WeightChange: 5},
			{MinReps: 12, MaxReps: Unbounded, WeightChange: 10},
		},
	},
	{
		Name:        StrengthPhaseOne,
		SetCount:    4,
		Reps:        UniformReps(8),
		Percentages: []float64{60, 70, 75, 80},
		Sessions:    4,
		Rules: []ProgressionRule{
			{MinReps: 7, MaxReps: 7, WeightChange: 0},
			{MinReps: 0, MaxReps: 6, WeightChange: -5},
			{MinReps: 8, MaxReps: 9, WeightChange: 5},
			{MinReps: 10, MaxReps: Unbounded, WeightChange: 10},
		},
	},
	{
		Name:        StrengthPhaseTwo,
		SetCount:    5,
		Reps:        UniformReps(6),
		Percentages: []float64{65, 70, 75, 80, 85},
		Sessions:    4,
		Rules: []ProgressionRule{
			{MinReps: 5, MaxReps: 5, WeightChange: 0},
			{MinReps: 0, MaxReps: 4, WeightChange: -5},
			{MinReps: 6, MaxReps: 7, WeightChange: 5},
			{MinReps: 8, MaxReps: Unbounded, WeightChange: 10},
		},
	},
	{
		Name:        PeakPhase,
		SetCount:    6,
		Reps:        PerSetReps(10, 8, 6, 4, 3, 2),
		Percentages: []float64{50, 60, 70, 80, 85, 90},
		Sessions:    6,
		Rules: []ProgressionRule{
			{MinReps: 2, MaxReps: 2, WeightChange: 0},
			{MinReps: 0, MaxReps: 1, WeightChange: -5},
			{MinReps: 3, MaxReps: 3, WeightChange: 5},
			{MinReps: 4, MaxReps: Unbounded, WeightChange: 10},
		},
	},
}

// Default returns a catalog built from DefaultPhases.
func Default() *Catalog {
	c, err := NewCatalog(DefaultPhases)
	if err != nil {
		panic("program: invalid default catalog: " + err.Error())
	}
	return c
}
