package engine

// Result is the complete output of one generation call: the rendered
// entries, any soft warnings collected along the way, and the hard
// violation list from validating the finished grid.
type Result struct {
	Entries            []TimetableEntry
	DesiredFreePeriods int
	Warnings           []Warning
	Violations         []Violation
}

// Placer is the shared contract behind both entry points.
type Placer interface {
	Place(grid *Grid, subjects []Subject, demand map[string]*Demand, cfg Config, rng Rand) []Warning
}

// WeightedPlacer runs the full weighted pipeline: lab placement, weighted
// theory placement, then free-period repair.
type WeightedPlacer struct{}

func (WeightedPlacer) Place(grid *Grid, subjects []Subject, demand map[string]*Demand, cfg Config, rng Rand) []Warning {
	var warnings []Warning
	warnings = append(warnings, PlaceLabs(grid, subjects, rng)...)
	PlaceWeightedTheory(grid, subjects, demand, cfg, rng)
	desired, _ := resolveDesired(subjects, cfg)
	maxPerDay := resolveMaxPerDay(cfg)
	warnings = append(warnings, Repair(grid, subjects, demand, desired, maxPerDay, rng)...)
	return warnings
}

// BacktrackingPlacer runs the alternative recursive solver.
type BacktrackingPlacer struct{}

func (BacktrackingPlacer) Place(grid *Grid, subjects []Subject, demand map[string]*Demand, cfg Config, rng Rand) []Warning {
	return BacktrackPlace(grid, subjects, demand, cfg, rng)
}

func resolveMaxPerDay(cfg Config) int {
	if cfg.MaxSessionsPerDay <= 0 {
		return DefaultMaxPerDay
	}
	return cfg.MaxSessionsPerDay
}

func resolveDesired(subjects []Subject, cfg Config) (int, []Warning) {
	total := TotalSubjectHours(subjects)
	return ResolveDesiredFreePeriods(cfg.DesiredFreePeriods, EffectiveSlots(), total)
}

// Generate builds the grid and demand counters, runs the given placer
// over them, validates the finished grid, and returns the rendered 55-row
// output alongside any violations the validator found. subjectsByCode
// indexes subjects by code for label rendering at the output boundary.
func Generate(placer Placer, subjects []Subject, cfg Config, rng Rand) Result {
	grid := NewGrid()
	demand := BuildDemand(subjects)
	desired, warnings := resolveDesired(subjects, cfg)

	warnings = append(warnings, placer.Place(grid, subjects, demand, cfg, rng)...)

	subjectsByCode := make(map[string]Subject, len(subjects))
	for _, s := range subjects {
		subjectsByCode[s.Code] = s
	}

	maxPerDay := resolveMaxPerDay(cfg)
	_, violations := Validate(grid, subjects, desired, maxPerDay)

	return Result{
		Entries:            grid.Export(subjectsByCode),
		DesiredFreePeriods: desired,
		Warnings:           warnings,
		Violations:         violations,
	}
}

// GenerateWeighted runs the full grid-construction, lab-placement,
// weighted-theory-placement, and repair pipeline.
func GenerateWeighted(subjects []Subject, cfg Config, rng Rand) Result {
	return Generate(WeightedPlacer{}, subjects, cfg, rng)
}

// GenerateBacktracking runs grid construction followed by the
// backtracking placer.
func GenerateBacktracking(subjects []Subject, cfg Config, rng Rand) Result {
	return Generate(BacktrackingPlacer{}, subjects, cfg, rng)
}
