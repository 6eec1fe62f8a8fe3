package engine

// Config governs generator behaviour.
type Config struct {
	MaxSessionsPerDay  int
	DesiredFreePeriods *int // nil means "derive from demand"
	FacultyPreferences []FacultyPreference
}

// Grid is the 5x11 weekly grid. Cells[d][i] holds the content of day d,
// session index i (0-based, i.e. session number i+1).
type Grid struct {
	Cells map[Day][]Cell
}

// NewGrid materialises the empty weekly grid with break slots fixed and
// every other index set to the transient UNALLOCATED marker. Index MorningBreakIndex/AfternoonBreakIndex are immutable from
// this point on.
func NewGrid() *Grid {
	g := &Grid{Cells: make(map[Day][]Cell, len(Days))}
	for _, d := range Days {
		row := make([]Cell, SlotsPerDay)
		for i := range row {
			switch i {
			case MorningBreakIndex:
				row[i] = breakCell(ShortBreakLabel)
			case AfternoonBreakIndex:
				row[i] = breakCell(LongBreakLabel)
			default:
				row[i] = unallocatedCell()
			}
		}
		g.Cells[d] = row
	}
	return g
}

// EffectiveSlots returns the total non-break sessions in the week.
func EffectiveSlots() int {
	return len(Days) * (SlotsPerDay - 2)
}

// IsBreakIndex reports whether session index i is one of the two fixed
// break positions.
func IsBreakIndex(i int) bool {
	return i == MorningBreakIndex || i == AfternoonBreakIndex
}

// BuildDemand computes per-subject theoryLeft/labLeft counters: theoryLeft
// starts at HoursPerWeek, labLeft starts at 3 for lab subjects and 0
// otherwise. The caller-supplied HoursPerWeek is always honoured — there
// is no hard-coded override.
func BuildDemand(subjects []Subject) map[string]*Demand {
	demand := make(map[string]*Demand, len(subjects))
	for _, s := range subjects {
		labLeft := 0
		if s.LabRequired {
			labLeft = 3
		}
		demand[s.Code] = &Demand{TheoryLeft: s.HoursPerWeek, LabLeft: labLeft}
	}
	return demand
}

// TotalSubjectHours sums hoursPerWeek plus 3 per lab subject.
func TotalSubjectHours(subjects []Subject) int {
	total := 0
	for _, s := range subjects {
		total += s.HoursPerWeek
		if s.LabRequired {
			total += 3
		}
	}
	return total
}

// ResolveDesiredFreePeriods clamps the requested (or derived) desired
// free-period count to [0, effectiveSlots-totalSubjectHours]. A negative
// result is clamped to zero and reported as a warning rather than
// aborting generation.
func ResolveDesiredFreePeriods(requested *int, effectiveSlots, totalSubjectHours int) (int, []Warning) {
	var warnings []Warning
	headroom := effectiveSlots - totalSubjectHours
	if headroom < 0 {
		warnings = append(warnings, Warning("infeasible demand: total subject hours exceed effective slots; desired free periods clamped to 0"))
		headroom = 0
	}

	desired := headroom
	if requested != nil {
		desired = *requested
	}
	if desired > headroom {
		desired = headroom
	}
	if desired < 0 {
		desired = 0
	}
	return desired, warnings
}
