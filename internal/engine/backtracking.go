package engine

import "sort"

// DefaultAttemptCap is the recursion attempt ceiling
const DefaultAttemptCap = 1_000_000

type slotRef struct {
	Day   Day
	Index int
}

// nonBreakSlots lists every (day, sessionIndex) slot in canonical order,
// skipping the two fixed break indices.
func nonBreakSlots() []slotRef {
	slots := make([]slotRef, 0, EffectiveSlots())
	for _, d := range Days {
		for i := 0; i < SlotsPerDay; i++ {
			if IsBreakIndex(i) {
				continue
			}
			slots = append(slots, slotRef{Day: d, Index: i})
		}
	}
	return slots
}

type backtracker struct {
	grid       *Grid
	subjects   []Subject
	demand     map[string]*Demand
	maxPerDay  int
	attempts   int
	attemptCap int
	capReached bool
	prefs      map[string]bool
	rng        Rand
}

// BacktrackPlace is a recursive CSP solver that assigns the whole grid
// slot-by-slot in canonical order. Theory sessions respect the per-day cap
// and the consecutive-run limit. Lab placement is an atomic 3-slot
// contiguous block so lab contiguity holds uniformly across both placers.
// It does not aim at a free-period total or the per-day free-period cap:
// subjects take the earliest slots they legally can and every slot left
// over becomes a free period, so free periods collect on the later days.
func BacktrackPlace(grid *Grid, subjects []Subject, demand map[string]*Demand, cfg Config, rng Rand) []Warning {
	maxPerDay := cfg.MaxSessionsPerDay
	if maxPerDay <= 0 {
		maxPerDay = DefaultMaxPerDay
	}
	prefs := make(map[string]bool, len(cfg.FacultyPreferences))
	for _, p := range cfg.FacultyPreferences {
		prefs[p.Faculty] = true
	}

	bt := &backtracker{
		grid:       grid,
		subjects:   subjects,
		demand:     demand,
		maxPerDay:  maxPerDay,
		attemptCap: DefaultAttemptCap,
		prefs:      prefs,
		rng:        rng,
	}

	slots := nonBreakSlots()
	solved := bt.solve(slots, 0)

	var warnings []Warning
	if bt.capReached {
		warnings = append(warnings, Warning("backtracking placer exhausted its attempt budget; remaining slots padded with free periods"))
	} else if !solved {
		warnings = append(warnings, Warning("backtracking placer could not satisfy all demand; remaining slots padded with free periods"))
	}
	padRemainingUnallocated(grid)
	return warnings
}

func padRemainingUnallocated(grid *Grid) {
	for _, d := range Days {
		row := grid.Cells[d]
		for i := range row {
			if row[i].kind == kindUnallocated {
				row[i] = freeCell()
			}
		}
	}
}

func (bt *backtracker) solve(slots []slotRef, k int) bool {
	bt.attempts++
	if bt.attempts > bt.attemptCap {
		bt.capReached = true
		return true
	}
	if k >= len(slots) {
		return bt.allDemandSatisfied()
	}

	ref := slots[k]
	for _, s := range bt.orderedCandidates() {
		d := bt.demand[s.Code]
		if d == nil {
			continue
		}
		if d.LabLeft > 0 {
			if consumed, ok := bt.tryLab(ref, s.Code); ok {
				d.LabLeft -= 3
				if bt.solve(slots, k+consumed) {
					return true
				}
				d.LabLeft += 3
				bt.undoLab(ref)
			}
		}
		if d.TheoryLeft > 0 {
			if bt.tryTheory(ref, s.Code) {
				d.TheoryLeft--
				if bt.solve(slots, k+1) {
					return true
				}
				d.TheoryLeft++
				bt.grid.Cells[ref.Day][ref.Index] = unallocatedCell()
			}
		}
	}

	bt.grid.Cells[ref.Day][ref.Index] = freeCell()
	if bt.solve(slots, k+1) {
		return true
	}
	bt.grid.Cells[ref.Day][ref.Index] = unallocatedCell()
	return false
}

func (bt *backtracker) allDemandSatisfied() bool {
	for _, s := range bt.subjects {
		d := bt.demand[s.Code]
		if d == nil {
			continue
		}
		if d.TheoryLeft != 0 || d.LabLeft != 0 {
			return false
		}
	}
	return true
}

// tryLab attempts to reserve the atomic 3-slot block starting at ref for
// subjectCode. It returns the number of list positions consumed (3) when
// successful.
func (bt *backtracker) tryLab(ref slotRef, subjectCode string) (int, bool) {
	start := ref.Index
	if start > SlotsPerDay-3 {
		return 0, false
	}
	if IsBreakIndex(start) || IsBreakIndex(start+1) || IsBreakIndex(start+2) {
		return 0, false
	}
	row := bt.grid.Cells[ref.Day]
	if row[start].kind != kindUnallocated || row[start+1].kind != kindUnallocated || row[start+2].kind != kindUnallocated {
		return 0, false
	}
	for i := start; i < start+3; i++ {
		row[i] = labCell(subjectCode)
	}
	return 3, true
}

func (bt *backtracker) undoLab(ref slotRef) {
	row := bt.grid.Cells[ref.Day]
	for i := ref.Index; i < ref.Index+3 && i < SlotsPerDay; i++ {
		row[i] = unallocatedCell()
	}
}

func (bt *backtracker) tryTheory(ref slotRef, subjectCode string) bool {
	if bt.grid.countOnDay(ref.Day, subjectCode) >= bt.maxPerDay {
		return false
	}
	if bt.grid.wouldExceedConsecutive(ref.Day, ref.Index, subjectCode) {
		return false
	}
	bt.grid.Cells[ref.Day][ref.Index] = subjectCell(subjectCode)
	return true
}

// orderedCandidates sorts subjects: labs-remaining first,
// then larger theoryLeft+labLeft, then subjects whose faculty has stated
// preferences, with a small jitter tie-break for determinism parity with
// the weighted placer.
func (bt *backtracker) orderedCandidates() []Subject {
	type scored struct {
		subject    Subject
		hasLab     bool
		remaining  int
		hasPref    bool
		jitter     float64
	}
	scoredSubjects := make([]scored, 0, len(bt.subjects))
	for _, s := range bt.subjects {
		d := bt.demand[s.Code]
		remaining := 0
		hasLab := false
		if d != nil {
			remaining = d.TheoryLeft + d.LabLeft
			hasLab = d.LabLeft > 0
		}
		scoredSubjects = append(scoredSubjects, scored{
			subject:   s,
			hasLab:    hasLab,
			remaining: remaining,
			hasPref:   bt.prefs[s.Faculty],
			jitter:    bt.rng.Float64(),
		})
	}
	sort.SliceStable(scoredSubjects, func(i, j int) bool {
		a, b := scoredSubjects[i], scoredSubjects[j]
		if a.hasLab != b.hasLab {
			return a.hasLab
		}
		if a.remaining != b.remaining {
			return a.remaining > b.remaining
		}
		if a.hasPref != b.hasPref {
			return a.hasPref
		}
		return a.jitter < b.jitter
	})
	out := make([]Subject, len(scoredSubjects))
	for i, sc := range scoredSubjects {
		out[i] = sc.subject
	}
	return out
}
