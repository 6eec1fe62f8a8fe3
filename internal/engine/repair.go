package engine

// Repair runs five deterministic sub-phases in order: greedy fill, exact
// free-period enforcement, per-day free redistribution,
// consecutive-run/per-day-count fixing, and required-hours backfill. Every
// mutation preserves the grid's global invariants (break immutability, lab
// immovability, no UNALLOCATED on exit).
func Repair(grid *Grid, subjects []Subject, demand map[string]*Demand, desiredFreePeriods, maxSessionsPerDay int, rng Rand) []Warning {
	if maxSessionsPerDay <= 0 {
		maxSessionsPerDay = DefaultMaxPerDay
	}
	var warnings []Warning

	phase1GreedyFill(grid, subjects, demand, desiredFreePeriods, maxSessionsPerDay)
	phase2EnforceFreeTotal(grid, subjects, demand, desiredFreePeriods, maxSessionsPerDay)
	phase3RedistributeExcessFree(grid, maxSessionsPerDay, rng)
	phase4FixRunsAndCounts(grid, subjects, demand, maxSessionsPerDay)
	warnings = append(warnings, phase5EnsureRequiredHours(grid, subjects, demand, maxSessionsPerDay)...)

	return warnings
}

// phase1GreedyFill fills every remaining UNALLOCATED slot, in grid order:
// write FREE_PERIOD until desiredFreePeriods is reached, then prefer
// assigning a subject still carrying demand.
func phase1GreedyFill(grid *Grid, subjects []Subject, demand map[string]*Demand, desired, maxSessionsPerDay int) {
	made := grid.totalFreePeriods()
	for _, d := range Days {
		row := grid.Cells[d]
		for i := range row {
			if row[i].kind != kindUnallocated {
				continue
			}
			if made < desired {
				row[i] = freeCell()
				made++
				continue
			}
			if code, ok := pickDemandSubject(grid, subjects, demand, d, i, true, maxSessionsPerDay); ok {
				row[i] = subjectCell(code)
				demand[code].TheoryLeft--
				continue
			}
			if code, ok := pickDemandSubject(grid, subjects, demand, d, i, false, maxSessionsPerDay); ok {
				row[i] = subjectCell(code)
				demand[code].TheoryLeft--
				continue
			}
			row[i] = freeCell()
			made++
		}
	}
}

// pickDemandSubject finds the first subject with remaining theory demand
// that can legally occupy (d, i). When respectMax is true the per-day cap
// is enforced; the caller retries with respectMax=false as a last resort.
func pickDemandSubject(grid *Grid, subjects []Subject, demand map[string]*Demand, d Day, i int, respectMax bool, maxSessionsPerDay int) (string, bool) {
	for _, s := range subjects {
		dem := demand[s.Code]
		if dem == nil || dem.TheoryLeft <= 0 {
			continue
		}
		if grid.wouldExceedConsecutive(d, i, s.Code) {
			continue
		}
		if respectMax && grid.countOnDay(d, s.Code) >= maxSessionsPerDay {
			continue
		}
		return s.Code, true
	}
	return "", false
}

// phase2EnforceFreeTotal forces the grid's total free-period count to
// exactly desired. Overshoot (F>desired) replaces FREE slots, in grid
// order, with a subject that still has theory demand, else any subject
// within the per-day cap and run limit, else the Additional Class fallback.
// Undershoot (F<desired) converts subject occurrences to FREE_PERIOD,
// taking those of subjects over the per-day cap first.
func phase2EnforceFreeTotal(grid *Grid, subjects []Subject, demand map[string]*Demand, desired, maxSessionsPerDay int) {
	f := grid.totalFreePeriods()
	if f > desired {
		reduceFreePeriods(grid, subjects, demand, f-desired, maxSessionsPerDay)
	} else if f < desired {
		increaseFreePeriods(grid, subjects, desired-f, maxSessionsPerDay)
	}
}

// reduceFreePeriods converts `need` FREE_PERIOD cells into subject (or
// fallback) occurrences.
func reduceFreePeriods(grid *Grid, subjects []Subject, demand map[string]*Demand, need, maxSessionsPerDay int) {
	for _, d := range Days {
		if need <= 0 {
			return
		}
		row := grid.Cells[d]
		for i := range row {
			if need <= 0 {
				return
			}
			if row[i].kind != kindFree {
				continue
			}
			if code, ok := pickUnderAllocatedSubject(grid, subjects, demand, d, i, maxSessionsPerDay); ok {
				row[i] = subjectCell(code)
				demand[code].TheoryLeft--
				need--
				continue
			}
			if code, ok := pickAnySafeSubject(grid, subjects, d, i, maxSessionsPerDay); ok {
				row[i] = subjectCell(code)
				need--
				continue
			}
			row[i] = fallbackCell()
			need--
		}
	}
}

func pickUnderAllocatedSubject(grid *Grid, subjects []Subject, demand map[string]*Demand, d Day, i int, maxSessionsPerDay int) (string, bool) {
	for _, s := range subjects {
		dem := demand[s.Code]
		if dem == nil || dem.TheoryLeft <= 0 {
			continue
		}
		if grid.countOnDay(d, s.Code) >= maxSessionsPerDay || grid.wouldExceedConsecutive(d, i, s.Code) {
			continue
		}
		return s.Code, true
	}
	return "", false
}

// pickAnySafeSubject finds any non-lab subject that would not itself
// violate the per-day cap or consecutive-run limit if placed at (d, i),
// used when no subject still has outstanding demand.
func pickAnySafeSubject(grid *Grid, subjects []Subject, d Day, i int, maxSessionsPerDay int) (string, bool) {
	for _, s := range subjects {
		if grid.countOnDay(d, s.Code) >= maxSessionsPerDay || grid.wouldExceedConsecutive(d, i, s.Code) {
			continue
		}
		return s.Code, true
	}
	return "", false
}

// increaseFreePeriods converts `need` non-lab subject occurrences into
// FREE_PERIOD cells, preferring subjects whose per-day count already
// exceeds the cap.
func increaseFreePeriods(grid *Grid, subjects []Subject, need, maxSessionsPerDay int) {
	need = demoteSubjectSlots(grid, need, func(d Day, code string) bool {
		return grid.countOnDay(d, code) > maxSessionsPerDay
	})
	if need <= 0 {
		return
	}
	demoteSubjectSlots(grid, need, func(Day, string) bool { return true })
}

// demoteSubjectSlots scans the grid in day order converting up to `need`
// matching non-lab subject cells to FREE_PERIOD, returning the remainder.
func demoteSubjectSlots(grid *Grid, need int, match func(Day, string) bool) int {
	for _, d := range Days {
		if need <= 0 {
			return 0
		}
		row := grid.Cells[d]
		for i := range row {
			if need <= 0 {
				return 0
			}
			if row[i].kind != kindSubject {
				continue
			}
			if !match(d, row[i].subjectCode) {
				continue
			}
			row[i] = freeCell()
			need--
		}
	}
	return need
}

// phase3RedistributeExcessFree moves non-lab subject occurrences from
// other days into a day's free slots, swapping them for that day's excess
// free periods, until every day is within MaxFreePerDay or no donor day
// with headroom remains.
func phase3RedistributeExcessFree(grid *Grid, maxSessionsPerDay int, rng Rand) {
	for _, d := range Days {
		for grid.freePeriodCountOnDay(d) > MaxFreePerDay {
			if !swapInFromDonor(grid, d, maxSessionsPerDay, rng) {
				break
			}
		}
	}
}

func swapInFromDonor(grid *Grid, target Day, maxSessionsPerDay int, rng Rand) bool {
	targetRow := grid.Cells[target]
	var targetFreeIdx int = -1
	for i, c := range targetRow {
		if c.kind == kindFree {
			targetFreeIdx = i
			break
		}
	}
	if targetFreeIdx < 0 {
		return false
	}

	for _, donor := range shuffleDays(rng) {
		if donor == target {
			continue
		}
		if grid.freePeriodCountOnDay(donor) >= MaxFreePerDay {
			continue
		}
		donorRow := grid.Cells[donor]
		for j, c := range donorRow {
			if c.kind != kindSubject {
				continue
			}
			code := c.subjectCode
			if grid.countOnDay(target, code) >= maxSessionsPerDay || grid.wouldExceedConsecutive(target, targetFreeIdx, code) {
				continue
			}
			targetRow[targetFreeIdx] = subjectCell(code)
			donorRow[j] = freeCell()
			return true
		}
	}
	return false
}

// phase4FixRunsAndCounts scans for 3-in-a-row identical non-lab labels and
// breaks the third occurrence, then demotes trailing per-day overflow
// occurrences above maxSessionsPerDay.
func phase4FixRunsAndCounts(grid *Grid, subjects []Subject, demand map[string]*Demand, maxSessionsPerDay int) {
	for _, d := range Days {
		row := grid.Cells[d]
		for i := 2; i < len(row); i++ {
			if row[i].kind != kindSubject || row[i-1].kind != kindSubject || row[i-2].kind != kindSubject {
				continue
			}
			code := row[i].subjectCode
			if row[i-1].subjectCode != code || row[i-2].subjectCode != code {
				continue
			}
			if alt, ok := pickAnySafeSubject(grid, subjects, d, i, maxSessionsPerDay); ok && alt != code {
				row[i] = subjectCell(alt)
			} else {
				row[i] = freeCell()
			}
		}
	}

	for _, d := range Days {
		row := grid.Cells[d]
		counts := make(map[string]int)
		for _, c := range row {
			if c.kind == kindSubject {
				counts[c.subjectCode]++
			}
		}
		for code, count := range counts {
			if count <= maxSessionsPerDay {
				continue
			}
			overflow := count - maxSessionsPerDay
			for i := len(row) - 1; i >= 0 && overflow > 0; i-- {
				if row[i].kind == kindSubject && row[i].subjectCode == code {
					row[i] = freeCell()
					overflow--
				}
			}
		}
	}
}

// phase5EnsureRequiredHours tops off any subject short on theory hours by
// replacing FREE_PERIOD slots, respecting the per-day cap and consecutive
// limit. A missing lab block (short by exactly 3) is never repaired here —
// only logged as a warning.
func phase5EnsureRequiredHours(grid *Grid, subjects []Subject, demand map[string]*Demand, maxSessionsPerDay int) []Warning {
	var warnings []Warning
	for _, s := range subjects {
		theory, lab := grid.subjectHours(s.Code)
		if s.LabRequired && lab == 0 {
			warnings = append(warnings, Warning("lab block missing for subject "+s.Code+" after repair"))
		}
		short := s.HoursPerWeek - theory
		for short > 0 {
			if !fillOneFreeWithSubject(grid, s.Code, maxSessionsPerDay) {
				break
			}
			short--
		}
	}
	return warnings
}

func fillOneFreeWithSubject(grid *Grid, code string, maxSessionsPerDay int) bool {
	for _, d := range Days {
		if grid.countOnDay(d, code) >= maxSessionsPerDay {
			continue
		}
		row := grid.Cells[d]
		for i, c := range row {
			if c.kind != kindFree {
				continue
			}
			if grid.wouldExceedConsecutive(d, i, code) {
				continue
			}
			row[i] = subjectCell(code)
			return true
		}
	}
	return false
}
