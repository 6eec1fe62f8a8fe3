package engine

import "fmt"

// Validate checks the final grid against
// every hard invariant and returns the full violation list. isValid is
// true iff violations is empty.
func Validate(grid *Grid, subjects []Subject, desiredFreePeriods, maxSessionsPerDay int) (bool, []Violation) {
	if maxSessionsPerDay <= 0 {
		maxSessionsPerDay = DefaultMaxPerDay
	}
	var violations []Violation

	if total := grid.totalFreePeriods(); total != desiredFreePeriods {
		violations = append(violations, Violation(fmt.Sprintf(
			"total free-period count %d does not equal desired %d", total, desiredFreePeriods)))
	}

	for _, d := range Days {
		if count := grid.freePeriodCountOnDay(d); count > MaxFreePerDay {
			violations = append(violations, Violation(fmt.Sprintf(
				"%s: free-period count %d exceeds max %d", d, count, MaxFreePerDay)))
		}
	}

	for _, s := range subjects {
		for _, d := range Days {
			if count := grid.countOnDay(d, s.Code); count > maxSessionsPerDay {
				violations = append(violations, Violation(fmt.Sprintf(
					"%s: subject %s occurs %d times, exceeds max %d", d, s.Code, count, maxSessionsPerDay)))
			}
		}
		theory, lab := grid.subjectHours(s.Code)
		if theory != s.HoursPerWeek {
			violations = append(violations, Violation(fmt.Sprintf(
				"subject %s has %d theory hours, expected %d", s.Code, theory, s.HoursPerWeek)))
		}
		if s.LabRequired && lab != 3 {
			violations = append(violations, Violation(fmt.Sprintf(
				"subject %s has %d lab hours, expected 3", s.Code, lab)))
		}
		if !s.LabRequired && lab != 0 {
			violations = append(violations, Violation(fmt.Sprintf(
				"subject %s has %d lab hours but is not lab-required", s.Code, lab)))
		}
	}

	for _, d := range Days {
		row := grid.Cells[d]
		for i := 2; i < len(row); i++ {
			if row[i].kind != kindSubject || row[i-1].kind != kindSubject || row[i-2].kind != kindSubject {
				continue
			}
			if row[i].subjectCode == row[i-1].subjectCode && row[i-1].subjectCode == row[i-2].subjectCode {
				violations = append(violations, Violation(fmt.Sprintf(
					"%s: run of %s exceeds max consecutive %d ending at session %d",
					d, row[i].subjectCode, MaxConsecutive, i+1)))
			}
		}
	}

	return len(violations) == 0, violations
}

// ValidateAndRepair runs Validate, and when the grid is invalid, runs a
// reduced repair (free-period redistribution, required-hours backfill,
// then run/count fixing) against a clone of the grid. It returns the
// original violation list alongside the repaired grid; the caller's grid
// is left untouched.
func ValidateAndRepair(grid *Grid, subjects []Subject, demand map[string]*Demand, desiredFreePeriods, maxSessionsPerDay int, rng Rand) (bool, []Violation, *Grid) {
	valid, violations := Validate(grid, subjects, desiredFreePeriods, maxSessionsPerDay)
	if valid {
		return valid, violations, nil
	}
	if maxSessionsPerDay <= 0 {
		maxSessionsPerDay = DefaultMaxPerDay
	}

	fixed := cloneGrid(grid)
	phase3RedistributeExcessFree(fixed, maxSessionsPerDay, rng)
	phase5EnsureRequiredHours(fixed, subjects, demand, maxSessionsPerDay)
	phase4FixRunsAndCounts(fixed, subjects, demand, maxSessionsPerDay)

	return valid, violations, fixed
}

func cloneGrid(grid *Grid) *Grid {
	clone := &Grid{Cells: make(map[Day][]Cell, len(Days))}
	for _, d := range Days {
		row := make([]Cell, len(grid.Cells[d]))
		copy(row, grid.Cells[d])
		clone.Cells[d] = row
	}
	return clone
}
