package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReportsFreeTotalMismatch(t *testing.T) {
	grid := NewGrid()
	for _, d := range Days {
		row := grid.Cells[d]
		for i := range row {
			if row[i].IsUnallocated() {
				row[i] = freeCell()
			}
		}
	}
	valid, violations := Validate(grid, nil, 10, 2)
	assert.False(t, valid)
	require.NotEmpty(t, violations)
}

func TestValidateDetectsPerSubjectHourMismatch(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{{Code: "CS601", Faculty: "A", Name: "CS601", HoursPerWeek: 100}}
	demand := BuildDemand(subjects)
	rng := NewSeededRand(1)
	PlaceWeightedTheory(grid, subjects, demand, Config{MaxSessionsPerDay: 2}, rng)

	for _, d := range Days {
		row := grid.Cells[d]
		for i := range row {
			if row[i].IsUnallocated() {
				row[i] = freeCell()
			}
		}
	}

	valid, violations := Validate(grid, subjects, grid.totalFreePeriods(), 2)
	assert.False(t, valid)
	found := false
	for _, v := range violations {
		if strings.Contains(string(v), "theory hours") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateOnGeneratedGridIsValid(t *testing.T) {
	subjects := []Subject{
		{Code: "CS601", Faculty: "Dr. Smith", Name: "CS601", HoursPerWeek: 6},
		{Code: "CS602", Faculty: "Dr. Johnson", Name: "CS602", HoursPerWeek: 6},
		{Code: "CS603", Faculty: "Dr. Williams", Name: "CS603", HoursPerWeek: 6},
		{Code: "CS604", Faculty: "Dr. Brown", Name: "CS604", HoursPerWeek: 6},
		{Code: "CS605", Faculty: "Dr. Davis", Name: "CS605", HoursPerWeek: 6},
	}
	rng := NewSeededRand(42)
	result := GenerateWeighted(subjects, Config{MaxSessionsPerDay: 2}, rng)

	grid := NewGrid()
	for _, e := range result.Entries {
		row := grid.Cells[e.Day]
		if row[e.SessionNumber-1].IsBreak() {
			continue
		}
		row[e.SessionNumber-1] = entryToCell(e, subjects)
	}

	valid, violations := Validate(grid, subjects, result.DesiredFreePeriods, 2)
	assert.True(t, valid, "violations: %v", violations)
}

func entryToCell(e TimetableEntry, subjects []Subject) Cell {
	switch e.Subject {
	case FreePeriodLabel:
		return freeCell()
	case FallbackLabel:
		return fallbackCell()
	}
	for _, s := range subjects {
		if e.Subject == s.Label() {
			return subjectCell(s.Code)
		}
		if e.Subject == s.LabLabel() {
			return labCell(s.Code)
		}
	}
	return unallocatedCell()
}
