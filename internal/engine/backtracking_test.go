package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBacktrackPlaceSatisfiesDemand(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{
		{Code: "CS601", Faculty: "A", Name: "CS601", HoursPerWeek: 6},
		{Code: "CS602", Faculty: "B", Name: "CS602", HoursPerWeek: 6},
		{Code: "CS603", Faculty: "C", Name: "CS603", HoursPerWeek: 6},
		{Code: "CS604", Faculty: "D", Name: "CS604", HoursPerWeek: 6},
	}
	demand := BuildDemand(subjects)
	rng := NewSeededRand(42)

	warnings := BacktrackPlace(grid, subjects, demand, Config{MaxSessionsPerDay: 2}, rng)
	assert.Empty(t, warnings)

	for _, s := range subjects {
		theory, _ := grid.subjectHours(s.Code)
		assert.Equal(t, s.HoursPerWeek, theory)
	}
	for _, d := range Days {
		for _, c := range grid.Cells[d] {
			assert.False(t, c.IsUnallocated())
		}
	}
}

func TestBacktrackPlaceLabContiguous(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{
		{Code: "CS601", Faculty: "A", Name: "CS601", HoursPerWeek: 3, LabRequired: true},
		{Code: "CS602", Faculty: "B", Name: "CS602", HoursPerWeek: 3},
	}
	demand := BuildDemand(subjects)
	rng := NewSeededRand(42)

	BacktrackPlace(grid, subjects, demand, Config{MaxSessionsPerDay: 2}, rng)

	labCount := 0
	for _, d := range Days {
		row := grid.Cells[d]
		run := 0
		for _, c := range row {
			if c.IsLab() && c.SubjectCode() == "CS601" {
				run++
				labCount++
			} else {
				if run > 0 {
					assert.Equal(t, 3, run, "lab run must be exactly 3 when it occurs")
				}
				run = 0
			}
		}
		if run > 0 {
			assert.Equal(t, 3, run)
		}
	}
	if labCount > 0 {
		assert.Equal(t, 3, labCount)
	}
}

func TestBacktrackPlacePadsWithFreeOnCapExhaustion(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{{Code: "CS601", Faculty: "A", Name: "CS601", HoursPerWeek: 6}}
	demand := BuildDemand(subjects)
	bt := &backtracker{
		grid:       grid,
		subjects:   subjects,
		demand:     demand,
		maxPerDay:  2,
		attemptCap: 1,
		prefs:      map[string]bool{},
		rng:        NewSeededRand(1),
	}
	slots := nonBreakSlots()
	bt.solve(slots, 0)
	assert.True(t, bt.capReached)

	padRemainingUnallocated(grid)
	for _, d := range Days {
		for _, c := range grid.Cells[d] {
			assert.False(t, c.IsUnallocated())
		}
	}
}
