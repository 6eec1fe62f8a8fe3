package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceLabsContiguousSingleDay(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{
		{Code: "CS601", Faculty: "Dr. Smith", Name: "CS601", HoursPerWeek: 6, LabRequired: true},
	}
	rng := NewSeededRand(42)

	warnings := PlaceLabs(grid, subjects, rng)
	require.Empty(t, warnings)

	var labDay Day
	labCount := 0
	for _, d := range Days {
		row := grid.Cells[d]
		dayLabCount := 0
		for _, c := range row {
			if c.IsLab() && c.SubjectCode() == "CS601" {
				dayLabCount++
			}
		}
		if dayLabCount > 0 {
			labDay = d
			labCount += dayLabCount
		}
	}
	assert.Equal(t, 3, labCount)

	row := grid.Cells[labDay]
	run := 0
	maxRun := 0
	for _, c := range row {
		if c.IsLab() && c.SubjectCode() == "CS601" {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 0
		}
	}
	assert.Equal(t, 3, maxRun, "lab block must be contiguous")
}

func TestPlaceLabsAvoidsBreakCrossing(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{{Code: "X", Faculty: "F", Name: "X", HoursPerWeek: 3, LabRequired: true}}
	rng := NewSeededRand(7)
	PlaceLabs(grid, subjects, rng)

	for _, d := range Days {
		row := grid.Cells[d]
		for i := 0; i < SlotsPerDay; i++ {
			if row[i].IsLab() {
				assert.False(t, IsBreakIndex(i), "lab slot must not be a break index")
			}
		}
	}
}

func TestPlaceLabsOnePerDayWhenPossible(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{
		{Code: "A", Faculty: "F1", Name: "A", HoursPerWeek: 3, LabRequired: true},
		{Code: "B", Faculty: "F2", Name: "B", HoursPerWeek: 3, LabRequired: true},
	}
	rng := NewSeededRand(1)
	warnings := PlaceLabs(grid, subjects, rng)
	require.Empty(t, warnings)

	for _, d := range Days {
		codes := map[string]bool{}
		for _, c := range grid.Cells[d] {
			if c.IsLab() {
				codes[c.SubjectCode()] = true
			}
		}
		assert.LessOrEqual(t, len(codes), 1)
	}
}
