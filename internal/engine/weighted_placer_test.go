package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceWeightedTheoryRespectsPerDayCap(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{{Code: "CS601", Faculty: "Dr. Smith", Name: "CS601", HoursPerWeek: 6}}
	demand := BuildDemand(subjects)
	cfg := Config{MaxSessionsPerDay: 2}
	rng := NewSeededRand(42)

	PlaceWeightedTheory(grid, subjects, demand, cfg, rng)

	for _, d := range Days {
		assert.LessOrEqual(t, grid.countOnDay(d, "CS601"), 2)
	}
}

func TestPlaceWeightedTheoryNoRunExceedsMaxConsecutive(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{{Code: "CS601", Faculty: "Dr. Smith", Name: "CS601", HoursPerWeek: 6}}
	demand := BuildDemand(subjects)
	cfg := Config{MaxSessionsPerDay: 2}
	rng := NewSeededRand(3)

	PlaceWeightedTheory(grid, subjects, demand, cfg, rng)

	for _, d := range Days {
		row := grid.Cells[d]
		run := 0
		for _, c := range row {
			if c.IsSubject() && c.SubjectCode() == "CS601" {
				run++
				assert.LessOrEqual(t, run, MaxConsecutive)
			} else {
				run = 0
			}
		}
	}
}

func TestRoundOrderBreaksTiesByDaysCoveredAscending(t *testing.T) {
	grid := NewGrid()
	grid.Cells[Monday][0] = subjectCell("A")
	grid.Cells[Tuesday][0] = subjectCell("A")

	subjects := []Subject{
		{Code: "A", Faculty: "Dr. Smith", Name: "A", HoursPerWeek: 6},
		{Code: "B", Faculty: "Dr. Jones", Name: "B", HoursPerWeek: 6},
	}
	demand := map[string]*Demand{
		"A": {TheoryLeft: 3},
		"B": {TheoryLeft: 3},
	}

	for seed := int64(0); seed < 20; seed++ {
		ordered := roundOrder(grid, subjects, demand, NewSeededRand(seed))
		require.Len(t, ordered, 2)
		assert.Equal(t, "B", ordered[0].Code, "subject covering fewer days must sort first on an equal-demand tie")
	}
}

func TestPlaceWeightedTheoryPreferredDayBias(t *testing.T) {
	preferred := 0
	comparator := 0
	trials := 100

	for seed := int64(0); seed < int64(trials); seed++ {
		grid := NewGrid()
		subjects := []Subject{
			{Code: "X", Faculty: "P", Name: "X", HoursPerWeek: 2},
			{Code: "Y", Faculty: "Q", Name: "Y", HoursPerWeek: 2},
		}
		demand := BuildDemand(subjects)
		cfg := Config{
			MaxSessionsPerDay: 2,
			FacultyPreferences: []FacultyPreference{
				{Faculty: "P", PreferredDays: []Day{Wednesday}},
			},
		}
		rng := NewSeededRand(seed)
		PlaceWeightedTheory(grid, subjects, demand, cfg, rng)

		if grid.countOnDay(Wednesday, "X") > 0 {
			preferred++
		}
		if grid.countOnDay(Wednesday, "Y") > 0 {
			comparator++
		}
	}

	assert.Greater(t, preferred, comparator)
}
