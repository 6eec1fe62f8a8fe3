package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairEnforcesExactFreeTotal(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{
		{Code: "CS601", Faculty: "A", Name: "CS601", HoursPerWeek: 6},
		{Code: "CS602", Faculty: "B", Name: "CS602", HoursPerWeek: 6},
	}
	demand := BuildDemand(subjects)
	rng := NewSeededRand(5)

	PlaceWeightedTheory(grid, subjects, demand, Config{MaxSessionsPerDay: 2}, rng)
	warnings := Repair(grid, subjects, demand, 33, 2, rng)
	_ = warnings

	assert.Equal(t, 33, grid.totalFreePeriods())
}

func TestRepairCapsFreePerDay(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{
		{Code: "CS601", Faculty: "A", Name: "CS601", HoursPerWeek: 6},
		{Code: "CS602", Faculty: "B", Name: "CS602", HoursPerWeek: 6},
		{Code: "CS603", Faculty: "C", Name: "CS603", HoursPerWeek: 6},
		{Code: "CS604", Faculty: "D", Name: "CS604", HoursPerWeek: 6},
		{Code: "CS605", Faculty: "E", Name: "CS605", HoursPerWeek: 6},
	}
	demand := BuildDemand(subjects)
	rng := NewSeededRand(9)

	PlaceWeightedTheory(grid, subjects, demand, Config{MaxSessionsPerDay: 2}, rng)
	Repair(grid, subjects, demand, 15, 2, rng)

	for _, d := range Days {
		assert.LessOrEqual(t, grid.freePeriodCountOnDay(d), MaxFreePerDay)
	}
}

func TestRepairLeavesNoUnallocated(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{
		{Code: "CS601", Faculty: "A", Name: "CS601", HoursPerWeek: 6, LabRequired: true},
		{Code: "CS602", Faculty: "B", Name: "CS602", HoursPerWeek: 6},
	}
	demand := BuildDemand(subjects)
	rng := NewSeededRand(11)

	PlaceLabs(grid, subjects, rng)
	PlaceWeightedTheory(grid, subjects, demand, Config{MaxSessionsPerDay: 2}, rng)
	Repair(grid, subjects, demand, 24, 2, rng)

	for _, d := range Days {
		for _, c := range grid.Cells[d] {
			assert.False(t, c.IsUnallocated())
		}
	}
}

func TestRepairIsNoOpOnAlreadyValidGrid(t *testing.T) {
	grid := NewGrid()
	subjects := []Subject{
		{Code: "CS601", Faculty: "A", Name: "CS601", HoursPerWeek: 6},
		{Code: "CS602", Faculty: "B", Name: "CS602", HoursPerWeek: 6},
		{Code: "CS603", Faculty: "C", Name: "CS603", HoursPerWeek: 6},
		{Code: "CS604", Faculty: "D", Name: "CS604", HoursPerWeek: 6},
		{Code: "CS605", Faculty: "E", Name: "CS605", HoursPerWeek: 6},
	}
	demand := BuildDemand(subjects)
	rng := NewSeededRand(42)

	PlaceWeightedTheory(grid, subjects, demand, Config{MaxSessionsPerDay: 2}, rng)
	Repair(grid, subjects, demand, 15, 2, rng)

	before := cloneGrid(grid)
	Repair(grid, subjects, BuildDemand(subjects), 15, 2, rng)

	for _, d := range Days {
		assert.Equal(t, before.Cells[d], grid.Cells[d])
	}
}
