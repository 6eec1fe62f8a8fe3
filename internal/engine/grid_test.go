package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGridFixesBreakSlots(t *testing.T) {
	grid := NewGrid()
	for _, d := range Days {
		row := grid.Cells[d]
		assert.True(t, row[MorningBreakIndex].IsBreak())
		assert.Equal(t, ShortBreakLabel, row[MorningBreakIndex].Label(nil))
		assert.True(t, row[AfternoonBreakIndex].IsBreak())
		assert.Equal(t, LongBreakLabel, row[AfternoonBreakIndex].Label(nil))
		for i, c := range row {
			if i == MorningBreakIndex || i == AfternoonBreakIndex {
				continue
			}
			assert.True(t, c.IsUnallocated())
		}
	}
}

func TestEffectiveSlots(t *testing.T) {
	assert.Equal(t, 45, EffectiveSlots())
}

func TestBuildDemandHonoursHoursPerWeek(t *testing.T) {
	subjects := []Subject{
		{Code: "CS601", HoursPerWeek: 6},
		{Code: "CS602", HoursPerWeek: 4, LabRequired: true},
	}
	demand := BuildDemand(subjects)
	assert.Equal(t, 6, demand["CS601"].TheoryLeft)
	assert.Equal(t, 0, demand["CS601"].LabLeft)
	assert.Equal(t, 4, demand["CS602"].TheoryLeft)
	assert.Equal(t, 3, demand["CS602"].LabLeft)
}

func TestResolveDesiredFreePeriodsBaseline(t *testing.T) {
	desired, warnings := ResolveDesiredFreePeriods(nil, 45, 24)
	assert.Equal(t, 21, desired)
	assert.Empty(t, warnings)
}

func TestResolveDesiredFreePeriodsInfeasibleClampsToZero(t *testing.T) {
	desired, warnings := ResolveDesiredFreePeriods(nil, 45, 50)
	assert.Equal(t, 0, desired)
	assert.Len(t, warnings, 1)
}

func TestResolveDesiredFreePeriodsRequestedIsClamped(t *testing.T) {
	requested := 999
	desired, _ := ResolveDesiredFreePeriods(&requested, 45, 24)
	assert.Equal(t, 21, desired)
}
