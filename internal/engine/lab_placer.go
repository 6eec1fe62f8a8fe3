package engine

// PlaceLabs places, for every lab-required subject, exactly
// one contiguous run of 3 slots on some day, with no intervening break,
// at most one lab per day when at all possible.
//
// Once placed, a lab triple is never broken by subsequent placers: they
// only ever overwrite cells where Writable() is true, and lab cells are
// never writable.
func PlaceLabs(grid *Grid, subjects []Subject, rng Rand) []Warning {
	var warnings []Warning
	labOccupied := make(map[Day]bool, len(Days))

	for _, s := range subjects {
		if !s.LabRequired {
			continue
		}
		if placeOneLab(grid, s, labOccupied, rng, true) {
			continue
		}
		if placeOneLab(grid, s, labOccupied, rng, false) {
			continue
		}
		warnings = append(warnings, Warning("unable to place lab block for subject "+s.Code))
	}
	return warnings
}

func placeOneLab(grid *Grid, s Subject, labOccupied map[Day]bool, rng Rand, onlyFreeDays bool) bool {
	for _, d := range shuffleDays(rng) {
		if onlyFreeDays && labOccupied[d] {
			continue
		}
		starts := validLabStarts(grid, d)
		if len(starts) == 0 {
			continue
		}
		rng.Shuffle(len(starts), func(i, j int) { starts[i], starts[j] = starts[j], starts[i] })
		start := starts[0]
		row := grid.Cells[d]
		for i := start; i < start+3; i++ {
			row[i] = labCell(s.Code)
		}
		labOccupied[d] = true
		return true
	}
	return false
}

// validLabStarts enumerates start indices s in 0..8 such that {s,s+1,s+2}
// crosses no break index and all three slots are writable.
func validLabStarts(grid *Grid, d Day) []int {
	row := grid.Cells[d]
	var starts []int
	for s := 0; s <= SlotsPerDay-3; s++ {
		if IsBreakIndex(s) || IsBreakIndex(s+1) || IsBreakIndex(s+2) {
			continue
		}
		if row[s].Writable() && row[s+1].Writable() && row[s+2].Writable() {
			starts = append(starts, s)
		}
	}
	return starts
}
