package engine

import (
	"math"
	"sort"
)

// preferenceBoostMultiplier is the multiplicative boost applied to a
// session's placement weight on a faculty's preferred day, chosen over an
// additive bump so it scales with the base weight under high demand.
const preferenceBoostMultiplier = 2.5

// PlaceWeightedTheory iteratively places single theory
// sessions (and opportunistic consecutive pairs) for every subject still
// carrying theoryLeft, respecting per-day and per-run limits and biasing
// toward each faculty's preferred days.
func PlaceWeightedTheory(grid *Grid, subjects []Subject, demand map[string]*Demand, cfg Config, rng Rand) {
	maxPerDay := cfg.MaxSessionsPerDay
	if maxPerDay <= 0 {
		maxPerDay = DefaultMaxPerDay
	}
	prefByFaculty := make(map[string]FacultyPreference, len(cfg.FacultyPreferences))
	for _, p := range cfg.FacultyPreferences {
		prefByFaculty[p.Faculty] = p
	}

	stale := 0
	for stale < 5 {
		placedAny := false
		for _, s := range roundOrder(grid, subjects, demand, rng) {
			d := demand[s.Code]
			if d == nil || d.TheoryLeft <= 0 {
				continue
			}
			if placeOneRound(grid, s, d, maxPerDay, prefByFaculty[s.Faculty], rng) {
				placedAny = true
			}
		}
		if !placedAny {
			stale++
		} else {
			stale = 0
		}
		if allTheoryExhausted(subjects, demand) {
			break
		}
	}
}

func allTheoryExhausted(subjects []Subject, demand map[string]*Demand) bool {
	for _, s := range subjects {
		if d := demand[s.Code]; d != nil && d.TheoryLeft > 0 {
			return false
		}
	}
	return true
}

// roundOrder sorts subjects by remaining hours desc, days-covered asc,
// then a small random jitter.
func roundOrder(grid *Grid, subjects []Subject, demand map[string]*Demand, rng Rand) []Subject {
	type scored struct {
		subject Subject
		left    int
		covered int
		jitter  float64
	}
	scoredSubjects := make([]scored, 0, len(subjects))
	for _, s := range subjects {
		d := demand[s.Code]
		left := 0
		if d != nil {
			left = d.TheoryLeft
		}
		scoredSubjects = append(scoredSubjects, scored{subject: s, left: left, covered: daysCovered(grid, s.Code), jitter: rng.Float64()})
	}
	sort.SliceStable(scoredSubjects, func(i, j int) bool {
		if scoredSubjects[i].left != scoredSubjects[j].left {
			return scoredSubjects[i].left > scoredSubjects[j].left
		}
		if scoredSubjects[i].covered != scoredSubjects[j].covered {
			return scoredSubjects[i].covered < scoredSubjects[j].covered
		}
		return scoredSubjects[i].jitter < scoredSubjects[j].jitter
	})
	out := make([]Subject, len(scoredSubjects))
	for i, sc := range scoredSubjects {
		out[i] = sc.subject
	}
	return out
}

// daysCovered counts the days on which subjectCode already has at least
// one theory occurrence placed.
func daysCovered(grid *Grid, subjectCode string) int {
	covered := 0
	for _, d := range Days {
		if grid.countOnDay(d, subjectCode) > 0 {
			covered++
		}
	}
	return covered
}

// placeOneRound attempts a single placement (pair or single) for subject s
// this round, returning whether a placement succeeded.
func placeOneRound(grid *Grid, s Subject, d *Demand, maxPerDay int, pref FacultyPreference, rng Rand) bool {
	dayMultiset := buildDayMultiset(grid, s, maxPerDay, pref, rng)
	if len(dayMultiset) == 0 {
		return false
	}
	rng.Shuffle(len(dayMultiset), func(i, j int) { dayMultiset[i], dayMultiset[j] = dayMultiset[j], dayMultiset[i] })

	for _, day := range dayMultiset {
		if grid.countOnDay(day, s.Code) == 0 && d.TheoryLeft >= 2 {
			if placeConsecutivePair(grid, day, s.Code) {
				d.TheoryLeft -= 2
				return true
			}
		}
		if placeSingleSlot(grid, day, s.Code, rng) {
			d.TheoryLeft--
			return true
		}
	}
	return false
}

// buildDayMultiset computes per-day weights and
// expands them into a multiset with integer multiplicity ceil(weight).
func buildDayMultiset(grid *Grid, s Subject, maxPerDay int, pref FacultyPreference, rng Rand) []Day {
	var multiset []Day
	for _, d := range Days {
		count := grid.countOnDay(d, s.Code)
		weight := 10.0 - 5.0*float64(count)
		if count >= maxPerDay {
			weight = 0
		}
		if weight <= 0 {
			continue
		}
		weight += jitter(rng, 1)
		weight += 0.2 * float64(grid.freeSlotsOnDay(d))
		if pref.Faculty != "" && pref.prefers(d) {
			weight *= preferenceBoostMultiplier
		}
		if weight <= 0 {
			continue
		}
		multiplicity := int(math.Ceil(weight))
		for i := 0; i < multiplicity; i++ {
			multiset = append(multiset, d)
		}
	}
	return multiset
}

// placeConsecutivePair writes a two-slot run for subjectCode on day,
// choosing an index pair that touches no break and would not exceed
// MaxConsecutive.
func placeConsecutivePair(grid *Grid, day Day, subjectCode string) bool {
	row := grid.Cells[day]
	for i := 0; i < SlotsPerDay-1; i++ {
		j := i + 1
		if IsBreakIndex(i) || IsBreakIndex(j) || IsBreakIndex(i-1) || IsBreakIndex(j+1) {
			continue
		}
		if !row[i].Writable() || !row[j].Writable() {
			continue
		}
		before := 0
		for k := i - 1; k >= 0 && row[k].kind == kindSubject && row[k].subjectCode == subjectCode; k-- {
			before++
		}
		after := 0
		for k := j + 1; k < SlotsPerDay && row[k].kind == kindSubject && row[k].subjectCode == subjectCode; k++ {
			after++
		}
		if before+after+2 > MaxConsecutive {
			continue
		}
		row[i] = subjectCell(subjectCode)
		row[j] = subjectCell(subjectCode)
		return true
	}
	return false
}

// placeSingleSlot places one occurrence of subjectCode on day, weighting
// candidate slots by a +0.3 morning-break-adjacency bonus and jitter, then
// picking via weighted roulette.
func placeSingleSlot(grid *Grid, day Day, subjectCode string, rng Rand) bool {
	row := grid.Cells[day]
	var candidates []int
	var weights []float64
	for i, c := range row {
		if !c.Writable() {
			continue
		}
		if grid.wouldExceedConsecutive(day, i, subjectCode) {
			continue
		}
		weight := 1.0
		if i == MorningBreakIndex-1 {
			weight += 0.3
		}
		weight += jitter(rng, 0.5)
		if weight < 0 {
			weight = 0
		}
		candidates = append(candidates, i)
		weights = append(weights, weight)
	}
	if len(candidates) == 0 {
		return false
	}
	idx := weightedRoulette(rng, weights)
	row[candidates[idx]] = subjectCell(subjectCode)
	return true
}

// weightedRoulette picks an index proportional to weights, falling back to
// a uniform pick when every weight is zero.
func weightedRoulette(rng Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}
	target := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if target <= cum {
			return i
		}
	}
	return len(weights) - 1
}
