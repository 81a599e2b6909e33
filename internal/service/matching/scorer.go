package matching

import (
	"sort"
	"time"

	"github.com/jwalitptl/onboard-api/internal/model"
)

// Scoring weights and thresholds. Day and time dominate because they are the
// two axes the user actually expressed; date and pattern refine. The adjacent
// day half credit, the narrow-range widening and the date tolerance keep
// near-miss phrasing from producing zero results.
const (
	SlotDurationMinutes = 30
	MaxResults          = 5

	dayWeight     = 0.3
	timeWeight    = 0.4
	dateWeight    = 0.2
	patternWeight = 0.1

	adjacentDayCredit  = 0.5
	nearDateCredit     = 0.5
	narrowRangeMinutes = 120
	wideningMinutes    = 30
	dateToleranceDays  = 3

	tieEpsilon = 0.001

	minutesPerDay = 24 * 60
	lastClockMin  = 23*60 + 59
)

// Scorer ranks expanded availability instances against a preference model
// and carves the retained ones into bookable 30-minute units. It holds no
// state between calls.
type Scorer struct {
	defaultLoc *time.Location
}

func NewScorer(defaultLoc *time.Location) *Scorer {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Scorer{defaultLoc: defaultLoc}
}

// Match scores every instance, keeps those with a positive combined score,
// splits them into units and returns the top MaxResults ordered by score
// descending with earliest start breaking near ties. An empty result is a
// valid outcome.
func (s *Scorer) Match(prefs *model.PreferenceModel, set *IndexedSet) []model.ScoredSlot {
	if set == nil {
		return nil
	}

	var units []model.ScoredSlot
	for _, inst := range set.All {
		// Day and time matching reflect the owning resource's local
		// calendar, never the caller's.
		loc := inst.Location(s.defaultLoc)
		localStart := inst.RangeStart.In(loc)
		localEnd := inst.RangeEnd.In(loc)

		if !passesSpecificDates(localStart, prefs.SpecificDates) {
			continue
		}

		// A named pattern is a hard gate: a Saturday instance never
		// surfaces for a "weekdays" preference no matter how well its
		// time fits.
		pattern := patternScore(localStart.Weekday(), prefs.RecurringPattern)
		if pattern == 0 {
			continue
		}

		score := dayWeight*dayScore(localStart.Weekday(), prefs) +
			timeWeight*timeScore(localStart, localEnd, prefs.TimeRanges) +
			dateWeight*dateScore(localStart, prefs.DateConstraints) +
			patternWeight*pattern

		if score <= 0 {
			continue
		}

		units = append(units, splitIntoUnits(inst, localStart, localEnd, score)...)
	}

	sort.SliceStable(units, func(i, j int) bool {
		diff := units[i].MatchScore - units[j].MatchScore
		if diff < tieEpsilon && diff > -tieEpsilon {
			return units[i].StartTime.Before(units[j].StartTime)
		}
		return diff > 0
	})

	if len(units) > MaxResults {
		units = units[:MaxResults]
	}
	return units
}

func passesSpecificDates(localStart time.Time, dates []string) bool {
	if len(dates) == 0 {
		return true
	}
	day := localStart.Format("2006-01-02")
	for _, d := range dates {
		if d == day {
			return true
		}
	}
	return false
}

// dayScore grades the instance's local weekday against the preference. A
// named recurring pattern short-circuits the explicit day list; with no
// pattern, an exact day earns full credit and a day adjacent to any wanted
// day (wrapping Saturday to Sunday) earns half.
func dayScore(wd time.Weekday, prefs *model.PreferenceModel) float64 {
	switch prefs.RecurringPattern {
	case model.PatternWeekdays:
		if wd >= time.Monday && wd <= time.Friday {
			return 1.0
		}
		return 0.0
	case model.PatternWeekends:
		if wd == time.Saturday || wd == time.Sunday {
			return 1.0
		}
		return 0.0
	case model.PatternDaily:
		return 1.0
	}

	if len(prefs.DaysOfWeek) == 0 {
		return 1.0
	}
	for _, d := range prefs.DaysOfWeek {
		if int(wd) == d {
			return 1.0
		}
	}
	for _, d := range prefs.DaysOfWeek {
		prev := (d + 6) % 7
		next := (d + 1) % 7
		if int(wd) == prev || int(wd) == next {
			return adjacentDayCredit
		}
	}
	return 0.0
}

// timeScore is the best overlap ratio across all preferred ranges. Preferred
// ranges shorter than two hours are widened by 30 minutes on each side,
// clamped to the day, before comparing. An instance crossing local midnight
// is treated as ending past 24:00.
func timeScore(localStart, localEnd time.Time, ranges []model.TimeRange) float64 {
	if len(ranges) == 0 {
		return 1.0
	}

	instStart := localStart.Hour()*60 + localStart.Minute()
	instEnd := localEnd.Hour()*60 + localEnd.Minute()
	if instEnd <= instStart {
		instEnd += minutesPerDay
	}
	instLen := instEnd - instStart

	best := 0.0
	for _, tr := range ranges {
		prefStart, ok := model.ParseClock(tr.Start)
		if !ok {
			continue
		}
		prefEnd, ok := model.ParseClock(tr.End)
		if !ok {
			continue
		}
		if prefEnd-prefStart < narrowRangeMinutes {
			prefStart = max(0, prefStart-wideningMinutes)
			prefEnd = min(lastClockMin, prefEnd+wideningMinutes)
		}
		prefLen := prefEnd - prefStart
		if prefLen <= 0 {
			continue
		}

		overlap := overlapMinutes(prefStart, prefEnd, instStart, instEnd)
		if instEnd > minutesPerDay {
			// The post-midnight tail lands on the next day's clock.
			if o := overlapMinutes(prefStart+minutesPerDay, prefEnd+minutesPerDay, instStart, instEnd); o > overlap {
				overlap = o
			}
		}
		if overlap <= 0 {
			continue
		}

		denom := prefLen
		if instLen > denom {
			denom = instLen
		}
		if score := float64(overlap) / float64(denom); score > best {
			best = score
		}
	}
	return best
}

func overlapMinutes(aStart, aEnd, bStart, bEnd int) int {
	start := max(aStart, bStart)
	end := min(aEnd, bEnd)
	if end <= start {
		return 0
	}
	return end - start
}

// dateScore grades the instance's local date against explicit bounds: full
// credit inside them, half credit within three calendar days of a violated
// bound, zero beyond.
func dateScore(localStart time.Time, dc *model.DateConstraints) float64 {
	if dc == nil || (dc.StartDate == "" && dc.EndDate == "") {
		return 1.0
	}

	day := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, time.UTC)

	violation := 0
	if dc.StartDate != "" {
		if startDate, err := time.Parse("2006-01-02", dc.StartDate); err == nil && day.Before(startDate) {
			violation = int(startDate.Sub(day).Hours() / 24)
		}
	}
	if dc.EndDate != "" {
		if endDate, err := time.Parse("2006-01-02", dc.EndDate); err == nil && day.After(endDate) {
			if d := int(day.Sub(endDate).Hours() / 24); d > violation {
				violation = d
			}
		}
	}

	switch {
	case violation == 0:
		return 1.0
	case violation <= dateToleranceDays:
		return nearDateCredit
	default:
		return 0.0
	}
}

// patternScore independently re-checks the named pattern; both this gate and
// dayScore must pass for a pattern-constrained preference.
func patternScore(wd time.Weekday, pattern model.RecurringPattern) float64 {
	switch pattern {
	case model.PatternWeekdays:
		if wd >= time.Monday && wd <= time.Friday {
			return 1.0
		}
		return 0.0
	case model.PatternWeekends:
		if wd == time.Saturday || wd == time.Sunday {
			return 1.0
		}
		return 0.0
	case model.PatternDaily:
		return 1.0
	default:
		return 1.0
	}
}

// splitIntoUnits carves a retained instance into consecutive 30-minute
// units; a trailing partial unit is dropped.
func splitIntoUnits(inst *model.ExpandedInstance, localStart, localEnd time.Time, score float64) []model.ScoredSlot {
	durMinutes := int(localEnd.Sub(localStart).Minutes())
	count := durMinutes / SlotDurationMinutes

	slots := make([]model.ScoredSlot, 0, count)
	for i := 0; i < count; i++ {
		start := localStart.Add(time.Duration(i*SlotDurationMinutes) * time.Minute)
		slots = append(slots, model.ScoredSlot{
			OwnerID:          inst.OwnerID,
			StartTime:        start,
			EndTime:          start.Add(SlotDurationMinutes * time.Minute),
			Timezone:         inst.Timezone,
			LocationID:       inst.LocationID,
			MatchScore:       score,
			SourceInstanceID: inst.InstanceID,
			OriginalID:       inst.OriginalID,
		})
	}
	return slots
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
