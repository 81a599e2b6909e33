package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/onboard-api/internal/model"
)

// DefaultWindowDays is the forward-looking expansion horizon.
const DefaultWindowDays = 60

// TimeOfDayBucket is a coarse local-start-hour classification used by the
// expansion index.
type TimeOfDayBucket string

const (
	BucketMorning   TimeOfDayBucket = "morning"   // 06:00-12:00
	BucketAfternoon TimeOfDayBucket = "afternoon" // 12:00-18:00
	BucketEvening   TimeOfDayBucket = "evening"   // 18:00-24:00
	BucketNight     TimeOfDayBucket = "night"     // 00:00-06:00
)

// IndexedSet is the expander's output: the flat instance list plus lookup
// indexes by weekday and time-of-day bucket. The indexes are an optimization
// for callers that want a narrow scan; the scorer walks All.
type IndexedSet struct {
	All       []*model.ExpandedInstance
	ByWeekday map[time.Weekday][]*model.ExpandedInstance
	ByBucket  map[TimeOfDayBucket][]*model.ExpandedInstance
}

// Expander turns raw, possibly-repeating availability records into concrete
// instances inside a fixed forward window.
type Expander struct {
	windowDays int
	defaultLoc *time.Location
}

func NewExpander(windowDays int, defaultLoc *time.Location) *Expander {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Expander{windowDays: windowDays, defaultLoc: defaultLoc}
}

// Expand runs the full pipeline: filter, expand recurrences, index.
func (e *Expander) Expand(records []*model.AvailabilityRecord, organizationID uuid.UUID, referenceDate time.Time) *IndexedSet {
	active := e.FilterActive(records, organizationID, referenceDate)
	instances := e.ExpandRepeating(active, referenceDate)
	return e.Index(instances)
}

// FilterActive drops records that can never produce an eligible instance:
// soft-deleted, wrong organization, started in the past, starting beyond the
// window, or repeating records whose recurrence already ended. Malformed
// records are skipped one at a time, never failing the batch.
func (e *Expander) FilterActive(records []*model.AvailabilityRecord, organizationID uuid.UUID, referenceDate time.Time) []*model.AvailabilityRecord {
	windowEnd := referenceDate.AddDate(0, 0, e.windowDays)

	var active []*model.AvailabilityRecord
	for _, rec := range records {
		if rec.DeletedAt != nil {
			continue
		}
		if rec.OwnerOrganizationID != organizationID {
			continue
		}
		if rec.RangeStart.IsZero() || rec.RangeEnd.IsZero() || rec.RangeEnd.Before(rec.RangeStart) {
			log.Warn().
				Str("record_id", rec.ID.String()).
				Time("range_start", rec.RangeStart).
				Time("range_end", rec.RangeEnd).
				Msg("skipping availability record with malformed range")
			continue
		}
		if rec.RangeStart.Before(referenceDate) || rec.RangeStart.After(windowEnd) {
			continue
		}
		if rec.IsRepeating && rec.EndOn != nil && rec.EndOn.Before(referenceDate) {
			continue
		}
		active = append(active, rec)
	}
	return active
}

// ExpandRepeating passes one-time records through and walks every calendar
// date in the window for repeating ones, synthesizing an instance on each
// date whose weekday matches the record's DayOfWeek. Synthetic instances copy
// the template's time-of-day onto the selected date.
func (e *Expander) ExpandRepeating(records []*model.AvailabilityRecord, referenceDate time.Time) []*model.ExpandedInstance {
	var instances []*model.ExpandedInstance
	for _, rec := range records {
		if !rec.IsRepeating {
			instances = append(instances, e.instanceFromRecord(rec))
			continue
		}

		if rec.DayOfWeek == nil || *rec.DayOfWeek < 0 || *rec.DayOfWeek > 6 {
			log.Warn().
				Str("record_id", rec.ID.String()).
				Msg("skipping repeating availability record without a valid day of week")
			continue
		}

		loc := rec.Location(e.defaultLoc)
		start := rec.RangeStart.In(loc)
		end := rec.RangeEnd.In(loc)

		expansionEnd := referenceDate.AddDate(0, 0, e.windowDays)
		if rec.EndOn != nil && rec.EndOn.Before(expansionEnd) {
			expansionEnd = *rec.EndOn
		}

		refLocal := referenceDate.In(loc)
		day := time.Date(refLocal.Year(), refLocal.Month(), refLocal.Day(), 0, 0, 0, 0, loc)
		for !day.After(expansionEnd) {
			if int(day.Weekday()) == *rec.DayOfWeek {
				instances = append(instances, e.instanceOnDate(rec, day, start, end, loc))
			}
			day = day.AddDate(0, 0, 1)
		}
	}
	return instances
}

func (e *Expander) instanceFromRecord(rec *model.AvailabilityRecord) *model.ExpandedInstance {
	loc := rec.Location(e.defaultLoc)
	return &model.ExpandedInstance{
		InstanceID:            model.InstanceIDFor(rec.ID, rec.RangeStart.In(loc)),
		OriginalID:            rec.ID,
		OwnerID:               rec.OwnerID,
		OwnerOrganizationID:   rec.OwnerOrganizationID,
		LocationID:            rec.LocationID,
		RangeStart:            rec.RangeStart,
		RangeEnd:              rec.RangeEnd,
		Timezone:              rec.Timezone,
		ExpandedFromRepeating: false,
	}
}

func (e *Expander) instanceOnDate(rec *model.AvailabilityRecord, day time.Time, tmplStart, tmplEnd time.Time, loc *time.Location) *model.ExpandedInstance {
	start := time.Date(day.Year(), day.Month(), day.Day(),
		tmplStart.Hour(), tmplStart.Minute(), tmplStart.Second(), 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(),
		tmplEnd.Hour(), tmplEnd.Minute(), tmplEnd.Second(), 0, loc)
	if !end.After(start) {
		// Template crosses local midnight.
		end = end.AddDate(0, 0, 1)
	}

	return &model.ExpandedInstance{
		InstanceID:            model.InstanceIDFor(rec.ID, day),
		OriginalID:            rec.ID,
		OwnerID:               rec.OwnerID,
		OwnerOrganizationID:   rec.OwnerOrganizationID,
		LocationID:            rec.LocationID,
		RangeStart:            start,
		RangeEnd:              end,
		Timezone:              rec.Timezone,
		ExpandedFromRepeating: true,
	}
}

// Index builds the weekday and time-of-day lookup tables over the flat list.
func (e *Expander) Index(instances []*model.ExpandedInstance) *IndexedSet {
	set := &IndexedSet{
		All:       instances,
		ByWeekday: make(map[time.Weekday][]*model.ExpandedInstance),
		ByBucket:  make(map[TimeOfDayBucket][]*model.ExpandedInstance),
	}
	for _, inst := range instances {
		local := inst.RangeStart.In(inst.Location(e.defaultLoc))
		wd := local.Weekday()
		bucket := bucketForHour(local.Hour())
		set.ByWeekday[wd] = append(set.ByWeekday[wd], inst)
		set.ByBucket[bucket] = append(set.ByBucket[bucket], inst)
	}
	return set
}

func bucketForHour(hour int) TimeOfDayBucket {
	switch {
	case hour >= 6 && hour < 12:
		return BucketMorning
	case hour >= 12 && hour < 18:
		return BucketAfternoon
	case hour >= 18:
		return BucketEvening
	default:
		return BucketNight
	}
}
