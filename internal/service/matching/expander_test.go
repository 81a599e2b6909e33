package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/onboard-api/internal/model"
)

var (
	testOrgID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherOrgID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testOwnerID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

// refMonday is a Monday at local midnight, the expander's reference date in
// these tests.
var refMonday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func newRecord(start, end time.Time) *model.AvailabilityRecord {
	return &model.AvailabilityRecord{
		Base:                model.Base{ID: uuid.New()},
		OwnerID:             testOwnerID,
		OwnerOrganizationID: testOrgID,
		LocationID:          uuid.New(),
		RangeStart:          start,
		RangeEnd:            end,
		Timezone:            "UTC",
	}
}

func newRepeating(dayOfWeek int, start, end time.Time) *model.AvailabilityRecord {
	rec := newRecord(start, end)
	rec.IsRepeating = true
	rec.DayOfWeek = &dayOfWeek
	return rec
}

func TestFilterActiveDropsIneligibleRecords(t *testing.T) {
	e := NewExpander(DefaultWindowDays, time.UTC)

	inWindow := newRecord(refMonday.Add(24*time.Hour), refMonday.Add(26*time.Hour))

	deleted := newRecord(refMonday.Add(24*time.Hour), refMonday.Add(26*time.Hour))
	now := time.Now()
	deleted.DeletedAt = &now

	foreign := newRecord(refMonday.Add(24*time.Hour), refMonday.Add(26*time.Hour))
	foreign.OwnerOrganizationID = otherOrgID

	past := newRecord(refMonday.Add(-time.Hour), refMonday.Add(time.Hour))

	beyond := newRecord(refMonday.AddDate(0, 0, 70), refMonday.AddDate(0, 0, 70).Add(2*time.Hour))

	ended := newRepeating(2, refMonday.Add(24*time.Hour), refMonday.Add(26*time.Hour))
	endOn := refMonday.AddDate(0, 0, -7)
	ended.EndOn = &endOn

	active := e.FilterActive([]*model.AvailabilityRecord{inWindow, deleted, foreign, past, beyond, ended}, testOrgID, refMonday)

	require.Len(t, active, 1)
	assert.Equal(t, inWindow.ID, active[0].ID)
}

func TestFilterActiveSkipsMalformedRange(t *testing.T) {
	e := NewExpander(DefaultWindowDays, time.UTC)

	inverted := newRecord(refMonday.Add(26*time.Hour), refMonday.Add(24*time.Hour))
	ok := newRecord(refMonday.Add(24*time.Hour), refMonday.Add(26*time.Hour))

	active := e.FilterActive([]*model.AvailabilityRecord{inverted, ok}, testOrgID, refMonday)
	require.Len(t, active, 1)
	assert.Equal(t, ok.ID, active[0].ID)
}

func TestExpandRepeatingProducesEveryMatchingDate(t *testing.T) {
	e := NewExpander(DefaultWindowDays, time.UTC)

	// Tuesday template, 9:00-11:00.
	rec := newRepeating(2,
		time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 11, 0, 0, 0, time.UTC))

	instances := e.ExpandRepeating([]*model.AvailabilityRecord{rec}, refMonday)

	// 61 calendar days starting on a Monday contain 9 Tuesdays.
	require.Len(t, instances, 9)
	for _, inst := range instances {
		assert.Equal(t, time.Tuesday, inst.RangeStart.Weekday())
		assert.Equal(t, 9, inst.RangeStart.Hour())
		assert.Equal(t, 11, inst.RangeEnd.Hour())
		assert.True(t, inst.ExpandedFromRepeating)
		assert.Equal(t, rec.ID, inst.OriginalID)
		assert.Equal(t, model.InstanceIDFor(rec.ID, inst.RangeStart), inst.InstanceID)
	}
	assert.Equal(t, time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC), instances[0].RangeStart)
}

func TestExpandRepeatingHonorsEndOn(t *testing.T) {
	e := NewExpander(DefaultWindowDays, time.UTC)

	rec := newRepeating(2,
		time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 11, 0, 0, 0, time.UTC))
	endOn := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	rec.EndOn = &endOn

	instances := e.ExpandRepeating([]*model.AvailabilityRecord{rec}, refMonday)

	// Only June 3, 10 and 17 fall before the recurrence end.
	require.Len(t, instances, 3)
}

func TestExpandRepeatingSkipsMissingDayOfWeek(t *testing.T) {
	e := NewExpander(DefaultWindowDays, time.UTC)

	rec := newRecord(refMonday.Add(9*time.Hour), refMonday.Add(11*time.Hour))
	rec.IsRepeating = true // DayOfWeek left nil

	instances := e.ExpandRepeating([]*model.AvailabilityRecord{rec}, refMonday)
	assert.Empty(t, instances)
}

func TestExpandRepeatingCrossesMidnight(t *testing.T) {
	e := NewExpander(DefaultWindowDays, time.UTC)

	// Friday 22:00 through Saturday 02:00.
	rec := newRepeating(5,
		time.Date(2025, 6, 6, 22, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 7, 2, 0, 0, 0, time.UTC))

	instances := e.ExpandRepeating([]*model.AvailabilityRecord{rec}, refMonday)
	require.NotEmpty(t, instances)
	for _, inst := range instances {
		assert.Equal(t, time.Friday, inst.RangeStart.Weekday())
		assert.Equal(t, 4*time.Hour, inst.RangeEnd.Sub(inst.RangeStart))
	}
}

func TestExpandPassesOneTimeRecordsThrough(t *testing.T) {
	e := NewExpander(DefaultWindowDays, time.UTC)

	rec := newRecord(refMonday.Add(24*time.Hour), refMonday.Add(26*time.Hour))
	set := e.Expand([]*model.AvailabilityRecord{rec}, testOrgID, refMonday)

	require.Len(t, set.All, 1)
	inst := set.All[0]
	assert.False(t, inst.ExpandedFromRepeating)
	assert.Equal(t, rec.RangeStart, inst.RangeStart)
	assert.Equal(t, rec.RangeEnd, inst.RangeEnd)
}

func TestIndexBucketsByWeekdayAndTimeOfDay(t *testing.T) {
	e := NewExpander(DefaultWindowDays, time.UTC)

	morning := newRecord(refMonday.Add(33*time.Hour), refMonday.Add(35*time.Hour))   // Tue 09:00
	evening := newRecord(refMonday.Add(43*time.Hour), refMonday.Add(45*time.Hour))   // Tue 19:00
	night := newRecord(refMonday.Add(26*time.Hour), refMonday.Add(28*time.Hour))     // Tue 02:00
	afternoon := newRecord(refMonday.Add(61*time.Hour), refMonday.Add(63*time.Hour)) // Wed 13:00

	set := e.Expand([]*model.AvailabilityRecord{morning, evening, night, afternoon}, testOrgID, refMonday)

	require.Len(t, set.All, 4)
	assert.Len(t, set.ByWeekday[time.Tuesday], 3)
	assert.Len(t, set.ByWeekday[time.Wednesday], 1)
	assert.Len(t, set.ByBucket[BucketMorning], 1)
	assert.Len(t, set.ByBucket[BucketAfternoon], 1)
	assert.Len(t, set.ByBucket[BucketEvening], 1)
	assert.Len(t, set.ByBucket[BucketNight], 1)
}
