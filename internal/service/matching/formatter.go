package matching

import (
	"fmt"
	"time"

	"github.com/jwalitptl/onboard-api/internal/model"
)

// Formatter renders scored slots for display in the caller's timezone. It is
// pure: no side effects, inputs never mutated, safe to call repeatedly.
type Formatter struct{}

func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatSlot renders one slot. The display location only affects the
// human-readable strings; the slot's instants and scoring timezone pass
// through untouched.
func (f *Formatter) FormatSlot(slot model.ScoredSlot, display *time.Location) model.FormattedSlot {
	if display == nil {
		display = time.UTC
	}
	start := slot.StartTime.In(display)
	end := slot.EndTime.In(display)

	dateDisplay := start.Format("Monday, January 2, 2006")
	timeDisplay := fmt.Sprintf("%s - %s", start.Format("3:04 PM"), end.Format("3:04 PM"))
	zone, _ := start.Zone()

	return model.FormattedSlot{
		ScoredSlot:      slot,
		DateDisplay:     dateDisplay,
		TimeDisplay:     timeDisplay,
		TimezoneDisplay: zone,
		Display:         fmt.Sprintf("%s at %s (%s)", dateDisplay, timeDisplay, zone),
	}
}

// FormatSlots renders a ranked slot list in order.
func (f *Formatter) FormatSlots(slots []model.ScoredSlot, display *time.Location) []model.FormattedSlot {
	formatted := make([]model.FormattedSlot, 0, len(slots))
	for _, slot := range slots {
		formatted = append(formatted, f.FormatSlot(slot, display))
	}
	return formatted
}
