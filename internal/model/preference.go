package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// RecurringPattern is a named scheduling cadence extracted from the user's
// free-text availability by the upstream language-understanding step.
type RecurringPattern string

const (
	PatternNone     RecurringPattern = "none"
	PatternWeekdays RecurringPattern = "weekdays"
	PatternWeekends RecurringPattern = "weekends"
	PatternDaily    RecurringPattern = "daily"
)

// TimeRange is a wall-clock preference window, 24h "HH:MM".
type TimeRange struct {
	Start string `json:"start" validate:"required,datetime=15:04"`
	End   string `json:"end" validate:"required,datetime=15:04"`
}

// DateConstraints bounds eligible dates; either side may be open.
type DateConstraints struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// PreferenceModel is the structured scheduling intent produced upstream from
// the user's narrative answer. It arrives over a trust boundary, so it is
// validated strictly before it reaches the scorer: out-of-range weekdays,
// malformed clock times and malformed dates are rejected here. An entirely
// empty model is valid and means "match everything".
type PreferenceModel struct {
	DaysOfWeek       []int            `json:"days_of_week" validate:"omitempty,dive,min=0,max=6"`
	TimeRanges       []TimeRange      `json:"time_ranges" validate:"omitempty,dive"`
	DateConstraints  *DateConstraints `json:"date_constraints,omitempty"`
	SpecificDates    []string         `json:"specific_dates" validate:"omitempty,dive,datetime=2006-01-02"`
	RecurringPattern RecurringPattern `json:"recurring_pattern" validate:"omitempty,oneof=none weekdays weekends daily"`
}

var validate = validator.New()

// Validate checks the model against its schema and verifies ordering
// constraints the tag syntax cannot express.
func (p *PreferenceModel) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid preference model: %w", err)
	}
	for _, tr := range p.TimeRanges {
		start, _ := ParseClock(tr.Start)
		end, _ := ParseClock(tr.End)
		if end < start {
			return fmt.Errorf("invalid preference model: time range %s-%s ends before it starts", tr.Start, tr.End)
		}
	}
	if dc := p.DateConstraints; dc != nil && dc.StartDate != "" && dc.EndDate != "" {
		if dc.EndDate < dc.StartDate {
			return fmt.Errorf("invalid preference model: date constraints %s..%s are inverted", dc.StartDate, dc.EndDate)
		}
	}
	return nil
}

// Normalize fills defaults the upstream extractor may omit.
func (p *PreferenceModel) Normalize() {
	if p.RecurringPattern == "" {
		p.RecurringPattern = PatternNone
	}
}

// ParseClock converts "HH:MM" into minutes since local midnight. The second
// return is false when the string is malformed.
func ParseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
