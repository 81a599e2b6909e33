package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoredSlot is a single bookable 30-minute unit produced by the matcher.
// Immutable once produced; SourceInstanceID/OriginalID trace it back to the
// availability it was carved from.
type ScoredSlot struct {
	OwnerID          uuid.UUID `json:"owner_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Timezone         string    `json:"timezone"`
	LocationID       uuid.UUID `json:"location_id"`
	MatchScore       float64   `json:"match_score"`
	SourceInstanceID string    `json:"source_instance_id"`
	OriginalID       uuid.UUID `json:"original_id"`
}

// FormattedSlot is a ScoredSlot plus the display strings rendered in the
// caller's timezone. Scoring never uses these fields.
type FormattedSlot struct {
	ScoredSlot
	DateDisplay     string `json:"date_display"`
	TimeDisplay     string `json:"time_display"`
	TimezoneDisplay string `json:"timezone_display"`
	Display         string `json:"display"`
}

// MatchSlotsRequest is the service-boundary input: who is asking, the
// extracted preferences, and the timezone to render results in.
type MatchSlotsRequest struct {
	OrganizationID uuid.UUID       `json:"organization_id" validate:"required"`
	Preferences    PreferenceModel `json:"preferences"`
	Timezone       string          `json:"timezone"`
}
