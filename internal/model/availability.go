package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AvailabilityRecord is a clinician's declared open window, either a single
// concrete instance or a weekly-recurring template. Repeating records carry
// the time-of-day of their first instance in RangeStart/RangeEnd and the
// weekday they repeat on in DayOfWeek (0 = Sunday .. 6 = Saturday).
type AvailabilityRecord struct {
	Base
	OwnerID             uuid.UUID  `db:"owner_id" json:"owner_id"`
	OwnerOrganizationID uuid.UUID  `db:"owner_organization_id" json:"owner_organization_id"`
	LocationID          uuid.UUID  `db:"location_id" json:"location_id"`
	RangeStart          time.Time  `db:"range_start" json:"range_start"`
	RangeEnd            time.Time  `db:"range_end" json:"range_end"`
	Timezone            string     `db:"timezone" json:"timezone"`
	DayOfWeek           *int       `db:"day_of_week" json:"day_of_week,omitempty"`
	IsRepeating         bool       `db:"is_repeating" json:"is_repeating"`
	EndOn               *time.Time `db:"end_on" json:"end_on,omitempty"`
}

// Location resolves the record's IANA timezone, falling back to the supplied
// organizational default when the field is empty or unparseable.
func (r *AvailabilityRecord) Location(fallback *time.Location) *time.Location {
	if r.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// ExpandedInstance is one concrete, non-repeating occurrence derived from an
// AvailabilityRecord. Instances are recomputed per request (or served from
// the expansion cache) and never persisted.
type ExpandedInstance struct {
	InstanceID            string    `json:"instance_id"`
	OriginalID            uuid.UUID `json:"original_id"`
	OwnerID               uuid.UUID `json:"owner_id"`
	OwnerOrganizationID   uuid.UUID `json:"owner_organization_id"`
	LocationID            uuid.UUID `json:"location_id"`
	RangeStart            time.Time `json:"range_start"`
	RangeEnd              time.Time `json:"range_end"`
	Timezone              string    `json:"timezone"`
	ExpandedFromRepeating bool      `json:"expanded_from_repeating"`
}

// Location resolves the instance's IANA timezone with the same fallback
// semantics as AvailabilityRecord.Location.
func (i *ExpandedInstance) Location(fallback *time.Location) *time.Location {
	if i.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(i.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// InstanceIDFor builds the synthetic id for an occurrence of a repeating
// record on a given calendar date.
func InstanceIDFor(originalID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s_%s", originalID, date.Format("2006-01-02"))
}

type CreateAvailabilityRequest struct {
	OwnerID             uuid.UUID  `json:"owner_id" validate:"required"`
	OwnerOrganizationID uuid.UUID  `json:"owner_organization_id" validate:"required"`
	LocationID          uuid.UUID  `json:"location_id"`
	RangeStart          time.Time  `json:"range_start" validate:"required"`
	RangeEnd            time.Time  `json:"range_end" validate:"required"`
	Timezone            string     `json:"timezone"`
	DayOfWeek           *int       `json:"day_of_week,omitempty"`
	IsRepeating         bool       `json:"is_repeating"`
	EndOn               *time.Time `json:"end_on,omitempty"`
}

// ToRecord converts the request into a storable record.
func (r *CreateAvailabilityRequest) ToRecord() *AvailabilityRecord {
	return &AvailabilityRecord{
		OwnerID:             r.OwnerID,
		OwnerOrganizationID: r.OwnerOrganizationID,
		LocationID:          r.LocationID,
		RangeStart:          r.RangeStart,
		RangeEnd:            r.RangeEnd,
		Timezone:            r.Timezone,
		DayOfWeek:           r.DayOfWeek,
		IsRepeating:         r.IsRepeating,
		EndOn:               r.EndOn,
	}
}
