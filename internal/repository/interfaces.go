package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/onboard-api/internal/model"
)

type (
	// AvailabilityRepository supplies raw clinician availability for an
	// organization. It returns every stored record whose window could fall
	// inside [referenceDate, referenceDate+windowDays]; eligibility
	// filtering beyond that is the expander's job.
	AvailabilityRepository interface {
		LoadAvailability(ctx context.Context, organizationID uuid.UUID, referenceDate time.Time, windowDays int) ([]*model.AvailabilityRecord, error)
		Create(ctx context.Context, record *model.AvailabilityRecord) error
		Delete(ctx context.Context, id uuid.UUID) error
	}
)
