package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/onboard-api/internal/model"
)

func (r *availabilityRepository) LoadAvailability(ctx context.Context, organizationID uuid.UUID, referenceDate time.Time, windowDays int) ([]*model.AvailabilityRecord, error) {
	// Repeating templates are returned regardless of their template start so
	// the expander can decide per occurrence; one-time windows outside the
	// forward window are cut here to keep the batch small.
	query := `
		SELECT id, owner_id, owner_organization_id, location_id,
			   range_start, range_end, timezone, day_of_week,
			   is_repeating, end_on, deleted_at,
			   created_at, updated_at
		FROM availability
		WHERE owner_organization_id = $1
		AND deleted_at IS NULL
		AND (
			is_repeating = true
			OR (range_start >= $2 AND range_start < $3)
		)
		ORDER BY range_start ASC
	`
	windowEnd := referenceDate.AddDate(0, 0, windowDays)

	var records []*model.AvailabilityRecord
	err := r.db.SelectContext(ctx, &records, query, organizationID, referenceDate, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	return records, nil
}

func (r *availabilityRepository) Create(ctx context.Context, record *model.AvailabilityRecord) error {
	query := `
		INSERT INTO availability (
			id, owner_id, owner_organization_id, location_id,
			range_start, range_end, timezone, day_of_week,
			is_repeating, end_on, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.OwnerID,
		record.OwnerOrganizationID,
		record.LocationID,
		record.RangeStart,
		record.RangeEnd,
		record.Timezone,
		record.DayOfWeek,
		record.IsRepeating,
		record.EndOn,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create availability record: %w", err)
	}
	return nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE availability
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete availability record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("availability record not found")
	}

	return nil
}
