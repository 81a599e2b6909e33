package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/onboard-api/internal/model"
	"github.com/jwalitptl/onboard-api/internal/repository"
	"github.com/jwalitptl/onboard-api/pkg/errors"
	"github.com/jwalitptl/onboard-api/pkg/messaging"
	"github.com/jwalitptl/onboard-api/pkg/metrics"
)

const matchEventChannel = "slots.matched"

// Config carries the matcher's tunables.
type Config struct {
	WindowDays      int
	CacheTTL        time.Duration
	DefaultTimezone string
}

// Service orchestrates one matching request: load raw availability, expand
// it (through the cache), score and rank against the preferences, format the
// winners. All I/O happens in the repository before the matcher runs.
type Service struct {
	repo       repository.AvailabilityRepository
	expander   *Expander
	scorer     *Scorer
	formatter  *Formatter
	cache      *ExpansionCache
	broker     messaging.Broker
	metrics    *metrics.Metrics
	defaultLoc *time.Location

	now func() time.Time
}

func NewService(repo repository.AvailabilityRepository, cfg Config, broker messaging.Broker, m *metrics.Metrics) *Service {
	defaultLoc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		log.Warn().Str("timezone", cfg.DefaultTimezone).Msg("unknown default timezone, falling back to UTC")
		defaultLoc = time.UTC
	}

	s := &Service{
		repo:       repo,
		expander:   NewExpander(cfg.WindowDays, defaultLoc),
		scorer:     NewScorer(defaultLoc),
		formatter:  NewFormatter(),
		broker:     broker,
		metrics:    m,
		defaultLoc: defaultLoc,
		now:        time.Now,
	}
	s.cache = NewExpansionCache(cfg.CacheTTL, s.loadExpanded)
	return s
}

func (s *Service) loadExpanded(ctx context.Context, organizationID uuid.UUID, referenceDate time.Time) (*IndexedSet, error) {
	records, err := s.repo.LoadAvailability(ctx, organizationID, referenceDate, s.expander.windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	set := s.expander.Expand(records, organizationID, referenceDate)
	if s.metrics != nil {
		s.metrics.ExpansionRuns.Inc()
		s.metrics.ExpandedInstances.Set(float64(len(set.All)))
	}
	return set, nil
}

// MatchSlots returns the ranked, formatted top candidates for the request.
// An empty result means no availability matched; it is not an error.
func (s *Service) MatchSlots(ctx context.Context, req *model.MatchSlotsRequest) ([]model.FormattedSlot, error) {
	started := s.now()

	req.Preferences.Normalize()
	if err := req.Preferences.Validate(); err != nil {
		return nil, errors.BadRequest(err.Error(), err)
	}

	display := s.defaultLoc
	if req.Timezone != "" {
		loc, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return nil, errors.BadRequest(fmt.Sprintf("unknown timezone %q", req.Timezone), err)
		}
		display = loc
	}

	set, err := s.cache.Get(ctx, req.OrganizationID, s.referenceDate())
	if err != nil {
		if s.metrics != nil {
			s.metrics.MatchRequests.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	scored := s.scorer.Match(&req.Preferences, set)
	formatted := s.formatter.FormatSlots(scored, display)

	if s.metrics != nil {
		s.metrics.MatchRequests.WithLabelValues("success").Inc()
		s.metrics.MatchLatency.Observe(s.now().Sub(started).Seconds())
		s.metrics.SlotsReturned.Observe(float64(len(formatted)))
	}

	s.publishMatched(ctx, req.OrganizationID, formatted)
	return formatted, nil
}

// CreateAvailability stores a new window and invalidates the organization's
// cached expansion.
func (s *Service) CreateAvailability(ctx context.Context, record *model.AvailabilityRecord) error {
	if record.RangeEnd.Before(record.RangeStart) {
		return errors.BadRequest("availability range ends before it starts", nil)
	}
	if record.IsRepeating && (record.DayOfWeek == nil || *record.DayOfWeek < 0 || *record.DayOfWeek > 6) {
		return errors.BadRequest("repeating availability requires a day of week between 0 and 6", nil)
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create availability: %w", err)
	}
	s.cache.Invalidate(record.OwnerOrganizationID)
	return nil
}

// DeleteAvailability soft-deletes a window and invalidates the
// organization's cached expansion.
func (s *Service) DeleteAvailability(ctx context.Context, id, organizationID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	s.cache.Invalidate(organizationID)
	return nil
}

// InvalidateExpansion forces the next match for the organization to reload
// availability from the store.
func (s *Service) InvalidateExpansion(organizationID uuid.UUID) {
	s.cache.Invalidate(organizationID)
}

// referenceDate is the start of the current day in server-local terms.
func (s *Service) referenceDate() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (s *Service) publishMatched(ctx context.Context, organizationID uuid.UUID, slots []model.FormattedSlot) {
	if s.broker == nil {
		return
	}
	event := messaging.Message{
		Type: matchEventChannel,
		Payload: model.JSONMap{
			"organization_id": organizationID,
			"slot_count":      len(slots),
			"matched_at":      s.now(),
		},
	}
	if err := s.broker.Publish(ctx, matchEventChannel, event); err != nil {
		log.Warn().Err(err).
			Str("organization_id", organizationID.String()).
			Msg("failed to publish match event")
	}
}
