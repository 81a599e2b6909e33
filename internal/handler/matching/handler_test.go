package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/onboard-api/internal/model"
	matchingService "github.com/jwalitptl/onboard-api/internal/service/matching"
)

var testOrgID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

type stubRepo struct {
	records []*model.AvailabilityRecord
	err     error
}

func (s *stubRepo) LoadAvailability(ctx context.Context, organizationID uuid.UUID, referenceDate time.Time, windowDays int) ([]*model.AvailabilityRecord, error) {
	return s.records, s.err
}

func (s *stubRepo) Create(ctx context.Context, record *model.AvailabilityRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func newTestRouter(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := matchingService.NewService(repo, matchingService.Config{
		WindowDays:      matchingService.DefaultWindowDays,
		CacheTTL:        time.Minute,
		DefaultTimezone: "UTC",
	}, nil, nil)

	engine := gin.New()
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func futureRecord(start, end time.Time) *model.AvailabilityRecord {
	return &model.AvailabilityRecord{
		Base:                model.Base{ID: uuid.New()},
		OwnerID:             uuid.New(),
		OwnerOrganizationID: testOrgID,
		LocationID:          uuid.New(),
		RangeStart:          start,
		RangeEnd:            end,
		Timezone:            "UTC",
	}
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestMatchSlotsEndpoint(t *testing.T) {
	tomorrow := time.Now().AddDate(0, 0, 1)
	start := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, time.UTC)
	engine := newTestRouter(&stubRepo{
		records: []*model.AvailabilityRecord{futureRecord(start, start.Add(2*time.Hour))},
	})

	w := postJSON(t, engine, "/api/v1/matching/slots", model.MatchSlotsRequest{
		OrganizationID: testOrgID,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string                `json:"status"`
		Data   []model.FormattedSlot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Data, 4)
	for _, slot := range resp.Data {
		assert.NotEmpty(t, slot.Display)
		assert.Greater(t, slot.MatchScore, 0.0)
	}
}

func TestMatchSlotsEndpointRequiresOrganization(t *testing.T) {
	engine := newTestRouter(&stubRepo{})

	w := postJSON(t, engine, "/api/v1/matching/slots", model.MatchSlotsRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchSlotsEndpointRejectsBadPreferences(t *testing.T) {
	engine := newTestRouter(&stubRepo{})

	w := postJSON(t, engine, "/api/v1/matching/slots", map[string]interface{}{
		"organization_id": testOrgID,
		"preferences": map[string]interface{}{
			"days_of_week": []int{42},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchSlotsEndpointSurfacesStoreFailure(t *testing.T) {
	engine := newTestRouter(&stubRepo{err: fmt.Errorf("connection refused")})

	w := postJSON(t, engine, "/api/v1/matching/slots", model.MatchSlotsRequest{
		OrganizationID: testOrgID,
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateAvailabilityEndpoint(t *testing.T) {
	repo := &stubRepo{}
	engine := newTestRouter(repo)

	start := time.Now().AddDate(0, 0, 2).Truncate(time.Hour)
	w := postJSON(t, engine, "/api/v1/availability", model.CreateAvailabilityRequest{
		OwnerID:             uuid.New(),
		OwnerOrganizationID: testOrgID,
		RangeStart:          start,
		RangeEnd:            start.Add(time.Hour),
		Timezone:            "UTC",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.records, 1)
}

func TestInvalidateCacheEndpoint(t *testing.T) {
	engine := newTestRouter(&stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/matching/cache/invalidate?organization_id="+testOrgID.String(), nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
