package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
	"github.com/dpushkar26/Panchkarma-sutra/internal/services"
)

type stubSessionService struct {
	bookResult         *models.SessionDetail
	bookErr            error
	listResult         []models.Session
	listErr            error
	getResult          *models.SessionDetail
	getErr             error
	updateStatusResult *models.SessionDetail
	updateStatusErr    error
	cancelResult       *models.SessionDetail
	cancelErr          error
	rescheduleResult   *models.SessionDetail
	rescheduleErr      error
	lastBookInput      services.BookSessionInput
	lastReschedule     services.RescheduleInput
	lastActorID        int64
	lastRole           string
	lastSessionID      int64
	lastStatus         string
	lastReason         string
	lastListFilter     repository.SessionListFilter
}

func (s *stubSessionService) BookSession(_ context.Context, patientID int64, input services.BookSessionInput) (*models.SessionDetail, error) {
	s.lastActorID = patientID
	s.lastBookInput = input
	return s.bookResult, s.bookErr
}

func (s *stubSessionService) ListSessions(_ context.Context, actorID int64, role string, filter repository.SessionListFilter) ([]models.Session, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastListFilter = filter
	return s.listResult, s.listErr
}

func (s *stubSessionService) GetSession(_ context.Context, actorID int64, role string, sessionID int64) (*models.SessionDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	return s.getResult, s.getErr
}

func (s *stubSessionService) UpdateStatus(_ context.Context, actorID int64, role string, sessionID int64, requestedStatus string, notes *string) (*models.SessionDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	s.lastStatus = requestedStatus
	return s.updateStatusResult, s.updateStatusErr
}

func (s *stubSessionService) CancelSession(_ context.Context, actorID int64, role string, sessionID int64, reason string) (*models.SessionDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	s.lastReason = reason
	return s.cancelResult, s.cancelErr
}

func (s *stubSessionService) RescheduleSession(_ context.Context, actorID int64, role string, sessionID int64, input services.RescheduleInput) (*models.SessionDetail, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
	s.lastReschedule = input
	return s.rescheduleResult, s.rescheduleErr
}

func newSessionTestApp(service *stubSessionService, userID, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	handler := &SessionHandler{service: service}
	app.Post("/sessions/book", handler.BookSession)
	app.Get("/sessions", handler.ListSessions)
	app.Get("/sessions/:id", handler.GetSession)
	app.Put("/sessions/:id/status", handler.UpdateStatus)
	app.Post("/sessions/:id/cancel", handler.CancelSession)
	app.Post("/sessions/:id/reschedule", handler.RescheduleSession)
	return app
}

func TestBookSessionReturnsCreatedSession(t *testing.T) {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	service := &stubSessionService{
		bookResult: &models.SessionDetail{
			Session: models.Session{
				ID:             91,
				TherapyID:      3,
				PatientID:      42,
				PractitionerID: 7,
				Status:         models.StatusScheduled,
				StartTime:      start,
				EndTime:        start.Add(time.Hour),
			},
		},
	}
	app := newSessionTestApp(service, "42", models.RolePatient)

	body := `{
		"therapy_id": 3,
		"practitioner_id": 7,
		"start_time": "2026-04-01T10:00:00Z",
		"end_time": "2026-04-01T11:00:00Z"
	}`
	req := httptest.NewRequest(http.MethodPost, "/sessions/book", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 {
		t.Errorf("expected actor 42, got %d", service.lastActorID)
	}
	if service.lastBookInput.PractitionerID != 7 {
		t.Errorf("expected practitioner 7, got %d", service.lastBookInput.PractitionerID)
	}
	if !service.lastBookInput.StartTime.Equal(start) {
		t.Errorf("expected start %s, got %s", start, service.lastBookInput.StartTime)
	}

	var payload struct {
		Session models.SessionDetail `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Session.ID != 91 {
		t.Errorf("expected session 91, got %d", payload.Session.ID)
	}
}

func TestBookSessionRejectsNonPatients(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, "7", models.RolePractitioner)

	req := httptest.NewRequest(http.MethodPost, "/sessions/book", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestBookSessionSlotConflictMapsToConflict(t *testing.T) {
	service := &stubSessionService{bookErr: services.ErrSlotUnavailable}
	app := newSessionTestApp(service, "42", models.RolePatient)

	body := `{
		"therapy_id": 3,
		"practitioner_id": 7,
		"start_time": "2026-04-01T10:00:00Z",
		"end_time": "2026-04-01T11:00:00Z"
	}`
	req := httptest.NewRequest(http.MethodPost, "/sessions/book", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestBookSessionRejectsMalformedTimestamp(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, "42", models.RolePatient)

	body := `{
		"therapy_id": 3,
		"practitioner_id": 7,
		"start_time": "tomorrow at ten",
		"end_time": "2026-04-01T11:00:00Z"
	}`
	req := httptest.NewRequest(http.MethodPost, "/sessions/book", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListSessionsPassesFilters(t *testing.T) {
	service := &stubSessionService{listResult: []models.Session{}}
	app := newSessionTestApp(service, "7", models.RolePractitioner)

	req := httptest.NewRequest(http.MethodGet, "/sessions?status=confirmed&timeframe=upcoming&limit=5&offset=10", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastRole != models.RolePractitioner {
		t.Errorf("expected practitioner role, got %q", service.lastRole)
	}
	if service.lastListFilter.Status != "confirmed" || service.lastListFilter.Timeframe != "upcoming" {
		t.Errorf("filter not forwarded: %+v", service.lastListFilter)
	}
	if service.lastListFilter.Limit != 5 || service.lastListFilter.Offset != 10 {
		t.Errorf("pagination not forwarded: %+v", service.lastListFilter)
	}
}

func TestListSessionsRejectsUnknownTimeframe(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, "42", models.RolePatient)

	req := httptest.NewRequest(http.MethodGet, "/sessions?timeframe=someday", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	service := &stubSessionService{getErr: pgx.ErrNoRows}
	app := newSessionTestApp(service, "42", models.RolePatient)

	req := httptest.NewRequest(http.MethodGet, "/sessions/123", nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 123 {
		t.Errorf("expected session 123, got %d", service.lastSessionID)
	}
}

func TestUpdateStatusInvalidTransitionMapsToUnprocessable(t *testing.T) {
	service := &stubSessionService{updateStatusErr: services.ErrInvalidStateTransition}
	app := newSessionTestApp(service, "7", models.RolePractitioner)

	req := httptest.NewRequest(http.MethodPut, "/sessions/55/status", strings.NewReader(`{"status":"completed"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if service.lastStatus != "completed" {
		t.Errorf("expected requested status forwarded, got %q", service.lastStatus)
	}
}

func TestCancelSessionRequiresReason(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, "42", models.RolePatient)

	req := httptest.NewRequest(http.MethodPost, "/sessions/55/cancel", strings.NewReader(`{"reason":"too short"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCancelSessionForwardsReason(t *testing.T) {
	service := &stubSessionService{
		cancelResult: &models.SessionDetail{Session: models.Session{ID: 55, Status: models.StatusCancelled}},
	}
	app := newSessionTestApp(service, "42", models.RolePatient)

	req := httptest.NewRequest(http.MethodPost, "/sessions/55/cancel",
		strings.NewReader(`{"reason":"feeling unwell, cannot attend"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastReason != "feeling unwell, cannot attend" {
		t.Errorf("reason not forwarded, got %q", service.lastReason)
	}
}

func TestRescheduleSessionForwardsInput(t *testing.T) {
	newStart := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	service := &stubSessionService{
		rescheduleResult: &models.SessionDetail{Session: models.Session{ID: 55, Status: models.StatusScheduled}},
	}
	app := newSessionTestApp(service, "42", models.RolePatient)

	body := `{
		"new_start": "2026-04-02T09:00:00Z",
		"new_end": "2026-04-02T10:00:00Z",
		"reason": "clinic closed"
	}`
	req := httptest.NewRequest(http.MethodPost, "/sessions/55/reschedule", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !service.lastReschedule.NewStart.Equal(newStart) {
		t.Errorf("expected new start %s, got %s", newStart, service.lastReschedule.NewStart)
	}
	if service.lastReschedule.Reason != "clinic closed" {
		t.Errorf("reason not forwarded, got %q", service.lastReschedule.Reason)
	}
}
