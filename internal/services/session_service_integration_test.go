package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestSessionServiceBookAndLifecycleFlow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)

	patientID := createTestAccount(t, ctx, pool, models.RolePatient)
	practitionerID := createTestAccount(t, ctx, pool, models.RolePractitioner)
	therapyID := createTestTherapy(t, ctx, pool, 60, 1000)
	t.Cleanup(func() { cleanupTestData(t, ctx, pool, therapyID, patientID, practitionerID) })

	start := time.Date(2030, 3, 15, 9, 0, 0, 0, time.UTC)
	detail, err := service.BookSession(ctx, patientID, BookSessionInput{
		TherapyID:      therapyID,
		PractitionerID: practitionerID,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("BookSession: %v", err)
	}

	if detail.Status != models.StatusScheduled {
		t.Fatalf("expected scheduled session, got %q", detail.Status)
	}
	if detail.PaymentStatus != models.PaymentPending {
		t.Fatalf("expected pending payment, got %q", detail.PaymentStatus)
	}
	if detail.Price != 1000 {
		t.Fatalf("expected price 1000, got %.2f", detail.Price)
	}
	if detail.ScheduledDate != "2030-03-15" {
		t.Fatalf("expected scheduled date 2030-03-15, got %q", detail.ScheduledDate)
	}

	confirmed, err := service.UpdateStatus(ctx, practitionerID, models.RolePractitioner, detail.ID, "confirmed", nil)
	if err != nil {
		t.Fatalf("UpdateStatus confirm: %v", err)
	}
	if confirmed.Status != models.StatusConfirmed {
		t.Fatalf("expected confirmed session, got %q", confirmed.Status)
	}

	started, err := service.UpdateStatus(ctx, practitionerID, models.RolePractitioner, detail.ID, "start", nil)
	if err != nil {
		t.Fatalf("UpdateStatus start: %v", err)
	}
	if started.Status != models.StatusInProgress {
		t.Fatalf("expected in-progress session, got %q", started.Status)
	}
	if started.ActualStartTime == nil {
		t.Fatal("expected actual start time to be stamped")
	}

	notes := "responded well to treatment"
	completed, err := service.UpdateStatus(ctx, practitionerID, models.RolePractitioner, detail.ID, "completed", &notes)
	if err != nil {
		t.Fatalf("UpdateStatus complete: %v", err)
	}
	if completed.Status != models.StatusCompleted {
		t.Fatalf("expected completed session, got %q", completed.Status)
	}
	if completed.ActualEndTime == nil {
		t.Fatal("expected actual end time to be stamped")
	}
	if completed.PostSessionNotes == nil || *completed.PostSessionNotes != notes {
		t.Fatalf("expected post-session notes %q, got %+v", notes, completed.PostSessionNotes)
	}
}

func TestSessionServiceRejectsOverlappingBookings(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)

	firstPatientID := createTestAccount(t, ctx, pool, models.RolePatient)
	secondPatientID := createTestAccount(t, ctx, pool, models.RolePatient)
	practitionerID := createTestAccount(t, ctx, pool, models.RolePractitioner)
	therapyID := createTestTherapy(t, ctx, pool, 60, 800)
	t.Cleanup(func() {
		cleanupTestData(t, ctx, pool, therapyID, firstPatientID, secondPatientID, practitionerID)
	})

	start := time.Date(2030, 4, 1, 12, 0, 0, 0, time.UTC)
	if _, err := service.BookSession(ctx, firstPatientID, BookSessionInput{
		TherapyID:      therapyID,
		PractitionerID: practitionerID,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("first BookSession: %v", err)
	}

	_, err := service.BookSession(ctx, secondPatientID, BookSessionInput{
		TherapyID:      therapyID,
		PractitionerID: practitionerID,
		StartTime:      start.Add(30 * time.Minute),
		EndTime:        start.Add(90 * time.Minute),
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestSessionServiceCancellationAppliesFee(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)

	patientID := createTestAccount(t, ctx, pool, models.RolePatient)
	practitionerID := createTestAccount(t, ctx, pool, models.RolePractitioner)
	therapyID := createTestTherapy(t, ctx, pool, 60, 1000)
	t.Cleanup(func() { cleanupTestData(t, ctx, pool, therapyID, patientID, practitionerID) })

	// Far enough out that the cancellation lands in the free tier.
	start := time.Date(2030, 5, 10, 8, 0, 0, 0, time.UTC)
	detail, err := service.BookSession(ctx, patientID, BookSessionInput{
		TherapyID:      therapyID,
		PractitionerID: practitionerID,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("BookSession: %v", err)
	}

	cancelled, err := service.CancelSession(ctx, patientID, models.RolePatient, detail.ID,
		"no longer able to attend this appointment")
	if err != nil {
		t.Fatalf("CancelSession: %v", err)
	}

	if cancelled.Status != models.StatusCancelled {
		t.Fatalf("expected cancelled session, got %q", cancelled.Status)
	}
	if cancelled.CancellationType == nil || *cancelled.CancellationType != models.CancellationEarly {
		t.Fatalf("expected early cancellation, got %+v", cancelled.CancellationType)
	}
	if cancelled.CancellationFee == nil || *cancelled.CancellationFee != 0 {
		t.Fatalf("expected zero fee, got %+v", cancelled.CancellationFee)
	}
	if cancelled.RefundAmount == nil || *cancelled.RefundAmount != 1000 {
		t.Fatalf("expected full refund, got %+v", cancelled.RefundAmount)
	}

	if _, err := service.CancelSession(ctx, patientID, models.RolePatient, detail.ID,
		"trying to cancel a cancelled session"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on double cancel, got %v", err)
	}
}

func TestSessionServiceRescheduleKeepsHistory(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSessionService(pool)

	patientID := createTestAccount(t, ctx, pool, models.RolePatient)
	practitionerID := createTestAccount(t, ctx, pool, models.RolePractitioner)
	therapyID := createTestTherapy(t, ctx, pool, 60, 900)
	t.Cleanup(func() { cleanupTestData(t, ctx, pool, therapyID, patientID, practitionerID) })

	start := time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)
	detail, err := service.BookSession(ctx, patientID, BookSessionInput{
		TherapyID:      therapyID,
		PractitionerID: practitionerID,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("BookSession: %v", err)
	}

	if _, err := service.UpdateStatus(ctx, practitionerID, models.RolePractitioner, detail.ID, "confirmed", nil); err != nil {
		t.Fatalf("UpdateStatus confirm: %v", err)
	}

	newStart := start.AddDate(0, 0, 1)
	moved, err := service.RescheduleSession(ctx, patientID, models.RolePatient, detail.ID, RescheduleInput{
		NewStart: newStart,
		NewEnd:   newStart.Add(time.Hour),
		Reason:   "practitioner requested",
	})
	if err != nil {
		t.Fatalf("RescheduleSession: %v", err)
	}

	if moved.Status != models.StatusScheduled {
		t.Fatalf("a rescheduled session should drop back to scheduled, got %q", moved.Status)
	}
	if !moved.StartTime.Equal(newStart) {
		t.Fatalf("expected start %s, got %s", newStart, moved.StartTime)
	}
	if len(moved.RescheduleHistory) != 1 {
		t.Fatalf("expected one history entry, got %d", len(moved.RescheduleHistory))
	}
	entry := moved.RescheduleHistory[0]
	if !entry.OriginalStart.Equal(start) || !entry.NewStart.Equal(newStart) {
		t.Fatalf("history entry mismatch: %+v", entry)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationSessionService(pool *pgxpool.Pool) *SessionService {
	return NewSessionService(
		pool,
		repository.NewSessionRepository(pool),
		repository.NewTherapyRepository(pool),
		repository.NewUserRepository(pool),
		nil,
		nil,
	)
}

func createTestAccount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, role string) int64 {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Email:        fmt.Sprintf("session-test-%s-%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         role,
		IsActive:     true,
		IsApproved:   true,
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(%s): %v", role, err)
	}
	return user.ID
}

func createTestTherapy(t *testing.T, ctx context.Context, pool *pgxpool.Pool, durationMinutes int, price float64) int64 {
	t.Helper()

	therapyRepo := repository.NewTherapyRepository(pool)
	therapy, err := therapyRepo.Create(ctx, repository.CreateTherapyInput{
		Name:            fmt.Sprintf("test-therapy-%d", time.Now().UnixNano()),
		DurationMinutes: durationMinutes,
		Price:           price,
	})
	if err != nil {
		t.Fatalf("Create therapy: %v", err)
	}
	return therapy.ID
}

func cleanupTestData(t *testing.T, ctx context.Context, pool *pgxpool.Pool, therapyID int64, userIDs ...int64) {
	t.Helper()

	for _, userID := range userIDs {
		if _, err := pool.Exec(ctx,
			"DELETE FROM sessions WHERE patient_id = $1 OR practitioner_id = $1", userID); err != nil {
			t.Errorf("cleanup sessions for %d: %v", userID, err)
		}
	}
	for _, userID := range userIDs {
		if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = $1", userID); err != nil {
			t.Errorf("cleanup user %d: %v", userID, err)
		}
	}
	if _, err := pool.Exec(ctx, "DELETE FROM therapies WHERE id = $1", therapyID); err != nil {
		t.Errorf("cleanup therapy %d: %v", therapyID, err)
	}
}
