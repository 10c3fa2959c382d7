package services

import (
	"testing"
	"time"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
)

func mustSlotTimes(t *testing.T, slots []models.AvailableSlot) []string {
	t.Helper()
	starts := make([]string, 0, len(slots))
	for _, slot := range slots {
		starts = append(starts, slot.Start.Format("15:04"))
	}
	return starts
}

func containsStart(slots []models.AvailableSlot, clock string) bool {
	for _, slot := range slots {
		if slot.Start.Format("15:04") == clock {
			return true
		}
	}
	return false
}

func TestComputeAvailableSlotsEmptyDay(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour)

	slots := ComputeAvailableSlots(DefaultWorkingHours(), day, 60, nil, now)

	// 9:00-18:00 on 30-minute steps, minus the four starts that would
	// collide with lunch (12:30, 13:00, 13:30) or run past 18:00 (17:30).
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots, got %d: %v", len(slots), mustSlotTimes(t, slots))
	}
	if slots[0].Start.Hour() != 9 || slots[0].Start.Minute() != 0 {
		t.Errorf("first slot should start at 09:00, got %s", slots[0].Start.Format("15:04"))
	}
	for _, banned := range []string{"12:30", "13:00", "13:30", "17:30"} {
		if containsStart(slots, banned) {
			t.Errorf("slot starting at %s should be excluded", banned)
		}
	}
	if !containsStart(slots, "12:00") {
		t.Error("a 60-minute slot at 12:00 ends exactly at lunch and should be offered")
	}
	if !containsStart(slots, "17:00") {
		t.Error("a 60-minute slot at 17:00 ends exactly at close and should be offered")
	}
}

func TestComputeAvailableSlotsSkipsBusyWindows(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour)
	busy := []models.Session{
		{
			Status:    models.StatusConfirmed,
			StartTime: day.Add(14 * time.Hour),
			EndTime:   day.Add(15 * time.Hour),
		},
	}

	slots := ComputeAvailableSlots(DefaultWorkingHours(), day, 60, busy, now)

	for _, blocked := range []string{"13:30", "14:00", "14:30"} {
		if containsStart(slots, blocked) {
			t.Errorf("slot starting at %s overlaps the 14:00-15:00 booking", blocked)
		}
	}
	if !containsStart(slots, "15:00") {
		t.Error("15:00 starts exactly when the booking ends and should be offered")
	}
}

func TestComputeAvailableSlotsIgnoresTerminalSessions(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour)
	busy := []models.Session{
		{
			Status:    models.StatusCancelled,
			StartTime: day.Add(10 * time.Hour),
			EndTime:   day.Add(11 * time.Hour),
		},
	}

	slots := ComputeAvailableSlots(DefaultWorkingHours(), day, 60, busy, now)

	if !containsStart(slots, "10:00") {
		t.Error("a cancelled session must not block its old slot")
	}
}

func TestComputeAvailableSlotsCutsOffPastStarts(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(11 * time.Hour) // 11:00 on the requested day

	slots := ComputeAvailableSlots(DefaultWorkingHours(), day, 30, nil, now)

	if containsStart(slots, "10:30") {
		t.Error("slots in the past should be excluded")
	}
	if containsStart(slots, "11:00") {
		t.Error("a slot starting exactly now should be excluded")
	}
	if !containsStart(slots, "11:30") {
		t.Error("the next future slot should be offered")
	}
}

func TestComputeAvailableSlotsDurationLongerThanDay(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(-12 * time.Hour)

	slots := ComputeAvailableSlots(DefaultWorkingHours(), day, 10*60, nil, now)

	if len(slots) != 0 {
		t.Errorf("a 10-hour therapy cannot fit a 9-hour day, got %v", mustSlotTimes(t, slots))
	}
}
