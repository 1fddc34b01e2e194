package schedule

import (
	"strings"
	"testing"
	"time"
)

func TestSlotIndex_MondayIsZero(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC) // a Monday
	if got := SlotIndex(monday); got != 0 {
		t.Errorf("expected slot 0 for Monday midnight, got %d", got)
	}

	mondayNoon := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	if got := SlotIndex(mondayNoon); got != 12 {
		t.Errorf("expected slot 12 for Monday noon, got %d", got)
	}

	sunday := time.Date(2026, 8, 9, 23, 0, 0, 0, time.UTC)
	if got := SlotIndex(sunday); got != 6*24+23 {
		t.Errorf("expected slot %d for Sunday 23:00, got %d", 6*24+23, got)
	}
}

func TestIsAllowed(t *testing.T) {
	allZero := strings.Repeat("0", 168)
	tests := []struct {
		name string
		grid string
		t    time.Time
		want bool
	}{
		{"empty grid means all allowed", "", time.Date(2026, 8, 3, 3, 0, 0, 0, time.UTC), true},
		{"all-1 grid always allows", AllAllowed(), time.Date(2026, 8, 3, 3, 0, 0, 0, time.UTC), true},
		{"all-0 grid always denies", allZero, time.Date(2026, 8, 3, 3, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAllowed(tc.grid, tc.t); got != tc.want {
				t.Errorf("IsAllowed() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsAllowed_SingleSlotFlip(t *testing.T) {
	grid := []byte(AllAllowed())
	mondayThreeAM := time.Date(2026, 8, 3, 3, 0, 0, 0, time.UTC)
	grid[SlotIndex(mondayThreeAM)] = '0'

	if IsAllowed(string(grid), mondayThreeAM) {
		t.Error("expected the flipped slot to deny")
	}
	mondayFourAM := time.Date(2026, 8, 3, 4, 0, 0, 0, time.UTC)
	if !IsAllowed(string(grid), mondayFourAM) {
		t.Error("expected the adjacent slot to remain allowed")
	}
}

func TestAllAllowed_Length(t *testing.T) {
	if got := len(AllAllowed()); got != 168 {
		t.Errorf("expected a 168-character grid, got %d", got)
	}
}
