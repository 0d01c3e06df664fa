package core

import (
	"testing"
	"time"
)

func TestDeletionRefusal(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		orderDate string
		sent      bool
		want      string
	}{
		{"fresh unsent", "2026-08-31", false, ""},
		{"two days old", "2026-08-29", false, ""},
		{"exactly at window edge", "2026-08-28", false, "order is older than 3 days"},
		{"well past window", "2026-08-01", false, "order is older than 3 days"},
		{"sent order", "2026-08-31", true, "order has been sent"},
		{"sent wins over age", "2026-08-01", true, "order has been sent"},
		{"garbage date", "not-a-date", false, "order date not-a-date is not parseable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deletionRefusal(tt.orderDate, tt.sent, now); got != tt.want {
				t.Errorf("deletionRefusal(%q, %v) = %q, want %q", tt.orderDate, tt.sent, got, tt.want)
			}
		})
	}
}
