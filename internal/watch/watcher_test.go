package watch

import (
	"io"
	"log/slog"
	"testing"
)

func TestIgnorePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/data/orders.csv", false},
		{"/data/reports/q1.xlsx", false},
		{"/data/orders.csv.20260115T103000.000000001.bak", true},
		{"/data/.orders.csv.tmp123", true},
		{"/data/.DS_Store", true},
	}
	for _, tt := range tests {
		if got := ignorePath(tt.path); got != tt.want {
			t.Errorf("ignorePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewScheduler(nil, "not a cron spec", log); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}
