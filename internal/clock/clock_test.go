package clock

import (
	"testing"
	"time"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		ago      time.Duration
		expected string
	}{
		{"seconds", 30 * time.Second, "just now"},
		{"future", -time.Minute, "just now"},
		{"minutes", 5 * time.Minute, "5m ago"},
		{"hours", 3*time.Hour + 59*time.Minute, "3h ago"},
		{"days", 2 * 24 * time.Hour, "2d ago"},
		{"weeks", 15 * 24 * time.Hour, "2w ago"},
		{"months", 65 * 24 * time.Hour, "2mo ago"},
		{"years", 800 * 24 * time.Hour, "2y ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeAgo(now, now.Add(-tt.ago)); got != tt.expected {
				t.Errorf("TimeAgo() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{30 * time.Second, "< 1m"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{48 * time.Hour, "2d"},
		{50 * time.Hour, "2d 2h"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.expected {
			t.Errorf("FormatDuration(%s) = %q, want %q", tt.d, got, tt.expected)
		}
	}
}

func TestFixed(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !Fixed(at).Now().Equal(at) {
		t.Error("Fixed clock should return its instant")
	}
}
