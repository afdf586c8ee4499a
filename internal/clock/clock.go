package clock

import (
	"fmt"
	"time"
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// System is the wall clock in UTC
type System struct{}

// Now returns the current UTC time
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant
type Fixed time.Time

// Now returns the fixed instant
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// TimeAgo renders how long before now t happened, e.g. "5m ago"
func TimeAgo(now, t time.Time) string {
	d := now.Sub(t)
	days := d.Hours() / 24

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case days < 7:
		return fmt.Sprintf("%dd ago", int(days))
	case days < 30:
		return fmt.Sprintf("%dw ago", int(days/7))
	case days < 365:
		return fmt.Sprintf("%dmo ago", int(days/30))
	default:
		return fmt.Sprintf("%dy ago", int(days/365))
	}
}

// FormatDuration renders a duration in its two most significant units
func FormatDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		days := int(d.Hours() / 24)
		hours := int(d.Hours()) % 24
		if hours > 0 {
			return fmt.Sprintf("%dd %dh", days, hours)
		}
		return fmt.Sprintf("%dd", days)
	case d >= time.Hour:
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return "< 1m"
	}
}
