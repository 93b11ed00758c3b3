package server

import (
	"fmt"
	"time"
)

// Timestamp layouts accepted from the UI, tried in order. datetime-local
// inputs submit without a zone; those are interpreted in the configured
// local timezone.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

const dateLayout = "2006-01-02"

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range timeLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// resolveRange turns a range preset (or a custom from/to pair) into
// inclusive occurred_at bounds. Presets cover whole local days: "today",
// "3d", "7d", "30d". An empty or "all" range means no bounds. Custom
// date-only bounds expand to the full day.
func resolveRange(preset, fromStr, toStr string, loc *time.Location, now time.Time) (*time.Time, *time.Time, error) {
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var days int
	switch preset {
	case "", "all":
		if fromStr == "" && toStr == "" {
			return nil, nil, nil
		}
		return customRange(fromStr, toStr, loc)
	case "today":
		days = 1
	case "3d":
		days = 3
	case "7d":
		days = 7
	case "30d":
		days = 30
	case "custom":
		return customRange(fromStr, toStr, loc)
	default:
		return nil, nil, fmt.Errorf("unknown range %q", preset)
	}

	from := today.AddDate(0, 0, -(days - 1))
	to := endOfDay(today)
	return &from, &to, nil
}

func customRange(fromStr, toStr string, loc *time.Location) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		t, err := parseTimestamp(fromStr, loc)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if toStr != "" {
		t, err := parseTimestamp(toStr, loc)
		if err != nil {
			return nil, nil, err
		}
		// A bare date means the whole of that day.
		if len(toStr) == len(dateLayout) {
			t = endOfDay(t)
		}
		to = &t
	}
	return from, to, nil
}

func endOfDay(dayStart time.Time) time.Time {
	return dayStart.AddDate(0, 0, 1).Add(-time.Second)
}
