package util

import (
	"fmt"
	"time"
)

// timestampLayouts lists the formats event logs have been seen to carry.
// The emitter writes bare ISO 8601 without a zone; hand-edited logs and
// other producers tend to use RFC 3339.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an event timestamp string, trying each known layout.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// FormatTimestamp renders a time the way the event emitter does.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.999999")
}
