package status

import (
	"strings"
	"time"
)

// ClockPlaceholder is shown whenever a timestamp cannot be rendered.
const ClockPlaceholder = "--:--:--"

// Timestamp layouts the agent is known to emit. The space-separated form is
// normalized to the T form before parsing, so both lists stay short.
var clockLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// FormatClock renders a raw agent timestamp as a 24-hour HH:MM:SS string.
// Empty or unparseable input degrades to ClockPlaceholder; this never fails.
func FormatClock(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ClockPlaceholder
	}
	normalized := strings.Replace(raw, " ", "T", 1)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t.Format("15:04:05")
		}
	}
	return ClockPlaceholder
}
