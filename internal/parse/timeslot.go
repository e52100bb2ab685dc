package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// TimeSlot holds the two halves of a display slot string such as "09:00-10:00".
type TimeSlot struct {
	Start string
	End   string
}

// ParseTimeSlot splits a display time slot on the literal "-" delimiter.
// The upstream occasionally emits malformed slot strings; callers are
// expected to treat an error as "slot not bookable" rather than a failure.
func ParseTimeSlot(raw string) (TimeSlot, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 2 {
		return TimeSlot{}, fmt.Errorf("time slot %q does not contain exactly one '-'", raw)
	}

	start := strings.TrimSpace(parts[0])
	end := strings.TrimSpace(parts[1])
	if !clockRe.MatchString(start) || !clockRe.MatchString(end) {
		return TimeSlot{}, fmt.Errorf("time slot %q is not in HH:MM-HH:MM form", raw)
	}

	return TimeSlot{Start: start, End: end}, nil
}
