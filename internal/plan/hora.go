package plan

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds session start times and end times.
const MinutesPerDay = 24 * 60

// ParseHora converts an "HH:MM" start time into minutes from midnight.
func ParseHora(hora string) (int, error) {
	h, m, ok := strings.Cut(hora, ":")
	if !ok {
		return 0, fmt.Errorf("invalid hora %q: want HH:MM", hora)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour in %q", hora)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 || len(m) != 2 {
		return 0, fmt.Errorf("invalid minutes in %q", hora)
	}
	return hh*60 + mm, nil
}

// FormatHora converts minutes from midnight into "HH:MM".
func FormatHora(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
