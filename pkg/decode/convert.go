package decode

import (
	"fmt"
	"strings"
)

// minutesUnavailable is the gauge's "no estimate" sentinel for time fields.
const minutesUnavailable = 0xFFFF

// DecikelvinToCelsius converts the registry's decikelvin temperature unit.
func DecikelvinToCelsius(dk int64) float64 {
	return (float64(dk) - 2731.5) / 10.0
}

// Minutes validates a gauge time estimate in minutes. The 0xFFFF sentinel
// and implausibly large values mean "no estimate", not a huge duration.
func Minutes(m int64) (int, bool) {
	if m <= 0 || m >= minutesUnavailable || m > 10000 {
		return 0, false
	}
	return int(m), true
}

// HumanMinutes renders minutes as "H hrs M min (N min)".
func HumanMinutes(m int) string {
	hours := m / 60
	mins := m % 60
	var parts []string
	if hours == 1 {
		parts = append(parts, "1 hr")
	} else if hours > 1 {
		parts = append(parts, fmt.Sprintf("%d hrs", hours))
	}
	if mins > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d min", mins))
	}
	return fmt.Sprintf("%s (%d min)", strings.Join(parts, " "), m)
}

// HumanSeconds renders a wait-time counter as "H hrs M min S sec (Ns)".
func HumanSeconds(s int) string {
	if s == 0 {
		return "0 seconds"
	}
	hours := s / 3600
	mins := s % 3600 / 60
	secs := s % 60
	var parts []string
	if hours == 1 {
		parts = append(parts, "1 hr")
	} else if hours > 1 {
		parts = append(parts, fmt.Sprintf("%d hrs", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%d min", mins))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d sec", secs))
	}
	return fmt.Sprintf("%s (%ds)", strings.Join(parts, " "), s)
}

// ManufacturerData extracts the printable substrings embedded in the
// manufacturer data blob. The blob carries length-prefixed strings in
// model, revision, maker order; anything shorter than two characters is
// prefix noise.
func ManufacturerData(blob []byte) (model, revision, maker string, ok bool) {
	var parts []string
	var cur []byte
	flush := func() {
		if len(cur) >= 2 {
			parts = append(parts, string(cur))
		}
		cur = nil
	}
	for _, b := range blob {
		if b > 0x20 && b < 0x7F {
			cur = append(cur, b)
		} else {
			flush()
		}
	}
	flush()

	if len(parts) == 0 {
		return "", "", "", false
	}
	model = parts[0]
	if len(parts) > 1 {
		revision = parts[1]
	}
	if len(parts) > 2 {
		maker = parts[2]
	}
	return model, revision, maker, true
}
