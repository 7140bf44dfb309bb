package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

var clockTime = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?\s*([AaPp])?\.?\s*(?:[Mm]\.?)?$`)

// Time renders a cell as "H:MM AM/PM". It accepts clock strings (12- or
// 24-hour) and Excel fractional-day decimals in [0,1]; anything else is "N/A".
// A decimal that rounds to 1440 minutes wraps to 12:00 AM.
func Time(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return NotAvailable
	}
	if strings.Contains(v, ":") {
		return clock(v)
	}

	d, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(d) || d < 0 || d > 1 {
		return NotAvailable
	}
	total := int(math.Round(d*minutesPerDay)) % minutesPerDay
	return format12(total/60, total%60)
}

// Minutes converts a "H:MM AM/PM" string back to minutes since midnight.
func Minutes(t string) (int, bool) {
	m := clockTime.FindStringSubmatch(strings.TrimSpace(t))
	if m == nil || m[3] == "" {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h < 1 || h > 12 || min > 59 {
		return 0, false
	}
	h %= 12
	if strings.EqualFold(m[3], "p") {
		h += 12
	}
	return h*60 + min, true
}

func clock(v string) string {
	m := clockTime.FindStringSubmatch(v)
	if m == nil {
		return NotAvailable
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if min > 59 {
		return NotAvailable
	}

	if m[3] == "" {
		// 24-hour clock
		if h > 23 {
			return NotAvailable
		}
		return format12(h, min)
	}
	if h < 1 || h > 12 {
		return NotAvailable
	}
	period := "AM"
	if strings.EqualFold(m[3], "p") {
		period = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, min, period)
}

func format12(hours, minutes int) string {
	period := "AM"
	if hours >= 12 {
		period = "PM"
	}
	display := hours % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minutes, period)
}
