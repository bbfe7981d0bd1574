package youtube

import (
	"regexp"
	"strconv"
	"time"
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration parses the ISO-8601 durations used by the YouTube Data API,
// e.g. PT4M13S, PT1H2M or P1DT23H11M1S. Zero durations ("P0D") belong to live
// broadcasts and are reported as unknown.
func ParseDuration(s string) (time.Duration, bool) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, false
	}

	units := [...]time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}

	var total time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, false
		}
		total += time.Duration(n) * unit
	}

	if total == 0 {
		return 0, false
	}
	return total, true
}
