package schedule

import (
	"fmt"
	"time"

	"github.com/hashicorp/cronexpr"
)

func parse(cron string) (*cronexpr.Expression, error) {
	expr, err := cronexpr.Parse(cron)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cron, err)
	}
	return expr, nil
}

// NextRunTimes lists the next n times cron fires, in UTC.
func NextRunTimes(cron string, n int) ([]time.Time, error) {
	return NextRunTimesAfter(cron, time.Now().UTC(), n)
}

// NextRunTimesAfter lists the next n times cron fires after a specific time.
func NextRunTimesAfter(cron string, after time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, fmt.Errorf("count must be greater than 0, got %d", n)
	}
	expr, err := parse(cron)
	if err != nil {
		return nil, err
	}
	return expr.NextN(after, uint(n)), nil
}

// ValidateCron rejects expressions that do not parse or that will never
// fire again, such as a pinned year in the past.
func ValidateCron(cron string) error {
	expr, err := parse(cron)
	if err != nil {
		return err
	}
	if expr.Next(time.Now()).IsZero() {
		return fmt.Errorf("cron expression %q never fires", cron)
	}
	return nil
}
