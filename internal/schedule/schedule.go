package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Every calls execute at each time matched by cron, passing the scheduled
// time. Runs never overlap; a run that overlaps the next tick skips it.
// It blocks until ctx is done.
func Every(ctx context.Context, cron string, execute func(ctx context.Context, at time.Time)) error {
	expr, err := parse(cron)
	if err != nil {
		return err
	}

	for {
		next := expr.Next(time.Now())
		if next.IsZero() {
			slog.Warn("cron expression has no upcoming run", "cron", cron)
			<-ctx.Done()
			return ctx.Err()
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			execute(ctx, next)
		}
	}
}
