package boards

import (
	"context"
	"time"
)

// WatchSeasons polls every interval and rotates a seasonal board's previous season once its
// provider reports a new one. The first observation only records the season. It blocks until
// ctx is done.
func (r *Registry) WatchSeasons(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	last := map[string]string{}
	r.checkSeasons(ctx, last)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.checkSeasons(ctx, last)
		}
	}
}

// checkSeasons rotates every seasonal board whose season moved away from last[name].
func (r *Registry) checkSeasons(ctx context.Context, last map[string]string) {
	for _, name := range r.Names() {
		sb, err := r.Seasonal(name)
		if err != nil {
			continue
		}
		sb.Refresh()
		current, err := sb.Season(ctx)
		if err != nil {
			r.logger.WarnContext(ctx, "season lookup failed", "board", name, "error", err)
			continue
		}
		prev, seen := last[name]
		last[name] = current
		if !seen || prev == current {
			continue
		}
		archived, err := sb.Rotate(ctx, prev)
		if err != nil {
			r.logger.ErrorContext(ctx, "season rotation failed", "board", name, "season", prev, "error", err)
			// Retry on the next tick.
			last[name] = prev
			continue
		}
		r.logger.InfoContext(ctx, "season changed", "board", name, "previous", prev, "current", current, "archived", len(archived))
	}
}
