package service

import (
	"context"
	"time"
)

// RunJanitor sweeps detached sessions every interval until ctx is done
func (e *Engine) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Sweep(ctx)
		}
	}
}

// Sweep retries the refund of linked sessions whose connection is gone and
// drops guests idle for longer than the configured TTL
func (e *Engine) Sweep(ctx context.Context) {
	cutoff := e.now().Add(-e.opts.SessionIdleTTL)

	var dropped, retried int
	for _, id := range e.registry.IDs() {
		h, err := e.registry.Lock(id)
		if err != nil {
			continue
		}

		s := h.Session()
		switch {
		case s.ConnectionID != "":
		case s.PlatformLinked:
			retried++
			if err := e.teardown(ctx, h, s); err != nil {
				e.log.Warn("refund retry failed", "player_id", id, "error", err)
			}
		case s.UpdatedAt.Before(cutoff):
			h.Remove()
			dropped++
		}
		h.Unlock()
	}

	if dropped > 0 || retried > 0 {
		e.log.Info("session sweep", "dropped", dropped, "refund_retries", retried)
	}
}
