package session

import (
	"context"
	"log"
	"time"
)

// Sweeper removes idle sessions.
type Sweeper interface {
	Sweep(ctx context.Context, maxIdle time.Duration) (int, error)
}

// RunJanitor sweeps every interval until ctx is done.
func RunJanitor(ctx context.Context, sweeper Sweeper, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sweeper.Sweep(ctx, maxIdle)
			if err != nil {
				log.Printf("[session] sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("[session] swept %d idle sessions", removed)
			}
		}
	}
}
