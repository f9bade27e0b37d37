package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type backoff struct {
	min, max time.Duration
}

var defaultBackoff = backoff{min: 500 * time.Millisecond, max: 30 * time.Second}

// keepListening runs listen until ctx is done and starts it again after every
// failure, doubling the wait up to b.max. listen calls ready once it is
// subscribed; the wait then resets, and resync runs on every subscription
// after the first.
func keepListening(ctx context.Context, b backoff, log *zap.Logger, listen func(ctx context.Context, ready func()) error, resync func()) error {
	delay := b.min
	subscribed := false
	for {
		err := listen(ctx, func() {
			if subscribed {
				resync()
			}
			subscribed = true
			delay = b.min
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			err = errors.New("listener stopped")
		}
		log.Warn("change listener lost, retrying", zap.Duration("retry_in", delay), zap.Error(err))

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay = min(delay*2, b.max)
	}
}
