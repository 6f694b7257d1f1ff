package helper

import (
	"context"
	"math"
	"time"

	"github.com/caas-team/kestrel/internal/logger"
)

// RetryConfig holds the configuration of a retry loop.
type RetryConfig struct {
	Count int
	Delay time.Duration
}

// Effector is a cancelable operation the retry loop drives
type Effector func(context.Context) error

// Retry wraps the effector in an exponential backoff retry loop. The effector
// is called until it succeeds, the retry count is exhausted or the context is
// done.
func Retry(effector Effector, rc RetryConfig) Effector {
	return func(ctx context.Context) error {
		log := logger.FromContext(ctx)
		for r := 1; ; r++ {
			err := effector(ctx)
			if err == nil || r > rc.Count {
				return err
			}

			delay := getExpBackoff(rc.Delay, r)
			log.Warn("Effector call failed, retrying", "delay", delay.String(), "attempt", r)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// getExpBackoff doubles the initial delay for every completed attempt.
// The first attempt keeps the initial delay unmodified.
func getExpBackoff(initialDelay time.Duration, iteration int) time.Duration {
	if iteration <= 1 {
		return initialDelay
	}
	return time.Duration(math.Pow(2, float64(iteration-1))) * initialDelay
}
