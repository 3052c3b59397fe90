package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ExponentialBackoffWithMaxElapsed returns a jittered exponential backoff.
// A zero maxElapsed never gives up on its own.
func ExponentialBackoffWithMaxElapsed(initialInterval, maxInterval, maxElapsed time.Duration, multiplier float64) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.MaxInterval = maxInterval
	exp.Multiplier = multiplier
	exp.MaxElapsedTime = maxElapsed
	exp.Reset()
	return exp
}
