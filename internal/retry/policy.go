// Package retry describes bounded retry schedules for transient failures.
package retry

import (
	"errors"
	"fmt"
	"time"
)

// Backoff selects how the delay grows from one retry to the next.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// Policy is an immutable retry schedule.
type Policy struct {
	Backoff    Backoff
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // retries after the first failed attempt
}

// TransientRead is the schedule for a watched file that is briefly absent
// while an editor replaces it: five retries, 300ms apart.
func TransientRead() Policy {
	return Policy{Backoff: BackoffFixed, Initial: 300 * time.Millisecond, Max: 300 * time.Millisecond, MaxRetries: 5}
}

// Delay returns the pause before retry n (1-based), capped at Max.
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Backoff {
	case BackoffLinear:
		d = time.Duration(n) * p.Initial
	case BackoffExponential:
		d = p.Initial << (n - 1)
	default:
		d = p.Initial
	}
	if p.Max > 0 && (d > p.Max || d < 0) {
		return p.Max
	}
	return d
}

// Validate rejects schedules that cannot be applied.
func (p Policy) Validate() error {
	switch {
	case p.Backoff != BackoffFixed && p.Backoff != BackoffLinear && p.Backoff != BackoffExponential:
		return fmt.Errorf("retry: unknown backoff %q", p.Backoff)
	case p.Initial <= 0:
		return errors.New("retry: initial delay must be positive")
	case p.Max < p.Initial:
		return errors.New("retry: max delay below initial delay")
	case p.MaxRetries < 0:
		return errors.New("retry: negative retry count")
	}
	return nil
}
