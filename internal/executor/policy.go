package executor

import (
	"errors"
	"time"
)

// Policy bounds one logical trade: how many attempts, how long to wait
// between them, and how long a single API call may take.
type Policy struct {
	MaxAttempts    int
	Delay          time.Duration // after a failed or transport-errored attempt
	RateLimitDelay time.Duration // after a rate-limited attempt
	Timeout        time.Duration // per API call
}

// DefaultPolicy is used for the legs of a trade cycle.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		Delay:          100 * time.Millisecond,
		RateLimitDelay: 100 * time.Millisecond,
		Timeout:        10 * time.Second,
	}
}

// LiquidationPolicy is used for standalone sells.
func LiquidationPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		Delay:          2 * time.Second,
		RateLimitDelay: 2 * time.Second,
		Timeout:        15 * time.Second,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	var errs []error
	if p.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if p.Delay < 0 || p.RateLimitDelay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if p.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	return errors.Join(errs...)
}
