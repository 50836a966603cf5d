package ports

import "context"

// LoginThrottle counts failed sign-in attempts per account within a rolling
// window. The verifier fails open on throttle errors: an unreachable counter
// must never lock users out.
type LoginThrottle interface {
	TooManyFailures(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Clear(ctx context.Context, email string) error
}
