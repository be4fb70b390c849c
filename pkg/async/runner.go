/*
Package async provides the blocking-call offload used for every store-facing
operation. The driver calls are blocking; routing them through a Runner keeps
the calling goroutine responsive to context cancellation and gives tests a
single seam to substitute a synchronous stub.
*/
package async

import "context"

// Runner executes a blocking function on behalf of a caller. Any error raised
// inside the call propagates transparently.
type Runner interface {
	Do(ctx context.Context, fn func() error) error
}

// Offload runs the function on a fresh goroutine and waits for either its
// completion or context cancellation. This is the production Runner.
type Offload struct{}

func (Offload) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// The offloaded call keeps running; the buffered channel lets the
		// goroutine finish without leaking.
		return ctx.Err()
	}
}

// Sync runs the function inline. Intended for tests that want deterministic,
// single-goroutine execution.
type Sync struct{}

func (Sync) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}
