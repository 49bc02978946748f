package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/artify/api/internal/logging"
	"github.com/artify/api/internal/metrics"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Controller drives a Caller through the retry policy. One instance is shared
// by every capability; only the Request differs.
type Controller struct {
	caller Caller
	policy Policy
	sleep  Sleeper
	logger zerolog.Logger
}

type Option func(*Controller)

func WithSleeper(s Sleeper) Option {
	return func(c *Controller) { c.sleep = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func NewController(caller Caller, policy Policy, opts ...Option) *Controller {
	c := &Controller{
		caller: caller,
		policy: policy.normalize(),
		sleep:  SleepContext,
		logger: logging.WithComponent("inference"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the effective retry policy.
func (c *Controller) Policy() Policy {
	return c.policy
}

// Do calls upstream until it succeeds, fails fatally or the attempt budget
// runs out. Attempts are strictly sequential.
func (c *Controller) Do(ctx context.Context, req Request) (Outcome, error) {
	return c.run(ctx, req, c.policy.MaxAttempts)
}

// Once makes a single classified attempt with the same error vocabulary as Do.
func (c *Controller) Once(ctx context.Context, req Request) (Outcome, error) {
	return c.run(ctx, req, 1)
}

func (c *Controller) run(ctx context.Context, req Request, maxAttempts int) (Outcome, error) {
	var last Outcome

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		a := c.caller.Call(ctx, req)
		a.Number = attempt

		out := Classify(a, req.Expect)
		metrics.UpstreamAttempts.WithLabelValues(req.Capability, out.Kind.String()).Inc()

		c.logger.Debug().
			Str("capability", req.Capability).
			Int("attempt", attempt).
			Int("status", a.StatusCode).
			Str("content_type", a.ContentType).
			Dur("elapsed", a.Elapsed).
			Str("outcome", out.Kind.String()).
			Msg("upstream attempt")

		switch out.Kind {
		case KindBinarySuccess, KindStructuredSuccess:
			return out, nil
		case KindFatal:
			c.logger.Error().
				Str("capability", req.Capability).
				Int("attempt", attempt).
				Int("status", out.StatusCode).
				Str("reason", string(out.Reason)).
				Str("detail", out.Detail).
				Msg("upstream failed")
			return out, &UpstreamError{
				Capability: req.Capability,
				Kind:       out.Reason,
				StatusCode: out.StatusCode,
				Attempts:   attempt,
				Detail:     out.Detail,
			}
		}

		last = out
		if attempt == maxAttempts {
			break
		}

		delay := c.policy.Delay(attempt)
		metrics.UpstreamRetries.WithLabelValues(req.Capability).Inc()
		c.logger.Info().
			Str("capability", req.Capability).
			Int("status", out.StatusCode).
			Dur("delay", delay).
			Msgf("model loading, retrying [%d/%d]", attempt, maxAttempts)

		if err := c.sleep(ctx, delay); err != nil {
			return last, fmt.Errorf("%s retry wait: %w", req.Capability, err)
		}
	}

	c.logger.Error().
		Str("capability", req.Capability).
		Int("attempts", maxAttempts).
		Int("status", last.StatusCode).
		Str("detail", last.Detail).
		Msg("upstream still not ready, giving up")

	return last, &UpstreamError{
		Capability: req.Capability,
		Kind:       ErrRetryExhausted,
		StatusCode: last.StatusCode,
		Attempts:   maxAttempts,
		Detail:     last.Detail,
	}
}
