package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bnema/slotwatch/internal/domain"
	"github.com/bnema/slotwatch/internal/ports"
	"go.uber.org/zap"
)

const (
	DefaultJitterMin = 1 * time.Second
	DefaultJitterMax = 6 * time.Second
)

var testNotificationDetails = map[string]any{
	"earliestDate":      "TEST",
	"earliestSlotLists": []any{},
	"test":              true,
}

type CheckerOptions struct {
	JitterMin time.Duration
	JitterMax time.Duration

	// PersistOnNotifyFailure saves the new state even when the notifier
	// fails. When false the state is left untouched so the next run retries
	// the notification.
	PersistOnNotifyFailure bool
}

type Checker struct {
	source   ports.AvailabilitySource
	store    ports.StateStore
	notifier ports.Notifier
	clock    ports.Clock
	logger   *zap.Logger
	opts     CheckerOptions

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(lo, hi time.Duration) time.Duration
}

func NewChecker(source ports.AvailabilitySource, store ports.StateStore, notifier ports.Notifier, clock ports.Clock, logger *zap.Logger, opts CheckerOptions) *Checker {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Checker{
		source:   source,
		store:    store,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		opts:     opts,
		sleep:    sleepContext,
		jitter:   uniformJitter,
	}
}

// Check runs one full poll: jitter, fetch, interpret, decide. Fetch failures
// are returned before the state store is touched.
func (c *Checker) Check(ctx context.Context, cmd CheckCommand) (Result, error) {
	if !cmd.SkipJitter {
		delay := c.jitter(c.opts.JitterMin, c.opts.JitterMax)
		if delay > 0 {
			c.logger.Debug("waiting before request", zap.Duration("delay", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return Result{}, err
			}
		}
	}

	payload, err := c.source.Fetch(ctx)
	if err != nil {
		c.logger.Warn("availability fetch failed", zap.Error(err), zap.Bool("benign", IsBenign(err)))
		return Result{}, fmt.Errorf("fetch availability: %w", err)
	}

	signal := domain.Interpret(payload)
	if _, opaque := payload.(domain.OpaquePayload); opaque {
		c.logger.Warn("unexpected response shape", zap.Any("details", signal.RawDetails))
	}

	if cmd.DryRun {
		return c.Preview(ctx, signal)
	}

	return c.DecideAndNotify(ctx, signal)
}

// DecideAndNotify loads the prior state, notifies when the signal is
// notify-worthy and persists the new state.
func (c *Checker) DecideAndNotify(ctx context.Context, signal domain.AvailabilitySignal) (Result, error) {
	prior := c.loadState(ctx)
	decision := domain.Decide(signal, prior)

	result := Result{
		State:     decision.Next,
		Prior:     prior,
		Signal:    signal,
		Reason:    decision.Reason,
		CheckedAt: c.clock.Now(),
	}

	var notifyErr error
	if decision.ShouldNotify {
		if err := c.notifier.Notify(ctx, signal.RawDetails); err != nil {
			notifyErr = fmt.Errorf("%w: %w", domain.ErrNotifyFailed, err)
			c.logger.Error("notification failed",
				zap.Error(err),
				zap.String("reason", string(decision.Reason)),
				zap.Bool("persist_state", c.opts.PersistOnNotifyFailure),
			)
			if !c.opts.PersistOnNotifyFailure {
				result.State = prior
				return result, notifyErr
			}
		} else {
			result.Notified = true
		}
	}

	if err := c.store.Save(ctx, decision.Next); err != nil {
		return result, errors.Join(notifyErr, fmt.Errorf("save state: %w", err))
	}

	c.logger.Info("availability checked",
		zap.String("status", string(result.State.LastStatus)),
		zap.String("earliest_date", result.State.LastSeenEarliestDate),
		zap.Bool("notified", result.Notified),
		zap.String("reason", string(result.Reason)),
	)

	return result, notifyErr
}

// Preview decides like DecideAndNotify without notifying or saving.
func (c *Checker) Preview(ctx context.Context, signal domain.AvailabilitySignal) (Result, error) {
	prior := c.loadState(ctx)
	decision := domain.Decide(signal, prior)

	return Result{
		State:       decision.Next,
		Prior:       prior,
		Signal:      signal,
		Reason:      decision.Reason,
		WouldNotify: decision.ShouldNotify,
		DryRun:      true,
		CheckedAt:   c.clock.Now(),
	}, nil
}

func (c *Checker) Status(ctx context.Context) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return domain.State{}, err
	}

	return c.loadState(ctx), nil
}

func (c *Checker) Reset(ctx context.Context) error {
	if err := c.store.Save(ctx, domain.FreshState()); err != nil {
		return fmt.Errorf("reset state: %w", err)
	}

	return nil
}

func (c *Checker) TestNotification(ctx context.Context) error {
	if err := c.notifier.Notify(ctx, testNotificationDetails); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotifyFailed, err)
	}

	return nil
}

// loadState never fails: a missing or unreadable store is a fresh start.
func (c *Checker) loadState(ctx context.Context) domain.State {
	state, err := c.store.Load(ctx)
	if err == nil {
		return state
	}

	if !errors.Is(err, domain.ErrStateNotFound) {
		c.logger.Warn("state unreadable, starting fresh", zap.Error(err))
	}

	return domain.FreshState()
}

// IsBenign reports whether err is a fetch failure that should end the run
// quietly without a non-zero exit.
func IsBenign(err error) bool {
	return errors.Is(err, domain.ErrTransport) ||
		errors.Is(err, domain.ErrAuthRejected) ||
		errors.Is(err, domain.ErrUpstreamStatus) ||
		errors.Is(err, domain.ErrMalformedResponse)
}

func uniformJitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}

	return lo + rand.N(hi-lo+1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
