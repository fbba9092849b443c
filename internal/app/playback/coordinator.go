// Package playback coordinates audio playback and the per-question timer.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/blindbox/internal/domain/quiz"
	"github.com/osa030/blindbox/internal/domain/track"
)

// Backend is the playback backend contract. Exactly one backend is owned by
// a Coordinator; no other component may call Start/Stop directly.
type Backend interface {
	// Name returns the backend name (used in logs and config).
	Name() string
	// CanPlay reports whether the backend can start the given track.
	CanPlay(t track.Track) bool
	// Start begins playback of the track. Must return an error when playback
	// cannot begin (missing preview, device not ready).
	Start(ctx context.Context, t track.Track) error
	// Stop pauses playback. Must be safe to call when nothing is playing.
	Stop(ctx context.Context) error
}

// Coordinator owns the single question timer and drives the backend.
// StartQuestion fully stops the previous question before starting the next,
// so timers and audio never overlap.
type Coordinator struct {
	mu sync.Mutex

	backend Backend
	budget  time.Duration

	onTimeout func(questionIndex int)

	// epoch increments on every start/stop so a timeout that fires after its
	// question was stopped is ignored.
	epoch       uint64
	timerCancel func()
	active      bool
	activeIndex int
}

// NewCoordinator creates a coordinator around one backend.
// budget is the listen window per question; onTimeout is invoked exactly once
// when a question's window elapses without a stop.
func NewCoordinator(backend Backend, budget time.Duration, onTimeout func(questionIndex int)) *Coordinator {
	return &Coordinator{
		backend:   backend,
		budget:    budget,
		onTimeout: onTimeout,
	}
}

// Backend returns the wrapped backend.
func (c *Coordinator) Backend() Backend {
	return c.backend
}

// Budget returns the per-question listen window.
func (c *Coordinator) Budget() time.Duration {
	return c.budget
}

// StartQuestion stops any active question, starts backend playback for the
// track and arms the countdown. A backend start failure is reported as
// quiz.ErrPlaybackUnavailable and leaves no timer running.
func (c *Coordinator) StartQuestion(ctx context.Context, questionIndex int, t track.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked(ctx)

	if err := c.backend.Start(ctx, t); err != nil {
		return errors.Mark(errors.Wrapf(err, "backend %s failed to start track %s", c.backend.Name(), t.ID),
			quiz.ErrPlaybackUnavailable)
	}

	c.active = true
	c.activeIndex = questionIndex
	epoch := c.epoch

	zlog.Debug().Msgf("playback: question %d started: track=%s budget=%v backend=%s",
		questionIndex, t.Name, c.budget, c.backend.Name())

	c.timerCancel = c.startTimer(c.budget, func() {
		c.fireTimeout(epoch, questionIndex)
	})

	return nil
}

// Stop cancels the countdown and pauses the backend. Idempotent; safe to call
// when nothing is playing.
func (c *Coordinator) Stop(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked(ctx)
}

// stopLocked must be called with the lock held.
func (c *Coordinator) stopLocked(ctx context.Context) {
	if c.timerCancel != nil {
		c.timerCancel()
		c.timerCancel = nil
	}
	c.epoch++

	if !c.active {
		return
	}
	c.active = false

	if err := c.backend.Stop(ctx); err != nil {
		// Pause failures are logged, not propagated: the question lifecycle
		// has already moved on and the timer is gone.
		zlog.Warn().Msgf("playback: backend %s failed to stop: %v", c.backend.Name(), err)
	}
}

// fireTimeout validates the epoch before invoking the callback so a timer
// that lost the race with Stop is a no-op.
func (c *Coordinator) fireTimeout(epoch uint64, questionIndex int) {
	c.mu.Lock()
	if epoch != c.epoch || !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.timerCancel = nil
	c.epoch++
	// Stop inside the critical section so a StartQuestion for the next track
	// cannot interleave and get paused by this stop.
	if err := c.backend.Stop(context.Background()); err != nil {
		zlog.Warn().Msgf("playback: backend %s failed to stop on timeout: %v", c.backend.Name(), err)
	}
	c.mu.Unlock()

	zlog.Debug().Msgf("playback: question %d timed out", questionIndex)
	if c.onTimeout != nil {
		c.onTimeout(questionIndex)
	}
}

// startTimer triggers callback after duration using wall-clock time.
// Returns a cancel function.
func (c *Coordinator) startTimer(duration time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		endTime := toWallTime(time.Now()).Add(duration)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if toWallTime(time.Now()).After(endTime) {
					callback()
					return
				}
			}
		}
	}()

	return cancel
}

// toWallTime strips the monotonic clock so differences use wall time,
// avoiding drift between the monotonic clock and real time.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
