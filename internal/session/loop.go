package session

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// LoopOptions controls how a Loop schedules ticks.
type LoopOptions struct {
	TickRate int    // Ticks per second; 0 or less runs unthrottled
	MaxTicks uint64 // Stop after this many ticks; 0 runs until cancelled
	Logger   *log.Logger
}

// Loop drives a session at a fixed rate until its context is cancelled.
type Loop struct {
	session *Session
	opts    LoopOptions
	logger  *log.Logger
}

// NewLoop creates a loop for s. The loop owns s and closes it when Run returns.
func NewLoop(s *Session, opts LoopOptions) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loop{session: s, opts: opts, logger: logger.WithPrefix("loop")}
}

// Run steps the session until ctx is done, MaxTicks is reached or the session
// is closed elsewhere. Cancellation is a normal stop and returns nil.
// The session is closed before Run returns; no tick runs after that.
func (l *Loop) Run(ctx context.Context) error {
	defer l.session.Close()

	var tick <-chan time.Time
	if l.opts.TickRate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(l.opts.TickRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	var ticks uint64
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return l.stopped(ticks)
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return l.stopped(ticks)
		}

		if err := l.session.Step(); err != nil {
			if errors.Is(err, ErrClosed) {
				return l.stopped(ticks)
			}
			return err
		}
		ticks++
		if l.opts.MaxTicks > 0 && ticks >= l.opts.MaxTicks {
			return l.stopped(ticks)
		}
	}
}

func (l *Loop) stopped(ticks uint64) error {
	l.logger.Debug("loop stopped", "ticks", ticks)
	return nil
}
