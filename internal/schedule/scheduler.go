// Package schedule fires the digest at fixed wall-clock times.
//
// Triggers are matched in a fixed timezone by computing the next trigger
// instant in that location, never by counting elapsed intervals, so the
// schedule stays correct across daylight-saving transitions.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Trigger is a daily wall-clock firing time.
type Trigger struct {
	Hour   int
	Minute int
}

// ParseTrigger parses "HH:MM" (24-hour) into a Trigger.
func ParseTrigger(s string) (Trigger, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Trigger{}, fmt.Errorf("invalid trigger %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Trigger{}, fmt.Errorf("invalid trigger %q: bad hour", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Trigger{}, fmt.Errorf("invalid trigger %q: bad minute", s)
	}
	return Trigger{Hour: hour, Minute: minute}, nil
}

// Sink receives the finished digest. Delivery is best-effort: failures are
// logged and the next scheduled run is unaffected.
type Sink interface {
	Deliver(ctx context.Context, text string) error
}

// Rewriter optionally reshapes the digest text before delivery (e.g. through
// a language-model completion). Any failure falls back to the raw digest.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}

// Scheduler owns the trigger loop. Each firing regenerates the digest from
// live store state; nothing is cached between runs.
type Scheduler struct {
	triggers []Trigger
	loc      *time.Location
	generate func(now time.Time) string
	sink     Sink
	rewriter Rewriter
	now      func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRewriter enables the optional digest rewrite step.
func WithRewriter(r Rewriter) Option {
	return func(s *Scheduler) {
		s.rewriter = r
	}
}

// WithNow overrides the wall clock. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a Scheduler firing generate at each trigger and handing the
// result to the sink.
func New(triggers []Trigger, loc *time.Location, generate func(now time.Time) string, sink Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		triggers: triggers,
		loc:      loc,
		generate: generate,
		sink:     sink,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextTrigger returns the earliest trigger instant strictly after now.
//
// Candidates are built with time.Date in the scheduler's location, which
// resolves the correct UTC offset for that calendar day - a trigger at 08:00
// fires at 08:00 local time on both sides of a DST change.
func NextTrigger(now time.Time, triggers []Trigger, loc *time.Location) time.Time {
	local := now.In(loc)

	var next time.Time
	for _, tr := range triggers {
		cand := time.Date(local.Year(), local.Month(), local.Day(), tr.Hour, tr.Minute, 0, 0, loc)
		if !cand.After(now) {
			cand = time.Date(local.Year(), local.Month(), local.Day()+1, tr.Hour, tr.Minute, 0, 0, loc)
		}
		if next.IsZero() || cand.Before(next) {
			next = cand
		}
	}
	return next
}

// Run loops until the context is cancelled. Returns ctx.Err() on shutdown,
// or an error immediately if no triggers are registered.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.triggers) == 0 {
		return fmt.Errorf("scheduler: no triggers registered")
	}

	for {
		next := NextTrigger(s.now(), s.triggers, s.loc)
		timer := time.NewTimer(next.Sub(s.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			s.runOnce(ctx, next)
		}
	}
}

// runOnce produces and delivers one digest. Sink and rewrite failures are
// logged, never propagated - a bad webhook must not kill the loop.
func (s *Scheduler) runOnce(ctx context.Context, now time.Time) {
	text := s.generate(now)

	if s.rewriter != nil {
		rewritten, err := s.rewriter.Rewrite(ctx, text)
		if err != nil {
			slog.Warn("digest rewrite failed, using raw digest", "error", err)
		} else {
			text = rewritten
		}
	}

	if err := s.sink.Deliver(ctx, text); err != nil {
		slog.Error("digest delivery failed", "error", err)
		return
	}
	slog.Info("digest delivered", "at", now.In(s.loc).Format("15:04"))
}
