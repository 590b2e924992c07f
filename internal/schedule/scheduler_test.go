package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		in      string
		want    Trigger
		wantErr bool
	}{
		{in: "09:00", want: Trigger{Hour: 9}},
		{in: "17:30", want: Trigger{Hour: 17, Minute: 30}},
		{in: "00:00", want: Trigger{}},
		{in: "23:59", want: Trigger{Hour: 23, Minute: 59}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTrigger(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextTrigger_SameDay(t *testing.T) {
	loc := london(t)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, loc)

	next := NextTrigger(now, []Trigger{{Hour: 9}}, loc)

	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, loc), next)
}

func TestNextTrigger_RollsToTomorrow(t *testing.T) {
	loc := london(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, loc) // exactly at the trigger

	next := NextTrigger(now, []Trigger{{Hour: 9}}, loc)

	// A trigger instant that is not strictly in the future rolls over.
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, loc), next)
}

func TestNextTrigger_PicksEarliestOfSeveral(t *testing.T) {
	loc := london(t)
	triggers := []Trigger{{Hour: 17}, {Hour: 9}, {Hour: 12, Minute: 30}}

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 2, 12, 30, 0, 0, loc), NextTrigger(now, triggers, loc))

	late := time.Date(2026, 3, 2, 18, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, loc), NextTrigger(late, triggers, loc))
}

func TestNextTrigger_AcrossSpringForward(t *testing.T) {
	loc := london(t)

	// Clocks go forward 29th March 2026 at 01:00 GMT. The 08:00 trigger on
	// the 29th must land at 08:00 BST (07:00 UTC), i.e. 22 wall hours after
	// 09:00 GMT on the 28th - not 23 as naive interval counting would give.
	now := time.Date(2026, 3, 28, 9, 0, 0, 0, loc)
	next := NextTrigger(now, []Trigger{{Hour: 8}}, loc)

	assert.Equal(t, "08:00", next.In(loc).Format("15:04"))
	assert.Equal(t, 22*time.Hour, next.Sub(now))
}

func TestNextTrigger_AcrossFallBack(t *testing.T) {
	loc := london(t)

	// Clocks go back 25th October 2026 at 02:00 BST. The local trigger time
	// still holds; the interval stretches to 25 hours.
	now := time.Date(2026, 10, 24, 7, 0, 0, 0, loc)
	first := NextTrigger(now, []Trigger{{Hour: 8}}, loc)
	require.Equal(t, time.Date(2026, 10, 24, 8, 0, 0, 0, loc), first)

	second := NextTrigger(first, []Trigger{{Hour: 8}}, loc)
	assert.Equal(t, "08:00", second.In(loc).Format("15:04"))
	assert.Equal(t, 25*time.Hour, second.Sub(first))
}

// recordingSink captures deliveries and optionally fails them.
type recordingSink struct {
	delivered []string
	err       error
}

func (s *recordingSink) Deliver(ctx context.Context, text string) error {
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, text)
	return nil
}

func TestRunOnce_DeliversFreshDigest(t *testing.T) {
	loc := london(t)
	calls := 0
	generate := func(now time.Time) string {
		calls++
		return "digest"
	}
	sink := &recordingSink{}

	s := New([]Trigger{{Hour: 9}}, loc, generate, sink)
	s.runOnce(context.Background(), time.Now())
	s.runOnce(context.Background(), time.Now())

	assert.Equal(t, 2, calls, "each firing must regenerate, not reuse a cached digest")
	assert.Equal(t, []string{"digest", "digest"}, sink.delivered)
}

func TestRunOnce_SinkFailureDoesNotPropagate(t *testing.T) {
	loc := london(t)
	sink := &recordingSink{err: errors.New("webhook down")}

	s := New([]Trigger{{Hour: 9}}, loc, func(time.Time) string { return "digest" }, sink)

	// Must neither panic nor surface the delivery error.
	s.runOnce(context.Background(), time.Now())
}

type stubRewriter struct {
	out string
	err error
}

func (r *stubRewriter) Rewrite(ctx context.Context, text string) (string, error) {
	return r.out, r.err
}

func TestRunOnce_RewriterApplied(t *testing.T) {
	sink := &recordingSink{}
	s := New([]Trigger{{Hour: 9}}, london(t),
		func(time.Time) string { return "raw" },
		sink,
		WithRewriter(&stubRewriter{out: "polished"}),
	)

	s.runOnce(context.Background(), time.Now())

	assert.Equal(t, []string{"polished"}, sink.delivered)
}

func TestRunOnce_RewriterFailureFallsBackToRaw(t *testing.T) {
	sink := &recordingSink{}
	s := New([]Trigger{{Hour: 9}}, london(t),
		func(time.Time) string { return "raw" },
		sink,
		WithRewriter(&stubRewriter{err: errors.New("model offline")}),
	)

	s.runOnce(context.Background(), time.Now())

	assert.Equal(t, []string{"raw"}, sink.delivered)
}

func TestRun_NoTriggers(t *testing.T) {
	s := New(nil, london(t), func(time.Time) string { return "" }, &recordingSink{})
	assert.Error(t, s.Run(context.Background()))
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New([]Trigger{{Hour: 9}}, london(t), func(time.Time) string { return "" }, &recordingSink{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
