// Package events fans mutation events out to live subscriber channels.
//
// Each subscriber receives pre-framed server-sent-event bytes: typed events
// as "event: <type>\ndata: <json>\n\n" frames and periodic ": keep-alive\n\n"
// comment frames. Comment frames are transport noise - SSE clients never
// surface them as events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/pulseboard/internal/model"
)

// Event types published by the API surface.
const (
	TypeTaskChanged    = "task-changed"
	TypeProjectChanged = "project-changed"
)

// Actions carried in change payloads.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangePayload is the wire payload of task-changed and project-changed
// events. Exactly one of Task or Project is set.
type ChangePayload struct {
	Action  string         `json:"action"`
	Task    *model.Task    `json:"task,omitempty"`
	Project *model.Project `json:"project,omitempty"`
}

// DefaultKeepAliveInterval bounds how long an idle subscriber channel goes
// without traffic, so intermediaries don't time the connection out.
const DefaultKeepAliveInterval = 15 * time.Second

// subscriberBuffer is each subscriber's frame backlog. A subscriber that
// falls this far behind is treated as gone and dropped.
const subscriberBuffer = 16

type subscriber struct {
	ch chan []byte
}

// Broadcaster is the owned registry of live subscribers.
//
// Thread-safety: Subscribe, Unsubscribe, and Publish may be called from any
// goroutine and may interleave freely. The registry lock is never held
// across a blocking operation - deliveries are non-blocking sends into each
// subscriber's buffer.
type Broadcaster struct {
	mu        sync.Mutex
	subs      map[string]*subscriber
	keepAlive time.Duration
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithKeepAliveInterval overrides the keep-alive period. Intended for tests.
func WithKeepAliveInterval(d time.Duration) Option {
	return func(b *Broadcaster) {
		b.keepAlive = d
	}
}

// New creates an empty Broadcaster.
func New(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		subs:      make(map[string]*subscriber),
		keepAlive: DefaultKeepAliveInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new live channel and returns its opaque handle
// together with the frame stream. The channel is closed on Unsubscribe (or
// when the subscriber is dropped for falling behind); it never replays
// events published before the subscription.
func (b *Broadcaster) Subscribe() (handle string, frames <-chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handle = uuid.NewString()
	sub := &subscriber{ch: make(chan []byte, subscriberBuffer)}
	b.subs[handle] = sub
	return handle, sub.ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown or
// already-removed handles are ignored, so calling it twice is safe.
func (b *Broadcaster) Unsubscribe(handle string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(handle)
}

// remove must be called with b.mu held.
func (b *Broadcaster) remove(handle string) {
	sub, ok := b.subs[handle]
	if !ok {
		return
	}
	delete(b.subs, handle)
	close(sub.ch)
}

// Publish frames the event and writes it to every current subscriber. A
// subscriber that cannot accept the frame is dropped without affecting
// delivery to the rest. Returns an error only if the payload cannot be
// serialized.
func (b *Broadcaster) Publish(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	frame := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, data))
	b.fanOut(frame)
	return nil
}

// fanOut delivers one frame to all subscribers, dropping any that are full.
func (b *Broadcaster) fanOut(frame []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for handle, sub := range b.subs {
		select {
		case sub.ch <- frame:
		default:
			slog.Warn("dropping stalled subscriber", "handle", handle)
			b.remove(handle)
		}
	}
}

// Len returns the current number of subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Run emits keep-alive comment frames to all subscribers until the context
// is cancelled. Subscribers that stopped draining are cleaned up on the
// tick, so a disconnected client cannot leak past the next interval.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.keepAlive)
	defer ticker.Stop()

	keepAlive := []byte(": keep-alive\n\n")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.fanOut(keepAlive)
		}
	}
}
