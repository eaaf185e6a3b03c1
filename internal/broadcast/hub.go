package broadcast

import (
	"log/slog"
	"sync"

	"github.com/anmolkh/internradar/internal/model"
)

// Kind labels a broadcast event.
type Kind string

const (
	KindNew     Kind = "job.new"
	KindUpdated Kind = "job.updated"
)

// Event is one admission pushed to live subscribers. Events are ephemeral:
// a subscriber that connects after publication never sees it.
type Event struct {
	Kind Kind      `json:"type"`
	Job  model.Job `json:"data"`
}

// subscriberBuffer bounds each subscriber's channel. When a consumer falls
// this far behind, events are dropped for it rather than blocking publish.
const subscriberBuffer = 16

// Hub fans admitted-job events out to any number of live subscribers.
// Publish never blocks: each subscriber has its own buffered channel and a
// slow one loses events instead of applying backpressure to the pipeline.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan Event]struct{}
	dropped uint64
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		logger: logger,
	}
}

// Subscribe registers a new subscriber and returns its event channel.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call
// concurrently with Publish; unknown channels are ignored.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers the event to every currently-connected subscriber,
// at most once each. Fire and forget.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			h.dropped++
			h.logger.Debug("dropping event for slow subscriber",
				"kind", evt.Kind,
				"job", evt.Job.ExternalID,
			)
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
