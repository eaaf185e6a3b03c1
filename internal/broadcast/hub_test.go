package broadcast

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/anmolkh/internradar/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvent(id string) Event {
	return Event{
		Kind: KindNew,
		Job: model.Job{
			Source:     model.SourceLever,
			ExternalID: id,
			Title:      "Backend Intern",
			Company:    "Examplecorp",
			URL:        "https://jobs.lever.co/examplecorp/" + id,
		},
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub(discardLogger())

	a := hub.Subscribe()
	b := hub.Subscribe()
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Publish(testEvent("1"))

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case evt := <-ch:
			if evt.Job.ExternalID != "1" {
				t.Errorf("subscriber %s: got job %q, want 1", name, evt.Job.ExternalID)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s: no event received", name)
		}
	}
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	hub := NewHub(discardLogger())

	hub.Publish(testEvent("1"))

	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	select {
	case evt := <-ch:
		t.Fatalf("late subscriber received stale event %q", evt.Job.ExternalID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub(discardLogger())

	// Never drained: the buffer fills and further events must drop.
	slow := hub.Subscribe()
	defer hub.Unsubscribe(slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.Publish(testEvent("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(discardLogger())

	ch := hub.Subscribe()
	if got := hub.Subscribers(); got != 1 {
		t.Fatalf("Subscribers() = %d, want 1", got)
	}

	hub.Unsubscribe(ch)
	if got := hub.Subscribers(); got != 0 {
		t.Fatalf("Subscribers() = %d, want 0", got)
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("received event on unsubscribed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Unsubscribe")
	}

	// A second Unsubscribe of the same channel must be harmless.
	hub.Unsubscribe(ch)
}
