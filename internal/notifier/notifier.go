package notifier

import (
	"context"
	"log/slog"

	"github.com/anmolkh/internradar/internal/broadcast"
)

// Notifier consumes admission events from the broadcaster.
type Notifier interface {
	Notify(evt broadcast.Event) error
}

// Run subscribes n to the hub and forwards events until ctx is cancelled.
// Notification failures are logged, never fatal.
func Run(ctx context.Context, hub *broadcast.Hub, n Notifier, logger *slog.Logger) {
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := n.Notify(evt); err != nil {
				logger.Error("notification failed",
					"kind", evt.Kind,
					"company", evt.Job.Company,
					"title", evt.Job.Title,
					"error", err,
				)
			}
		}
	}
}
