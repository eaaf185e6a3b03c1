package notifier

import (
	"log/slog"

	"github.com/anmolkh/internradar/internal/broadcast"
)

// Ensure LogNotifier implements Notifier.
var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes admission events to the given logger as structured
// messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each event via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event with source, company, title, location, and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(evt broadcast.Event) error {
	j := evt.Job
	args := []any{"source", j.Source, "company", j.Company, "title", j.Title, "location", j.Location, "url", j.URL}
	if j.PostedAt != nil {
		args = append(args, "posted_at", *j.PostedAt)
	}
	n.logger.Info(string(evt.Kind), args...)
	return nil
}
