package notifier

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/anmolkh/internradar/internal/broadcast"
)

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(sampleEvent(broadcast.KindNew)); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"job.new", "Acme Corp", "Software Engineering Intern", "greenhouse"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}
