package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/anmolkh/internradar/internal/broadcast"
	"github.com/anmolkh/internradar/internal/model"
)

// Ensure SlackNotifier implements Notifier.
var _ Notifier = (*SlackNotifier)(nil)

// SlackNotifier pushes admission events to a Slack channel via Incoming
// Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each event to Slack.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends one Slack message for the event using Block Kit.
func (s *SlackNotifier) Notify(evt broadcast.Event) error {
	return s.send(buildPayload(evt))
}

// SendTestMessage posts a fixed message so operators can verify the webhook.
func (s *SlackNotifier) SendTestMessage() error {
	return s.send(slackPayload{Blocks: []slackBlock{{
		Type: "section",
		Text: &slackText{Type: "mrkdwn", Text: ":white_check_mark: internradar webhook is working"},
	}}})
}

func (s *SlackNotifier) send(payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
	URL  string     `json:"url,omitempty"`
}

func buildPayload(evt broadcast.Event) slackPayload {
	j := evt.Job

	header := fmt.Sprintf(":rotating_light: *New internship:* %s", j.Title)
	if evt.Kind == broadcast.KindUpdated {
		header = fmt.Sprintf(":arrows_counterclockwise: *Updated:* %s", j.Title)
	}

	fields := []slackText{
		{Type: "mrkdwn", Text: fmt.Sprintf("*Company:*\n%s", j.Company)},
		{Type: "mrkdwn", Text: fmt.Sprintf("*Source:*\n%s", sourceLabel(j.Source))},
	}
	if j.Location != "" {
		fields = append(fields, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Location:*\n%s", j.Location)})
	}

	return slackPayload{Blocks: []slackBlock{
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: header}},
		{Type: "section", Fields: fields},
		{Type: "actions", Elements: []slackElement{{
			Type: "button",
			Text: &slackText{Type: "plain_text", Text: "Apply"},
			URL:  j.URL,
		}}},
	}}
}

func sourceLabel(s model.Source) string {
	switch s {
	case model.SourceGreenhouse:
		return "Greenhouse"
	case model.SourceLever:
		return "Lever"
	case model.SourceAshby:
		return "Ashby"
	case model.SourceSmartRecruiters:
		return "SmartRecruiters"
	case model.SourceRecruitee:
		return "Recruitee"
	default:
		return string(s)
	}
}
