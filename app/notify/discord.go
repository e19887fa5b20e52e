package notify

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/h1feed/hacktivity-relay/app/config"
	"github.com/h1feed/hacktivity-relay/app/feed"
)

// Notifier delivers a single disclosure to the configured destination.
type Notifier interface {
	Send(ctx context.Context, item feed.Item) error
}

var _ Notifier = (*Discord)(nil)

// Discord posts disclosures as webhook embeds, paced by a local rate
// limiter against the webhook rate limit.
type Discord struct {
	httpClient *http.Client
	webhookURL string
	username   string
	color      int
	footer     string
	timeout    time.Duration
	limiter    *rate.Limiter
}

func NewDiscord(httpClient *http.Client, webhookURL string, settings *config.NotifySettings) *Discord {
	return &Discord{
		httpClient: httpClient,
		webhookURL: webhookURL,
		username:   settings.Username,
		color:      settings.Color,
		footer:     settings.Footer,
		timeout:    settings.GetTimeout(),
		limiter:    rate.NewLimiter(rate.Every(settings.GetRateInterval()), 1),
	}
}

type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Footer      *embedFooter `json:"footer,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

func (d *Discord) Send(ctx context.Context, item feed.Item) error {
	// Pacing happens before the delivery timeout starts counting
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to pace webhook post: %w", err)
	}

	payload, err := json.Marshal(d.buildPayload(item))
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, resp.Status, msg)
		}
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return nil
}

func (d *Discord) buildPayload(item feed.Item) webhookPayload {
	e := embed{
		Title:       "New Disclosure: " + sanitizeMarkdown(item.Title),
		URL:         item.URL,
		Description: item.PreviewText,
		Color:       d.color,
		Fields: []embedField{
			{Name: "Program", Value: cmp.Or(sanitizeMarkdown(item.Program), "N/A"), Inline: true},
			{Name: "Severity", Value: formatSeverity(item.Severity), Inline: true},
			{Name: "Report ID", Value: "#" + item.ID, Inline: true},
		},
	}
	if d.footer != "" {
		e.Footer = &embedFooter{Text: d.footer}
	}

	return webhookPayload{
		Username: d.username,
		Embeds:   []embed{e},
	}
}

// formatSeverity renders the upstream rating for display, e.g. "critical"
// becomes "Critical"
func formatSeverity(severity string) string {
	if severity == "" {
		return "N/A"
	}
	return cases.Title(language.English).String(severity)
}
