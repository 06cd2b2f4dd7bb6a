package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AlertConfig holds alerting configuration.
type AlertConfig struct {
	// WebhookURL is a generic webhook endpoint (Slack, Discord, or custom)
	WebhookURL string
	// WebhookType determines the payload format: "slack", "discord", or "generic"
	WebhookType string
	// Timeout for HTTP requests
	Timeout time.Duration
}

// NewAlertConfig fills in the webhook type from the URL when it is not set.
func NewAlertConfig(url, webhookType string) AlertConfig {
	cfg := AlertConfig{
		WebhookURL:  url,
		WebhookType: webhookType,
		Timeout:     10 * time.Second,
	}
	if cfg.WebhookType == "" {
		switch {
		case strings.Contains(url, "slack.com"):
			cfg.WebhookType = "slack"
		case strings.Contains(url, "discord.com"):
			cfg.WebhookType = "discord"
		default:
			cfg.WebhookType = "generic"
		}
	}
	return cfg
}

func (c AlertConfig) Enabled() bool { return c.WebhookURL != "" }

// Alerter sends alerts to configured webhooks.
type Alerter struct {
	cfg    AlertConfig
	client *http.Client
	log    *zap.Logger
}

func NewAlerter(cfg AlertConfig, log *zap.Logger) *Alerter {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// JobAlert describes a failed scheduled job run.
type JobAlert struct {
	JobName   string
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// SendJobAlert posts alert to the webhook. It is a no-op when alerting is
// disabled.
func (a *Alerter) SendJobAlert(ctx context.Context, alert JobAlert) error {
	if !a.cfg.Enabled() {
		a.log.Debug("alerting disabled, skipping", zap.String("job", alert.JobName))
		return nil
	}

	var payload []byte
	var err error
	switch a.cfg.WebhookType {
	case "slack":
		payload, err = buildSlackPayload(alert)
	case "discord":
		payload, err = buildDiscordPayload(alert)
	default:
		payload, err = buildGenericPayload(alert)
	}
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	a.log.Info("alert sent", zap.String("job", alert.JobName), zap.String("type", a.cfg.WebhookType))
	return nil
}

func buildSlackPayload(alert JobAlert) ([]byte, error) {
	payload := map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf(":x: Job failed: %s", alert.JobName),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Duration:*\n%s", alert.Duration.Round(time.Millisecond))},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Timestamp:*\n%s", alert.Timestamp.Format(time.RFC3339))},
				},
			},
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Error:*\n%s", alert.Error),
				},
			},
		},
	}
	return json.Marshal(payload)
}

func buildDiscordPayload(alert JobAlert) ([]byte, error) {
	payload := map[string]any{
		"embeds": []map[string]any{
			{
				"title":       fmt.Sprintf("Job failed: %s", alert.JobName),
				"description": alert.Error,
				"color":       16711680, // red
				"fields": []map[string]any{
					{"name": "Duration", "value": alert.Duration.Round(time.Millisecond).String(), "inline": true},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}
	return json.Marshal(payload)
}

func buildGenericPayload(alert JobAlert) ([]byte, error) {
	payload := map[string]any{
		"alert_type":  "job_failure",
		"job_name":    alert.JobName,
		"error":       alert.Error,
		"duration_ms": alert.Duration.Milliseconds(),
		"timestamp":   alert.Timestamp.Format(time.RFC3339),
	}
	return json.Marshal(payload)
}
