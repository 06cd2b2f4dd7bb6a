package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlertConfig_DetectsType(t *testing.T) {
	assert.Equal(t, "slack", NewAlertConfig("https://hooks.slack.com/services/x", "").WebhookType)
	assert.Equal(t, "discord", NewAlertConfig("https://discord.com/api/webhooks/x", "").WebhookType)
	assert.Equal(t, "generic", NewAlertConfig("https://example.test/hook", "").WebhookType)
	assert.Equal(t, "slack", NewAlertConfig("https://example.test/hook", "slack").WebhookType)
	assert.False(t, NewAlertConfig("", "").Enabled())
}

func TestSendJobAlert_Generic(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	a := NewAlerter(NewAlertConfig(srv.URL, "generic"), nil)
	err := a.SendJobAlert(context.Background(), JobAlert{
		JobName:   "monthly_report",
		Error:     "smtp down",
		Duration:  1500 * time.Millisecond,
		Timestamp: time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "job_failure", got["alert_type"])
	assert.Equal(t, "monthly_report", got["job_name"])
	assert.Equal(t, "smtp down", got["error"])
	assert.Equal(t, float64(1500), got["duration_ms"])
}

func TestSendJobAlert_Slack(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	a := NewAlerter(NewAlertConfig(srv.URL, "slack"), nil)
	require.NoError(t, a.SendJobAlert(context.Background(), JobAlert{JobName: "j", Error: "e", Timestamp: time.Now()}))
	assert.Len(t, got["blocks"], 3)
}

func TestSendJobAlert_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewAlerter(NewAlertConfig(srv.URL, "discord"), nil)
	err := a.SendJobAlert(context.Background(), JobAlert{JobName: "j", Timestamp: time.Now()})
	assert.ErrorContains(t, err, "502")
}

func TestSendJobAlert_Disabled(t *testing.T) {
	a := NewAlerter(NewAlertConfig("", ""), nil)
	assert.NoError(t, a.SendJobAlert(context.Background(), JobAlert{JobName: "j"}))
}
