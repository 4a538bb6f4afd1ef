// Package adapter contains outbound integrations. The only one today is
// the audit webhook that mirrors remediation ledger transitions to an
// external sink.
package adapter

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/amanahapps/zakat-keeper/internal/config"
	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/service"
	"github.com/amanahapps/zakat-keeper/models"
)

const defaultWebhookTimeout = 5 * time.Second

// auditEvent is the webhook payload. It mirrors the ledger entry, which by
// construction holds no key material and no plaintext.
type auditEvent struct {
	Event      string    `json:"event"`
	IssueID    string    `json:"issue_id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	FieldName  string    `json:"field_name"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// auditWebhook delivers remediation lifecycle events to a configured HTTP
// endpoint. Delivery is best effort and asynchronous: the remediation
// workflow never waits on the sink, and delivery failures are logged and
// dropped.
type auditWebhook struct {
	client *resty.Client
	logger *logger.Logger
}

// NewAuditWebhook builds an audit notifier for cfg.AuditWebhookURL.
// Returns nil when no URL is configured, which disables audit events.
func NewAuditWebhook(cfg config.Adapter, log *logger.Logger) service.AuditNotifier {
	if cfg.AuditWebhookURL == "" {
		return nil
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.AuditWebhookURL, "/")).
		SetTimeout(timeout)

	return &auditWebhook{client: cli, logger: log}
}

// NotifyIssueEvent posts the event to the webhook in a separate goroutine.
// The caller's context only contributes its logger; delivery runs on its
// own timeout so an in-flight request survives the originating HTTP
// request's cancellation.
func (w *auditWebhook) NotifyIssueEvent(ctx context.Context, event string, issue models.RemediationIssue) {
	log := logger.FromContext(ctx)

	payload := auditEvent{
		Event:      event,
		IssueID:    issue.ID,
		TargetType: issue.TargetType,
		TargetID:   issue.TargetID,
		FieldName:  issue.FieldName,
		Status:     issue.Status,
		OccurredAt: time.Now().UTC(),
	}

	go func() {
		resp, err := w.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(payload).
			Post("")
		if err != nil {
			log.Warn().
				Err(err).
				Str("func", "auditWebhook.NotifyIssueEvent").
				Str("event", event).
				Str("issue_id", issue.ID).
				Msg("audit webhook delivery failed")
			return
		}

		if resp.StatusCode() >= http.StatusBadRequest {
			log.Warn().
				Str("func", "auditWebhook.NotifyIssueEvent").
				Str("event", event).
				Str("issue_id", issue.ID).
				Int("status", resp.StatusCode()).
				Msg("audit webhook rejected event")
		}
	}()
}
