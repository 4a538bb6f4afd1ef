package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanahapps/zakat-keeper/internal/config"
	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/service"
	"github.com/amanahapps/zakat-keeper/models"
)

func TestNewAuditWebhook_DisabledWithoutURL(t *testing.T) {
	notifier := NewAuditWebhook(config.Adapter{}, logger.Nop())
	assert.Nil(t, notifier)
}

func TestNotifyIssueEvent_DeliversPayload(t *testing.T) {
	received := make(chan auditEvent, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event auditEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			t.Errorf("failed to decode webhook body: %v", err)
		}
		received <- event
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	notifier := NewAuditWebhook(config.Adapter{AuditWebhookURL: srv.URL}, logger.Nop())
	require.NotNil(t, notifier)

	issue := models.RemediationIssue{
		ID:         "issue-1",
		TargetType: models.TargetTypePayment,
		TargetID:   "payment-1",
		FieldName:  models.FieldRecipient,
		Status:     models.IssueStatusResolved,
	}

	notifier.NotifyIssueEvent(context.Background(), service.AuditEventIssueResolved, issue)

	select {
	case event := <-received:
		assert.Equal(t, service.AuditEventIssueResolved, event.Event)
		assert.Equal(t, "issue-1", event.IssueID)
		assert.Equal(t, models.IssueStatusResolved, event.Status)
		assert.False(t, event.OccurredAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("webhook was never called")
	}
}

// Delivery runs off the caller's goroutine; a dead sink must not block or
// fail the remediation workflow.
func TestNotifyIssueEvent_SinkDownIsNonFatal(t *testing.T) {
	notifier := NewAuditWebhook(config.Adapter{
		AuditWebhookURL: "http://127.0.0.1:1",
		RequestTimeout:  50 * time.Millisecond,
	}, logger.Nop())
	require.NotNil(t, notifier)

	done := make(chan struct{})
	go func() {
		notifier.NotifyIssueEvent(context.Background(), service.AuditEventIssueOpened, models.RemediationIssue{ID: "issue-1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyIssueEvent blocked on delivery")
	}
}
