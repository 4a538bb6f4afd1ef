package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/amanahapps/zakat-keeper/internal/crypto"
	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/store"
	"github.com/amanahapps/zakat-keeper/internal/utils"
	"github.com/amanahapps/zakat-keeper/models"
)

// remediationService implements [RemediationService]: the operator workflow
// for fields that no configured key can decrypt.
type remediationService struct {
	payments      store.PaymentRepository
	issues        store.IssueRepository
	fields        FieldCodec
	engine        EncryptionEngine
	notifier      AuditNotifier
	ids           *utils.UUIDGenerator
	scanBatchSize int
	logger        *logger.Logger
}

// NewRemediationService constructs a [RemediationService]. notifier may be
// nil, in which case audit events are dropped.
func NewRemediationService(payments store.PaymentRepository, issues store.IssueRepository, fields FieldCodec, engine EncryptionEngine, notifier AuditNotifier, ids *utils.UUIDGenerator, scanBatchSize int, log *logger.Logger) RemediationService {
	return &remediationService{
		payments:      payments,
		issues:        issues,
		fields:        fields,
		engine:        engine,
		notifier:      notifier,
		ids:           ids,
		scanBatchSize: scanBatchSize,
		logger:        log,
	}
}

// Scan walks every payment in keyset pages, attempts decryption of each
// server-held field, and records an OPEN issue for every failure.
//
// Running the scan twice over unchanged data creates nothing the second
// time: the ledger keeps at most one issue per failing field, and terminal
// issues left by operators are never reopened by a scan.
func (s *remediationService) Scan(ctx context.Context) (models.ScanResponse, error) {
	log := logger.FromContext(ctx)

	var scanned, created int
	afterID := ""

	for {
		page, err := s.payments.ListPage(ctx, afterID, s.scanBatchSize)
		if err != nil {
			return models.ScanResponse{}, err
		}
		if len(page) == 0 {
			break
		}

		for _, payment := range page {
			scanned++

			opened, err := s.scanPayment(ctx, payment)
			if err != nil {
				return models.ScanResponse{}, err
			}
			created += opened
		}

		afterID = page[len(page)-1].ID
		if len(page) < s.scanBatchSize {
			break
		}
	}

	log.Info().
		Str("func", "remediationService.Scan").
		Int("scanned", scanned).
		Int("created", created).
		Msg("remediation scan finished")

	return models.ScanResponse{Created: created, Scanned: scanned}, nil
}

// scanPayment checks both sensitive fields of one payment and opens issues
// for those that fail decryption. Returns the number of issues created.
func (s *remediationService) scanPayment(ctx context.Context, payment models.Payment) (int, error) {
	targets := []struct {
		field  string
		stored string
		format string
	}{
		{models.FieldRecipient, payment.Recipient, payment.RecipientFormat},
		{models.FieldNotes, payment.Notes, payment.NotesFormat},
	}

	created := 0
	for _, target := range targets {
		if target.stored == "" {
			continue
		}

		ref := FieldRef{TargetType: models.TargetTypePayment, TargetID: payment.ID, FieldName: target.field}

		_, err := s.fields.DecryptField(ctx, ref, target.stored, target.format)
		if err == nil {
			continue
		}

		var decryptErr *FieldDecryptError
		if !errors.As(err, &decryptErr) {
			return created, err
		}

		issue := models.RemediationIssue{
			ID:         s.ids.Generate(),
			TargetType: ref.TargetType,
			TargetID:   ref.TargetID,
			FieldName:  ref.FieldName,
			Status:     models.IssueStatusOpen,
			SampleData: decryptErr.Sample,
			Note:       decryptErr.Err.Error(),
		}

		inserted, err := s.issues.InsertOpen(ctx, issue)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
			s.notify(ctx, AuditEventIssueOpened, issue)
		}
	}

	return created, nil
}

// ListIssues returns ledger entries matching the filter, newest first.
func (s *remediationService) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.RemediationIssue, error) {
	return s.issues.List(ctx, filter)
}

// Retry attempts to recover an OPEN issue's field with an operator-supplied
// key that is deliberately not part of the configured ring.
//
// On success the recovered plaintext is re-encrypted under the current key
// and the payment update and the RESOLVED transition commit in one
// transaction. On failure nothing is modified and the result's reason code
// tells the operator whether the key was wrong or the data is corrupt.
func (s *remediationService) Retry(ctx context.Context, issueID, keyMaterial string) (models.RetryResult, error) {
	log := logger.FromContext(ctx)

	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return models.RetryResult{}, err
	}

	switch issue.Status {
	case models.IssueStatusResolved:
		return models.RetryResult{}, ErrIssueResolved
	case models.IssueStatusUnrecoverable:
		return models.RetryResult{}, ErrIssueUnrecoverable
	}

	key, err := crypto.ParseKey(keyMaterial)
	if err != nil {
		return models.RetryResult{}, fmt.Errorf("%w: %w", ErrInvalidKeyMaterial, err)
	}

	payment, err := s.payments.GetByID(ctx, issue.TargetID)
	if err != nil {
		if errors.Is(err, store.ErrPaymentNotFound) {
			log.Warn().
				Str("func", "remediationService.Retry").
				Str("issue_id", issueID).
				Str("target_id", issue.TargetID).
				Msg("retry target no longer exists")
			return models.RetryResult{Reason: models.RetryReasonNotFound}, nil
		}
		return models.RetryResult{}, err
	}

	stored, ok := paymentField(payment, issue.FieldName)
	if !ok || stored == "" {
		return models.RetryResult{Reason: models.RetryReasonNotFound}, nil
	}

	plaintext, err := s.engine.DecryptWith(stored, key)
	if err != nil {
		if errors.Is(err, crypto.ErrEnvelopeMalformed) {
			return models.RetryResult{Reason: models.RetryReasonCorruptData}, nil
		}
		return models.RetryResult{Reason: models.RetryReasonWrongKey}, nil
	}

	reencrypted, err := s.engine.Encrypt(plaintext)
	if err != nil {
		return models.RetryResult{}, fmt.Errorf("error re-encrypting recovered field: %w", err)
	}

	resolved, err := s.issues.Resolve(ctx, issue, reencrypted, models.FormatServerGCM)
	if err != nil {
		return models.RetryResult{}, err
	}

	log.Info().
		Str("func", "remediationService.Retry").
		Str("issue_id", issueID).
		Str("target_id", issue.TargetID).
		Str("field", issue.FieldName).
		Msg("issue resolved, field re-encrypted under current key")

	s.notify(ctx, AuditEventIssueResolved, resolved)

	return models.RetryResult{Success: true}, nil
}

// MarkUnrecoverable transitions an OPEN issue to UNRECOVERABLE with the
// operator's note. Calling it again is a no-op, and a RESOLVED issue is
// returned unchanged rather than rewritten.
func (s *remediationService) MarkUnrecoverable(ctx context.Context, issueID, note string) (models.RemediationIssue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return models.RemediationIssue{}, err
	}

	switch issue.Status {
	case models.IssueStatusUnrecoverable, models.IssueStatusResolved:
		return issue, nil
	}

	updated, err := s.issues.SetStatus(ctx, issueID, models.IssueStatusOpen, models.IssueStatusUnrecoverable, note)
	if err != nil {
		return models.RemediationIssue{}, err
	}

	s.notify(ctx, AuditEventIssueUnrecoverable, updated)

	return updated, nil
}

// Reopen moves an UNRECOVERABLE issue back to OPEN so a later-found key can
// be retried against it. Reopening an already-OPEN issue is a no-op;
// RESOLVED issues are terminal because the underlying data was rewritten.
func (s *remediationService) Reopen(ctx context.Context, issueID string) (models.RemediationIssue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return models.RemediationIssue{}, err
	}

	switch issue.Status {
	case models.IssueStatusOpen:
		return issue, nil
	case models.IssueStatusResolved:
		return models.RemediationIssue{}, ErrIssueResolved
	}

	// the empty note keeps the operator's write-off diagnosis on the issue
	updated, err := s.issues.SetStatus(ctx, issueID, models.IssueStatusUnrecoverable, models.IssueStatusOpen, "")
	if err != nil {
		return models.RemediationIssue{}, err
	}

	s.notify(ctx, AuditEventIssueReopened, updated)

	return updated, nil
}

func (s *remediationService) notify(ctx context.Context, event string, issue models.RemediationIssue) {
	if s.notifier == nil {
		return
	}

	s.notifier.NotifyIssueEvent(ctx, event, issue)
}

// paymentField returns the stored value of the named sensitive field.
func paymentField(payment models.Payment, fieldName string) (string, bool) {
	switch fieldName {
	case models.FieldRecipient:
		return payment.Recipient, true
	case models.FieldNotes:
		return payment.Notes, true
	default:
		return "", false
	}
}
