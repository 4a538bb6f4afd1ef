package service

import (
	"context"
	"sort"
	"sync"

	"github.com/amanahapps/zakat-keeper/internal/store"
	"github.com/amanahapps/zakat-keeper/models"
)

// In-memory repository fakes implementing the store interfaces with the
// same sentinel-error contracts as the PostgreSQL implementations.

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]models.Payment
}

func newFakePaymentRepo(payments ...models.Payment) *fakePaymentRepo {
	repo := &fakePaymentRepo{payments: make(map[string]models.Payment)}
	for _, p := range payments {
		repo.payments[p.ID] = p
	}
	return repo
}

func (f *fakePaymentRepo) Save(ctx context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[payment.ID] = *payment
	return nil
}

func (f *fakePaymentRepo) GetByID(ctx context.Context, id string) (models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[id]
	if !ok {
		return models.Payment{}, store.ErrPaymentNotFound
	}
	return payment, nil
}

func (f *fakePaymentRepo) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Payment, error) {
	all := f.sorted()
	owned := make([]models.Payment, 0, len(all))
	for _, p := range all {
		if p.UserID == userID {
			owned = append(owned, p)
		}
	}
	if offset >= len(owned) {
		return nil, nil
	}
	owned = owned[offset:]
	if limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, nil
}

func (f *fakePaymentRepo) ListPage(ctx context.Context, afterID string, limit int) ([]models.Payment, error) {
	page := make([]models.Payment, 0, limit)
	for _, p := range f.sorted() {
		if p.ID <= afterID {
			continue
		}
		page = append(page, p)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (f *fakePaymentRepo) UpdateField(ctx context.Context, id, fieldName, value, format string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[id]
	if !ok {
		return store.ErrPaymentNotFound
	}
	switch fieldName {
	case models.FieldRecipient:
		payment.Recipient, payment.RecipientFormat = value, format
	case models.FieldNotes:
		payment.Notes, payment.NotesFormat = value, format
	}
	f.payments[id] = payment
	return nil
}

func (f *fakePaymentRepo) sorted() []models.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]models.Payment, 0, len(f.payments))
	for _, p := range f.payments {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

type fakeIssueRepo struct {
	mu       sync.Mutex
	issues   map[string]models.RemediationIssue
	payments *fakePaymentRepo
}

func newFakeIssueRepo(payments *fakePaymentRepo) *fakeIssueRepo {
	return &fakeIssueRepo{
		issues:   make(map[string]models.RemediationIssue),
		payments: payments,
	}
}

func (f *fakeIssueRepo) InsertOpen(ctx context.Context, issue models.RemediationIssue) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.issues {
		if existing.TargetType == issue.TargetType &&
			existing.TargetID == issue.TargetID &&
			existing.FieldName == issue.FieldName {
			return false, nil
		}
	}
	issue.Status = models.IssueStatusOpen
	f.issues[issue.ID] = issue
	return true, nil
}

func (f *fakeIssueRepo) GetByID(ctx context.Context, id string) (models.RemediationIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return models.RemediationIssue{}, store.ErrIssueNotFound
	}
	return issue, nil
}

func (f *fakeIssueRepo) List(ctx context.Context, filter models.IssueFilter) ([]models.RemediationIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RemediationIssue, 0, len(f.issues))
	for _, issue := range f.issues {
		if filter.Status != "" && issue.Status != filter.Status {
			continue
		}
		if filter.TargetType != "" && issue.TargetType != filter.TargetType {
			continue
		}
		out = append(out, issue)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeIssueRepo) SetStatus(ctx context.Context, id, expectedStatus, newStatus, note string) (models.RemediationIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return models.RemediationIssue{}, store.ErrIssueNotFound
	}
	if issue.Status != expectedStatus {
		return models.RemediationIssue{}, store.ErrIssueStatusConflict
	}
	issue.Status = newStatus
	if note != "" {
		issue.Note = note
	}
	f.issues[id] = issue
	return issue, nil
}

func (f *fakeIssueRepo) Resolve(ctx context.Context, issue models.RemediationIssue, newValue, format string) (models.RemediationIssue, error) {
	if err := f.payments.UpdateField(ctx, issue.TargetID, issue.FieldName, newValue, format); err != nil {
		return models.RemediationIssue{}, err
	}
	return f.SetStatus(ctx, issue.ID, models.IssueStatusOpen, models.IssueStatusResolved, "")
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[int64]models.UserSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[int64]models.UserSettings)}
}

func (f *fakeSettingsRepo) Get(ctx context.Context, userID int64) (models.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	settings, ok := f.settings[userID]
	if !ok {
		return models.UserSettings{}, store.ErrSettingsNotFound
	}
	return settings, nil
}

func (f *fakeSettingsRepo) Upsert(ctx context.Context, settings models.UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[settings.UserID] = settings
	return nil
}

type notifiedEvent struct {
	event string
	issue models.RemediationIssue
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notifiedEvent
}

func (f *fakeNotifier) NotifyIssueEvent(ctx context.Context, event string, issue models.RemediationIssue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, notifiedEvent{event: event, issue: issue})
}

func (f *fakeNotifier) eventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.events))
	for _, e := range f.events {
		names = append(names, e.event)
	}
	return names
}
