package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/models"
)

type countingWorker struct {
	runs int
}

func (w *countingWorker) Run() {
	w.runs++
}

func TestNewWorkers_SkipsNilEntries(t *testing.T) {
	first := &countingWorker{}
	second := &countingWorker{}

	NewWorkers(first, nil, second).Run()

	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 1, second.runs)
}

type countingRemediation struct {
	scans atomic.Int64
}

func (c *countingRemediation) Scan(ctx context.Context) (models.ScanResponse, error) {
	c.scans.Add(1)
	return models.ScanResponse{}, nil
}

func (c *countingRemediation) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.RemediationIssue, error) {
	return nil, nil
}

func (c *countingRemediation) Retry(ctx context.Context, issueID, keyMaterial string) (models.RetryResult, error) {
	return models.RetryResult{}, nil
}

func (c *countingRemediation) MarkUnrecoverable(ctx context.Context, issueID, note string) (models.RemediationIssue, error) {
	return models.RemediationIssue{}, nil
}

func (c *countingRemediation) Reopen(ctx context.Context, issueID string) (models.RemediationIssue, error) {
	return models.RemediationIssue{}, nil
}

func TestNewScanWorker_DisabledWithoutInterval(t *testing.T) {
	assert.Nil(t, NewScanWorker(&countingRemediation{}, 0, logger.Nop()))
	assert.Nil(t, NewScanWorker(&countingRemediation{}, -time.Second, logger.Nop()))
}

func TestScanWorker_RunsPeriodically(t *testing.T) {
	remediation := &countingRemediation{}

	worker := NewScanWorker(remediation, 5*time.Millisecond, logger.Nop())
	require.NotNil(t, worker)

	worker.Run()

	require.Eventually(t, func() bool {
		return remediation.scans.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}
