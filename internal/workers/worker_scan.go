package workers

import (
	"context"
	"time"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/service"
)

// scanWorker runs the remediation scan on a fixed period, so undecryptable
// fields surface in the ledger without an operator having to trigger a scan
// by hand.
type scanWorker struct {
	remediation service.RemediationService
	interval    time.Duration
	logger      *logger.Logger
}

// NewScanWorker builds the periodic scan worker. Returns nil when interval
// is not positive, which [NewWorkers] treats as "worker disabled".
func NewScanWorker(remediation service.RemediationService, interval time.Duration, log *logger.Logger) Worker {
	if interval <= 0 {
		return nil
	}

	return &scanWorker{
		remediation: remediation,
		interval:    interval,
		logger:      log,
	}
}

// Run starts the scan loop in its own goroutine and returns immediately.
func (w *scanWorker) Run() {
	go w.loop()
}

func (w *scanWorker) loop() {
	log := w.logger.GetChildLogger()
	ctx := log.WithContext(context.Background())

	log.Info().
		Dur("interval", w.interval).
		Msg("background remediation scan enabled")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for range ticker.C {
		result, err := w.remediation.Scan(ctx)
		if err != nil {
			log.Err(err).
				Str("func", "scanWorker.loop").
				Msg("background scan failed")
			continue
		}

		log.Info().
			Str("func", "scanWorker.loop").
			Int("scanned", result.Scanned).
			Int("created", result.Created).
			Msg("background scan finished")
	}
}
