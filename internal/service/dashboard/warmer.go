package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Warmer periodically syncs the relational store and recomputes the
// dashboard KPIs so that user requests hit a warm warehouse cache.
type Warmer struct {
	cron    *cron.Cron
	svc     *Service
	timeout time.Duration
	logger  *slog.Logger
}

// NewWarmer schedules svc on the given cron spec. An empty spec yields a
// Warmer whose Start and Stop are no-ops.
func NewWarmer(svc *Service, spec string, logger *slog.Logger) (*Warmer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Warmer{svc: svc, timeout: time.Minute, logger: logger.With("component", "kpi-warmer")}
	if spec == "" {
		return w, nil
	}

	w.cron = cron.New()
	if _, err := w.cron.AddFunc(spec, w.run); err != nil {
		return nil, fmt.Errorf("invalid warm schedule %q: %w", spec, err)
	}
	return w, nil
}

// Start runs one warm cycle in the background and starts the scheduler.
func (w *Warmer) Start() {
	if w.cron == nil {
		return
	}
	go w.run()
	w.cron.Start()
	w.logger.Info("kpi warmer started")
}

// Stop stops the scheduler and waits for a running cycle to finish.
func (w *Warmer) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.logger.Info("kpi warmer stopped")
}

func (w *Warmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	if err := w.svc.syncStore(ctx); err != nil {
		w.logger.Warn("warehouse sync failed", "error", err)
	}
	if err := w.svc.WarmKPIs(ctx); err != nil {
		w.logger.Warn("kpi warm failed", "error", err)
		return
	}
	w.logger.Debug("kpis warmed", "duration_ms", time.Since(start).Milliseconds())
}
