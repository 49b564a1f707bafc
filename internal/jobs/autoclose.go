package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/config"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/repository"
)

// StartAutoCloseJob schedules the stale-session sweep: entries left open
// longer than AutoCloseAfter get an end time capped at start + AutoCloseAfter.
func StartAutoCloseJob(ctx context.Context, cfg config.Config, store *repository.Store, log *logrus.Logger) error {
	if !cfg.AutoCloseEnabled {
		return nil
	}

	engine := cron.New()
	_, err := engine.AddFunc(cfg.AutoCloseSpec, func() {
		tickCtx, cancel := context.WithTimeout(ctx, cfg.AutoCloseTimeout)
		defer cancel()

		cutoff := time.Now().UTC().Add(-cfg.AutoCloseAfter)
		closed, err := store.CloseStaleEntries(tickCtx, cutoff, cfg.AutoCloseAfter)
		if err != nil {
			log.WithError(err).Error("auto-close sweep failed")
			return
		}
		if closed > 0 {
			log.WithField("closed", closed).Info("auto-closed stale usage entries")
		}
	})
	if err != nil {
		return err
	}

	engine.Start()
	go func() {
		<-ctx.Done()
		engine.Stop()
	}()
	return nil
}
