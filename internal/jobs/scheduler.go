// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: периодическая сверка платежей
// и ежечасная очистка зависших заказов.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/features/payment"
)

// Sweeper — сверка всех pending-заказов со шлюзом.
type Sweeper interface {
	Sweep(ctx context.Context) payment.SweepReport
}

// Cleaner удаляет pending-заказы старше age.
type Cleaner interface {
	SweepStale(ctx context.Context, now time.Time, age time.Duration) (int64, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron          *cron.Cron
	sweeper       Sweeper
	cleaner       Cleaner
	checkInterval time.Duration
	cleanupAge    time.Duration
	now           func() time.Time
}

// NewScheduler создаёт планировщик. Задача не стартует, пока не закончилась предыдущая.
func NewScheduler(sweeper Sweeper, cleaner Cleaner, checkInterval, cleanupAge time.Duration, loc *time.Location) *Scheduler {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(
			cron.Recover(cron.PrintfLogger(log.StandardLogger())),
			cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger())),
		),
	)

	return &Scheduler{
		cron:          c,
		sweeper:       sweeper,
		cleaner:       cleaner,
		checkInterval: checkInterval,
		cleanupAge:    cleanupAge,
		now:           time.Now,
	}
}

// Start регистрирует и запускает задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.checkInterval), func() {
		s.runSweep(ctx)
	}); err != nil {
		return fmt.Errorf("ошибка регистрации сверки платежей: %w", err)
	}

	if _, err := s.cron.AddFunc("@hourly", func() {
		s.runCleanup(ctx)
	}); err != nil {
		return fmt.Errorf("ошибка регистрации очистки заказов: %w", err)
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"check_interval": s.checkInterval,
		"cleanup_age":    s.cleanupAge,
	}).Info("Планировщик задач запущен")
	return nil
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report := s.sweeper.Sweep(ctx)
	if report.Pending == 0 {
		return
	}
	log.WithFields(log.Fields{
		"pending":   report.Pending,
		"processed": report.Processed,
		"expired":   report.Expired,
		"failed":    report.Failed,
	}).Info("[CRON] Сверка платежей")
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := s.cleaner.SweepStale(ctx, s.now(), s.cleanupAge)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка очистки заказов")
		return
	}
	if n > 0 {
		log.WithField("deleted", n).Info("[CRON] Удалены зависшие заказы")
	}
}

// Stop останавливает планировщик и ждёт текущие задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
