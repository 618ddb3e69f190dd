// Package payment — sweep.go: периодическая проверка всех pending-заказов.
package payment

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dimzmods.my.id/license-bot/internal/features/orders"
)

// Sweep проходит по всем pending-заказам на ограниченном пуле воркеров.
// Ошибки и паники отдельных заказов логируются, проход продолжается.
func (r *Reconciler) Sweep(ctx context.Context) SweepReport {
	list, err := r.orders.ListPending(ctx)
	if err != nil {
		log.WithError(err).Error("Не удалось получить pending-заказы")
		return SweepReport{}
	}

	report := SweepReport{Pending: len(list)}
	if len(list) == 0 {
		return report
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.workers)

	for _, o := range list {
		g.Go(func() error {
			kind := r.sweepOne(ctx, o)

			mu.Lock()
			defer mu.Unlock()
			switch kind {
			case OutcomeCompleted:
				report.Processed++
			case OutcomeExpired:
				report.Expired++
			case OutcomeFailed:
				report.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	log.WithFields(log.Fields{
		"pending":   report.Pending,
		"processed": report.Processed,
		"expired":   report.Expired,
		"failed":    report.Failed,
	}).Info("Проверка платежей завершена")
	return report
}

func (r *Reconciler) sweepOne(ctx context.Context, o *orders.Order) (kind OutcomeKind) {
	defer func() {
		if rec := recover(); rec != nil {
			orderLogger(o).WithFields(log.Fields{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			}).Error("ПАНИКА при проверке заказа")
			kind = OutcomeFailed
		}
	}()

	if ctx.Err() != nil {
		return OutcomePending
	}
	return r.Evaluate(ctx, o).Kind
}
