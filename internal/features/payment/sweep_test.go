package payment

import (
	"context"
	"testing"
	"time"

	"dimzmods.my.id/license-bot/internal/features/licenses"
	"dimzmods.my.id/license-bot/internal/features/orders"
)

func TestSweep_MixedOrders(t *testing.T) {
	// Given: один оплачен, один просрочен, один ждёт
	f := newFixture()
	f.pending("paid", orders.KeyRandom, 1, time.Minute)
	f.pending("late", orders.KeyRandom, 1, 30*time.Minute)
	f.pending("wait", orders.KeyRandom, 1, 2*time.Minute)
	f.gateway.markPaid("paid")
	f.gateway.markPaid("late")

	// When
	report := f.rec.Sweep(context.Background())

	// Then
	want := SweepReport{Pending: 3, Processed: 1, Expired: 1}
	if report != want {
		t.Errorf("expected %+v, got %+v", want, report)
	}
	if got := f.store.order("wait").Status; got != orders.StatusPending {
		t.Errorf("expected waiting order untouched, got %s", got)
	}
	if got := f.store.order("late").Status; got != orders.StatusExpired {
		t.Errorf("expected late order expired, got %s", got)
	}
}

func TestSweep_Empty(t *testing.T) {
	f := newFixture()

	report := f.rec.Sweep(context.Background())

	if report != (SweepReport{}) {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestSweep_RepeatedRunsFinalizeOnce(t *testing.T) {
	f := newFixture()
	f.pending("paid", orders.KeyRandom, 1, time.Minute)
	f.gateway.markPaid("paid")

	first := f.rec.Sweep(context.Background())
	second := f.rec.Sweep(context.Background())

	if first.Processed != 1 {
		t.Errorf("expected first sweep to process the order, got %+v", first)
	}
	if second.Pending != 0 || second.Processed != 0 {
		t.Errorf("expected second sweep to see nothing, got %+v", second)
	}
	if f.notifier.count() != 1 {
		t.Errorf("expected one notification, got %d", f.notifier.count())
	}
}

func TestSweep_FailureDoesNotStopOthers(t *testing.T) {
	// Given: у manual-заказа username уже занят, второй заказ в порядке
	f := newFixture()
	f.pendingFor("bad", orders.KeyManual, 1, time.Minute, "taken", "pw")
	f.store.addAccount(licenses.GameFreeFire, "taken", "x", f.now)
	f.pending("good", orders.KeyRandom, 1, time.Minute)
	f.gateway.markPaid("bad")
	f.gateway.markPaid("good")

	report := f.rec.Sweep(context.Background())

	want := SweepReport{Pending: 2, Processed: 1, Failed: 1}
	if report != want {
		t.Errorf("expected %+v, got %+v", want, report)
	}
	if got := f.store.order("bad").Status; got != orders.StatusPending {
		t.Errorf("expected failed order to stay pending, got %s", got)
	}
}

func TestSweep_RecoversFromPanic(t *testing.T) {
	f := newFixture()
	f.pending("boom", orders.KeyRandom, 1, time.Minute)
	f.gateway.markPaid("boom")
	f.rec.generator = panicGenerator{}

	report := f.rec.Sweep(context.Background())

	if report.Failed != 1 {
		t.Errorf("expected panic to count as failure, got %+v", report)
	}
	if got := f.store.order("boom").Status; got != orders.StatusPending {
		t.Errorf("expected transaction rolled back, got %s", got)
	}
}

type panicGenerator struct{}

func (panicGenerator) GeneratePurchaseCredentials() (string, string) { panic("generator exploded") }

func (panicGenerator) GenerateRedeemCredentials() (string, string) { panic("generator exploded") }
