package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/features/licenses"
)

func TestRedeemPoints_Success(t *testing.T) {
	// Given: 30 баллов, обмен на 2 дня стоит 24
	f := newFixture()
	f.store.setPoints(42, 30)

	// When
	red, err := f.rec.RedeemPoints(context.Background(), 42, licenses.GameFreeFireMax, 2)

	// Then
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if red.Spent != 24 || red.Balance != 6 {
		t.Errorf("expected spent 24 and balance 6, got %d/%d", red.Spent, red.Balance)
	}
	if red.Username != "redeem1ab" {
		t.Errorf("expected redeem username, got %s", red.Username)
	}
	if !red.ExpiresAt.Equal(f.now.Add(48 * time.Hour)) {
		t.Errorf("unexpected expiry %v", red.ExpiresAt)
	}
	if _, ok := f.store.account(licenses.GameFreeFireMax, "redeem1ab"); !ok {
		t.Error("expected account in ffmax table")
	}
	entries := f.store.ledgerEntries()
	if len(entries) != 1 || entries[0] != "redeem 24 Penukaran lisensi 2 hari" {
		t.Errorf("unexpected ledger: %v", entries)
	}
}

func TestRedeemPoints_Insufficient(t *testing.T) {
	f := newFixture()
	f.store.setPoints(42, 10)

	_, err := f.rec.RedeemPoints(context.Background(), 42, licenses.GameFreeFire, 1)

	if !errors.Is(err, common.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	if got := f.store.pointsOf(42); got != 10 {
		t.Errorf("balance must not change, got %d", got)
	}
	if n := f.store.accountCount(licenses.GameFreeFire); n != 0 {
		t.Errorf("expected no accounts, got %d", n)
	}
}

func TestRedeemPoints_FailedIssueRefunds(t *testing.T) {
	// Given: генератор всегда выдаёт занятое имя
	f := newFixture()
	f.store.setPoints(42, 100)
	f.store.addAccount(licenses.GameFreeFire, "redeem1ab", "5", f.now)

	_, err := f.rec.RedeemPoints(context.Background(), 42, licenses.GameFreeFire, 3)

	if !errors.Is(err, common.ErrCredentialConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := f.store.pointsOf(42); got != 100 {
		t.Errorf("expected points restored to 100, got %d", got)
	}
	if len(f.store.ledgerEntries()) != 0 {
		t.Error("ledger must be rolled back")
	}
}

func TestRedeemPoints_NotRedeemableDuration(t *testing.T) {
	f := newFixture()
	f.store.setPoints(42, 1000)

	_, err := f.rec.RedeemPoints(context.Background(), 42, licenses.GameFreeFire, 30)

	if !errors.Is(err, common.ErrUnknownDuration) {
		t.Errorf("expected ErrUnknownDuration, got %v", err)
	}
	if got := f.store.pointsOf(42); got != 1000 {
		t.Errorf("balance must not change, got %d", got)
	}
}

func TestRedeemPoints_ExactBalance(t *testing.T) {
	f := newFixture()
	f.store.setPoints(42, 24)

	red, err := f.rec.RedeemPoints(context.Background(), 42, licenses.GameFreeFire, 2)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if red.Balance != 0 || f.store.pointsOf(42) != 0 {
		t.Errorf("expected balance 0, got %d", red.Balance)
	}
	if n := f.store.accountCount(licenses.GameFreeFire); n != 1 {
		t.Errorf("expected one account, got %d", n)
	}
	if entries := f.store.ledgerEntries(); len(entries) != 1 || entries[0] != "redeem 24 Penukaran lisensi 2 hari" {
		t.Errorf("unexpected ledger: %v", entries)
	}
}
