package points

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/db/postgres"
)

// Интеграционные тесты: нужен живой PostgreSQL в TEST_DATABASE_URL.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	if err := postgres.RunMigrations(dsn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return NewRepository(pool, postgres.NewTxManager(pool))
}

func freshChat() int64 {
	return time.Now().UnixNano() % 1_000_000_000
}

func TestRepository_AwardThenRedeem(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	chatID := freshChat()

	before, err := repo.Balance(ctx, chatID)
	if err != nil || before != 0 {
		t.Fatalf("fresh balance = %d, %v", before, err)
	}

	if b, err := repo.Award(ctx, chatID, 6, "Pembelian lisensi 10 hari"); err != nil || b != 6 {
		t.Fatalf("award = %d, %v", b, err)
	}
	if b, err := repo.Redeem(ctx, chatID, 6, "Penukaran lisensi"); err != nil || b != before {
		t.Fatalf("redeem = %d, %v", b, err)
	}

	history, err := repo.History(ctx, chatID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Type != TxTypeRedeem || history[1].Type != TxTypeEarn {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestRepository_RedeemInsufficient(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	chatID := freshChat()

	if _, err := repo.Award(ctx, chatID, 10, "seed"); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, err := repo.Redeem(ctx, chatID, 12, "Penukaran lisensi 1 hari"); !errors.Is(err, common.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	b, _ := repo.Balance(ctx, chatID)
	history, _ := repo.History(ctx, chatID, 10)
	if b != 10 || len(history) != 1 {
		t.Errorf("balance %d, history %d: nothing must change", b, len(history))
	}
}

func TestRepository_ConcurrentRedeem(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	chatID := freshChat()

	if _, err := repo.Award(ctx, chatID, 24, "seed"); err != nil {
		t.Fatalf("award: %v", err)
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Redeem(ctx, chatID, 24, "Penukaran lisensi 2 hari"); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 1 {
		t.Errorf("expected exactly one redeem, got %d", ok)
	}
	if b, _ := repo.Balance(ctx, chatID); b != 0 {
		t.Errorf("expected balance 0, got %d", b)
	}
}
