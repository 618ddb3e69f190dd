package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/features/licenses"
)

type mockStore struct {
	records map[int64]*Record
	now     func() time.Time
}

func newMockStore(now func() time.Time) *mockStore {
	return &mockStore{records: make(map[int64]*Record), now: now}
}

func (m *mockStore) Get(ctx context.Context, chatID int64) (*Record, error) {
	rec, ok := m.records[chatID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *mockStore) Set(ctx context.Context, chatID int64, st State) error {
	m.records[chatID] = &Record{ChatID: chatID, State: st, UpdatedAt: m.now()}
	return nil
}

func (m *mockStore) Clear(ctx context.Context, chatID int64) error {
	delete(m.records, chatID)
	return nil
}

func (m *mockStore) IncrementErrors(ctx context.Context, chatID int64, limit int) (int, bool, error) {
	rec, ok := m.records[chatID]
	if !ok {
		return 0, false, nil
	}
	rec.ErrorCount++
	if rec.ErrorCount >= limit {
		delete(m.records, chatID)
		return rec.ErrorCount, true, nil
	}
	return rec.ErrorCount, false, nil
}

func TestParseCredentialInput(t *testing.T) {
	tests := []struct {
		in       string
		user     string
		pass     string
		wantFail bool
	}{
		{in: "/kambing-1", user: "kambing", pass: "1"},
		{in: "/ player - secret ", user: "player", pass: "secret"},
		{in: "/a-b-c", user: "a", pass: "b-c"},
		{in: "kambing-1", wantFail: true},
		{in: "/kambing", wantFail: true},
		{in: "/-1", wantFail: true},
		{in: "/kambing-", wantFail: true},
		{in: "/  -  ", wantFail: true},
		{in: "", wantFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, p, err := ParseCredentialInput(tt.in)
			if tt.wantFail {
				if !errors.Is(err, common.ErrMalformedInput) {
					t.Errorf("expected ErrMalformedInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u != tt.user || p != tt.pass {
				t.Errorf("expected %q/%q, got %q/%q", tt.user, tt.pass, u, p)
			}
		})
	}
}

func TestService_CurrentExpiresStaleState(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMockStore(func() time.Time { return now })
	svc := NewService(store, 30*time.Minute)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	if err := svc.Set(ctx, 1, AwaitingExtendCredentials{Game: licenses.GameFreeFire}); err != nil {
		t.Fatal(err)
	}

	t.Run("fresh state is returned", func(t *testing.T) {
		st, err := svc.Current(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := st.(AwaitingExtendCredentials); !ok {
			t.Errorf("expected AwaitingExtendCredentials, got %T", st)
		}
	})

	t.Run("stale state is dropped", func(t *testing.T) {
		svc.now = func() time.Time { return now.Add(31 * time.Minute) }
		st, err := svc.Current(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if st != nil {
			t.Errorf("expected nil state, got %T", st)
		}
		if _, ok := store.records[1]; ok {
			t.Error("stale record must be deleted")
		}
	})
}

func TestService_RegisterMismatch(t *testing.T) {
	store := newMockStore(time.Now)
	svc := NewService(store, 0)
	ctx := context.Background()
	_ = svc.Set(ctx, 1, AwaitingExtendCredentials{Game: licenses.GameFreeFire})

	reset, err := svc.RegisterMismatch(ctx, 1)
	if err != nil || reset {
		t.Fatalf("expected first mismatch to keep state, got %v %v", reset, err)
	}

	reset, err = svc.RegisterMismatch(ctx, 1)
	if err != nil || !reset {
		t.Fatalf("expected second mismatch to reset, got %v %v", reset, err)
	}
	if st, _ := svc.Current(ctx, 1); st != nil {
		t.Errorf("expected idle after reset, got %T", st)
	}
}

func TestService_SetResetsMismatchCount(t *testing.T) {
	store := newMockStore(time.Now)
	svc := NewService(store, 0)
	ctx := context.Background()
	_ = svc.Set(ctx, 1, AwaitingExtendCredentials{Game: licenses.GameFreeFire})
	_, _ = svc.RegisterMismatch(ctx, 1)

	_ = svc.Set(ctx, 1, AwaitingExtendCredentials{Game: licenses.GameFreeFireMax})
	reset, _ := svc.RegisterMismatch(ctx, 1)

	if reset {
		t.Error("new state must start with a clean mismatch counter")
	}
}

func TestExpect(t *testing.T) {
	if _, err := ExpectManual(AwaitingRedeemGame{Days: 1}); !errors.Is(err, common.ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := ExpectExtendDuration(nil); !errors.Is(err, common.ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired for idle, got %v", err)
	}
	v, err := ExpectRedeemGame(AwaitingRedeemGame{Days: 2, PointsCost: 24})
	if err != nil || v.PointsCost != 24 {
		t.Errorf("unexpected %+v %v", v, err)
	}
}

func TestDecodeState(t *testing.T) {
	t.Run("extend duration keeps snapshot", func(t *testing.T) {
		st, err := decodeState(NameExtendDuration,
			[]byte(`{"username":"p","password":"1","current_exp":"2025-03-05T00:00:00Z","game_type":"ffmax"}`))
		if err != nil {
			t.Fatal(err)
		}
		v := st.(AwaitingExtendDuration)
		if v.Username != "p" || v.Game != licenses.GameFreeFireMax || v.Snapshot.Day() != 5 {
			t.Errorf("unexpected %+v", v)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		if _, err := decodeState("waiting_something", []byte(`{}`)); err == nil {
			t.Error("expected error")
		}
	})
}
