// Package session — service.go: TTL состояний, счётчик ошибок и разбор ввода.
package session

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/common"
)

// MaxMismatches — после стольких неверных вводов подряд диалог сбрасывается.
const MaxMismatches = 2

// Store — хранилище состояний.
type Store interface {
	Get(ctx context.Context, chatID int64) (*Record, error)
	Set(ctx context.Context, chatID int64, st State) error
	Clear(ctx context.Context, chatID int64) error
	IncrementErrors(ctx context.Context, chatID int64, limit int) (int, bool, error)
}

// Service — трекер состояния диалога.
type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewService создаёт трекер. ttl <= 0 — состояния не устаревают.
func NewService(store Store, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl, now: time.Now}
}

// Current возвращает текущее состояние или nil (ожидание команды).
// Устаревшее состояние удаляется и считается отсутствующим.
func (s *Service) Current(ctx context.Context, chatID int64) (State, error) {
	rec, err := s.store.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if s.ttl > 0 && s.now().Sub(rec.UpdatedAt) > s.ttl {
		log.WithField("chat_id", chatID).Debug("Состояние диалога устарело")
		if err := s.store.Clear(ctx, chatID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return rec.State, nil
}

// Set сохраняет новое состояние (счётчик ошибок обнуляется).
func (s *Service) Set(ctx context.Context, chatID int64, st State) error {
	return s.store.Set(ctx, chatID, st)
}

// Clear переводит диалог в ожидание команды.
func (s *Service) Clear(ctx context.Context, chatID int64) error {
	return s.store.Clear(ctx, chatID)
}

// RegisterMismatch учитывает неверные данные (аккаунт не найден).
// Возвращает true, если лимит исчерпан и состояние сброшено.
func (s *Service) RegisterMismatch(ctx context.Context, chatID int64) (bool, error) {
	_, cleared, err := s.store.IncrementErrors(ctx, chatID, MaxMismatches)
	return cleared, err
}

// ExpectManual достаёт состояние AwaitingManualCredentials.
func ExpectManual(st State) (AwaitingManualCredentials, error) {
	v, ok := st.(AwaitingManualCredentials)
	if !ok {
		return v, common.ErrSessionExpired
	}
	return v, nil
}

// ExpectExtendDuration достаёт состояние AwaitingExtendDuration.
func ExpectExtendDuration(st State) (AwaitingExtendDuration, error) {
	v, ok := st.(AwaitingExtendDuration)
	if !ok {
		return v, common.ErrSessionExpired
	}
	return v, nil
}

// ExpectRedeemGame достаёт состояние AwaitingRedeemGame.
func ExpectRedeemGame(st State) (AwaitingRedeemGame, error) {
	v, ok := st.(AwaitingRedeemGame)
	if !ok {
		return v, common.ErrSessionExpired
	}
	return v, nil
}

// ParseCredentialInput разбирает строку вида "/username-password".
// Делится по первому "-", обе части после обрезки пробелов не пустые.
//
// Пример: ParseCredentialInput("/kambing-1") → "kambing", "1"
func ParseCredentialInput(text string) (username, password string, err error) {
	rest, ok := strings.CutPrefix(text, "/")
	if !ok {
		return "", "", common.ErrMalformedInput
	}
	user, pass, found := strings.Cut(rest, "-")
	if !found {
		return "", "", common.ErrMalformedInput
	}
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" || pass == "" {
		return "", "", common.ErrMalformedInput
	}
	return user, pass, nil
}
