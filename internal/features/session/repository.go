// Package session — repository.go работает с таблицей user_states.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dimzmods.my.id/license-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с состояниями диалога.
// updated_at пишется по часам приложения: по нему Service считает TTL.
type Repository struct {
	db  *pgxpool.Pool
	tx  *postgres.TxManager
	now func() time.Time
}

// NewRepository создаёт новый репозиторий состояний.
func NewRepository(db *pgxpool.Pool, tx *postgres.TxManager) *Repository {
	return &Repository{db: db, tx: tx, now: time.Now}
}

// Get возвращает запись состояния или nil, если её нет.
func (r *Repository) Get(ctx context.Context, chatID int64) (*Record, error) {
	var (
		name string
		data []byte
		rec  = Record{ChatID: chatID}
	)
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT state, data, error_count, updated_at
		FROM user_states
		WHERE chat_id = $1
	`, chatID).Scan(&name, &data, &rec.ErrorCount, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка получения состояния: %w", err)
	}

	rec.State, err = decodeState(name, data)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Set перезаписывает состояние и сбрасывает счётчик ошибок.
func (r *Repository) Set(ctx context.Context, chatID int64, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("ошибка сериализации состояния: %w", err)
	}
	_, err = postgres.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO user_states (chat_id, state, data, error_count, updated_at)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (chat_id) DO UPDATE
		SET state = EXCLUDED.state, data = EXCLUDED.data, error_count = 0, updated_at = EXCLUDED.updated_at
	`, chatID, st.Name(), data, r.now())
	if err != nil {
		return fmt.Errorf("ошибка сохранения состояния: %w", err)
	}
	return nil
}

// Clear удаляет состояние.
func (r *Repository) Clear(ctx context.Context, chatID int64) error {
	if _, err := postgres.Conn(ctx, r.db).Exec(ctx, `DELETE FROM user_states WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("ошибка очистки состояния: %w", err)
	}
	return nil
}

// IncrementErrors увеличивает счётчик ошибок и, если он достиг limit, удаляет состояние.
// Возвращает новое значение счётчика (0 — состояния не было) и признак удаления.
func (r *Repository) IncrementErrors(ctx context.Context, chatID int64, limit int) (int, bool, error) {
	var (
		count   int
		cleared bool
	)
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, r.db)

		err := conn.QueryRow(ctx, `
			UPDATE user_states
			SET error_count = error_count + 1, updated_at = $2
			WHERE chat_id = $1
			RETURNING error_count
		`, chatID, r.now()).Scan(&count)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("ошибка обновления счётчика ошибок: %w", err)
		}

		if count >= limit {
			if _, err := conn.Exec(ctx, `DELETE FROM user_states WHERE chat_id = $1`, chatID); err != nil {
				return fmt.Errorf("ошибка очистки состояния: %w", err)
			}
			cleared = true
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return count, cleared, nil
}
