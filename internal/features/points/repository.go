// Package points — repository.go выполняет операции с таблицами user_points и point_transactions.
// Изменение баланса и запись в журнал всегда в одной транзакции БД.
package points

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с баллами.
type Repository struct {
	db *pgxpool.Pool
	tx *postgres.TxManager
}

// NewRepository создаёт новый репозиторий баллов.
func NewRepository(db *pgxpool.Pool, tx *postgres.TxManager) *Repository {
	return &Repository{db: db, tx: tx}
}

// Balance возвращает баланс, создавая строку с нулём при первом обращении.
func (r *Repository) Balance(ctx context.Context, chatID int64) (int64, error) {
	// DO UPDATE вместо DO NOTHING, чтобы RETURNING вернул строку и в случае конфликта
	query := `
		INSERT INTO user_points (chat_id, points)
		VALUES ($1, 0)
		ON CONFLICT (chat_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
		RETURNING points
	`
	var balance int64
	if err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, chatID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// Award начисляет amount баллов и возвращает новый баланс.
func (r *Repository) Award(ctx context.Context, chatID, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}

	var balance int64
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, r.db)

		err := conn.QueryRow(ctx, `
			INSERT INTO user_points (chat_id, points)
			VALUES ($1, $2)
			ON CONFLICT (chat_id) DO UPDATE
			SET points = user_points.points + EXCLUDED.points, updated_at = NOW()
			RETURNING points
		`, chatID, amount).Scan(&balance)
		if err != nil {
			return fmt.Errorf("ошибка начисления баллов: %w", err)
		}

		return r.log(ctx, conn, chatID, amount, TxTypeEarn, reason)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Redeem списывает amount баллов. Проверка и списание — один условный UPDATE,
// поэтому два параллельных обмена не уведут баланс в минус.
// Если баллов не хватает — common.ErrInsufficientPoints, ничего не пишется.
func (r *Repository) Redeem(ctx context.Context, chatID, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}

	var balance int64
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, r.db)

		err := conn.QueryRow(ctx, `
			UPDATE user_points
			SET points = points - $2, updated_at = NOW()
			WHERE chat_id = $1 AND points >= $2
			RETURNING points
		`, chatID, amount).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) || postgres.IsCheckViolation(err) {
				return common.ErrInsufficientPoints
			}
			return fmt.Errorf("ошибка списания баллов: %w", err)
		}

		return r.log(ctx, conn, chatID, amount, TxTypeRedeem, reason)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// History возвращает последние limit операций пользователя.
func (r *Repository) History(ctx context.Context, chatID int64, limit int) ([]*Transaction, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, `
		SELECT id, chat_id, points, type, reason, created_at
		FROM point_transactions
		WHERE chat_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории баллов: %w", err)
	}
	defer rows.Close()

	var history []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.ChatID, &t.Points, &t.Type, &t.Reason, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования операции: %w", err)
		}
		history = append(history, &t)
	}
	return history, rows.Err()
}

func (r *Repository) log(ctx context.Context, conn postgres.DBTX, chatID, amount int64, txType, reason string) error {
	_, err := conn.Exec(ctx, `
		INSERT INTO point_transactions (chat_id, points, type, reason)
		VALUES ($1, $2, $3, $4)
	`, chatID, amount, txType, reason)
	if err != nil {
		return fmt.Errorf("ошибка записи операции: %w", err)
	}
	return nil
}
