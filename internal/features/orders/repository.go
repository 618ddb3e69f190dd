// Package orders — repository.go выполняет операции с таблицей pending_orders.
// Статус меняется только через Transition (compare-and-set по статусу pending).
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/db/postgres"
	"dimzmods.my.id/license-bot/internal/features/licenses"
)

const orderColumns = `id, order_id, chat_id, game_type, duration, amount, deposit_code,
	key_type, manual_username, manual_password, status, created_at, updated_at`

// Repository предоставляет методы для работы с заказами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий заказов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новый заказ в статусе pending.
// created_at берётся из o.CreatedAt (часы приложения): с ним же сравнивают таймаут и очистку.
// Пустое время — текущее.
func (r *Repository) Create(ctx context.Context, o *Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO pending_orders
			(order_id, chat_id, game_type, duration, amount, deposit_code,
			 key_type, manual_username, manual_password, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10, $10)
		RETURNING id, status, created_at, updated_at
	`
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query,
		o.OrderID, o.ChatID, string(o.Game), o.Duration, o.Amount, o.DepositCode,
		string(o.KeyType), o.ManualUsername, o.ManualPassword, o.CreatedAt,
	).Scan(&o.ID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения заказа: %w", err)
	}
	return nil
}

// GetActivePending возвращает самый свежий pending-заказ чата.
func (r *Repository) GetActivePending(ctx context.Context, chatID int64) (*Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM pending_orders
		WHERE chat_id = $1 AND status = 'pending'
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	o, err := scanOrder(postgres.Conn(ctx, r.db).QueryRow(ctx, query, chatID))
	if errors.Is(err, common.ErrOrderNotFound) {
		return nil, common.ErrNoActiveOrder
	}
	return o, err
}

// GetByDepositCode ищет заказ по коду депозита шлюза.
func (r *Repository) GetByDepositCode(ctx context.Context, depositCode string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM pending_orders WHERE deposit_code = $1`
	return scanOrder(postgres.Conn(ctx, r.db).QueryRow(ctx, query, depositCode))
}

// ListPending возвращает все pending-заказы, старые первыми.
func (r *Repository) ListPending(ctx context.Context) ([]*Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM pending_orders
		WHERE status = 'pending'
		ORDER BY created_at ASC`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения pending-заказов: %w", err)
	}
	defer rows.Close()

	var list []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Transition переводит заказ из pending в to.
// Возвращает false, если заказ уже не pending (кто-то успел раньше).
func (r *Repository) Transition(ctx context.Context, depositCode string, to Status) (bool, error) {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		UPDATE pending_orders
		SET status = $2, updated_at = NOW()
		WHERE deposit_code = $1 AND status = 'pending'
	`, depositCode, string(to))
	if err != nil {
		return false, fmt.Errorf("ошибка смены статуса заказа: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SweepStale удаляет pending-заказы старше age. Возвращает число удалённых.
func (r *Repository) SweepStale(ctx context.Context, now time.Time, age time.Duration) (int64, error) {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		DELETE FROM pending_orders
		WHERE status = 'pending' AND created_at < $1
	`, now.Add(-age))
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки заказов: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o       Order
		game    string
		keyType string
		status  string
	)
	err := row.Scan(
		&o.ID, &o.OrderID, &o.ChatID, &game, &o.Duration, &o.Amount, &o.DepositCode,
		&keyType, &o.ManualUsername, &o.ManualPassword, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrOrderNotFound
		}
		return nil, fmt.Errorf("ошибка чтения заказа: %w", err)
	}
	o.Game = licenses.Game(game)
	o.KeyType = KeyType(keyType)
	o.Status = Status(status)
	return &o, nil
}
