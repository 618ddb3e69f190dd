// Package licenses — repository.go работает с таблицами аккаунтов freefire и ffmax.
// Уникальность username обеспечивает уникальный индекс, а не проверка в коде.
package licenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с аккаунтами.
type Repository struct {
	db        *pgxpool.Pool
	reference string
}

// NewRepository создаёт репозиторий. reference пишется в колонку reference (код мерчанта).
func NewRepository(db *pgxpool.Pool, reference string) *Repository {
	return &Repository{db: db, reference: reference}
}

// Insert создаёт аккаунт. Если username уже занят — common.ErrCredentialConflict.
//
// ON CONFLICT DO NOTHING не прерывает внешнюю транзакцию, поэтому
// вызывающий код может тут же повторить попытку с другим username.
func (r *Repository) Insert(ctx context.Context, game Game, username, password string, expDate time.Time) (*Credential, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (username, password, uuid, exp_date, status, reference)
		VALUES ($1, $2, '', $3, $4, $5)
		ON CONFLICT (username) DO NOTHING
		RETURNING id, created_at
	`, game.Table())

	c := &Credential{
		Username:  username,
		Password:  password,
		ExpDate:   expDate,
		Reference: r.reference,
	}
	err := postgres.Conn(ctx, r.db).
		QueryRow(ctx, query, username, password, expDate, defaultStatus, r.reference).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || postgres.IsUniqueViolation(err) {
			return nil, common.ErrCredentialConflict
		}
		return nil, fmt.Errorf("ошибка создания аккаунта: %w", err)
	}
	return c, nil
}

// Exists проверяет, занят ли username.
func (r *Repository) Exists(ctx context.Context, game Game, username string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE username = $1)`, game.Table())
	var exists bool
	if err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки username: %w", err)
	}
	return exists, nil
}

// Find ищет аккаунт по паре username/password.
func (r *Repository) Find(ctx context.Context, game Game, username, password string) (*Credential, error) {
	query := fmt.Sprintf(`
		SELECT id, username, password, exp_date, reference, created_at
		FROM %s
		WHERE username = $1 AND password = $2
	`, game.Table())

	var c Credential
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, username, password).Scan(
		&c.ID, &c.Username, &c.Password, &c.ExpDate, &c.Reference, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("ошибка поиска аккаунта: %w", err)
	}
	return &c, nil
}

// Extend продлевает аккаунт на days дней и возвращает старый и новый срок.
// Строка блокируется FOR UPDATE, поэтому два параллельных продления не потеряют друг друга.
// Должен вызываться внутри транзакции (postgres.TxManager.WithinTx).
func (r *Repository) Extend(ctx context.Context, game Game, username, password string, days int, now time.Time) (oldExp, newExp time.Time, err error) {
	conn := postgres.Conn(ctx, r.db)

	var id int64
	err = conn.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, exp_date FROM %s
		WHERE username = $1 AND password = $2
		FOR UPDATE
	`, game.Table()), username, password).Scan(&id, &oldExp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, time.Time{}, common.ErrCredentialNotFound
		}
		return time.Time{}, time.Time{}, fmt.Errorf("ошибка блокировки аккаунта: %w", err)
	}

	newExp = ExtendExpiry(oldExp, now, days)
	_, err = conn.Exec(ctx, fmt.Sprintf(`UPDATE %s SET exp_date = $2 WHERE id = $1`, game.Table()), id, newExp)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("ошибка продления аккаунта: %w", err)
	}
	return oldExp, newExp, nil
}

// ExtendExpiry — новый срок: от max(now, old) плюс days дней.
// Истёкший аккаунт продлевается от текущего момента, а не от старой даты.
func ExtendExpiry(old, now time.Time, days int) time.Time {
	base := old
	if now.After(old) {
		base = now
	}
	return base.Add(time.Duration(days) * 24 * time.Hour)
}

// ExpiryFrom — срок нового аккаунта на days дней.
func ExpiryFrom(now time.Time, days int) time.Time {
	return now.Add(time.Duration(days) * 24 * time.Hour)
}
