package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// UserRepo реализует репозиторий учётных записей поверх PostgreSQL.
type UserRepo struct {
	pool *pgxpool.Pool
	conv converter.UserConverter
}

func NewUserRepo(pool *pgxpool.Pool, conv converter.UserConverter) *UserRepo {
	return &UserRepo{
		pool: pool,
		conv: conv,
	}
}

// Create добавляет учётную запись в транзакции регистрации. Гонку за логин
// разрешает уникальное ограничение таблицы.
func (u *UserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := u.conv.ToModel(user)
	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at;
	`

	err = tx.QueryRow(ctx, query, model.Username, model.PasswordHash, model.Role).
		Scan(&model.ID, &model.CreatedAt)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrUsernameTaken)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.conv.ToEntity(model), nil
}

// GetByUsername возвращает учётную запись вместе с привязанным покупателем.
// CustomerID == nil для персонала без карточки покупателя.
func (u *UserRepo) GetByUsername(ctx context.Context, username string) (*usecase.UserWithCustomer, error) {
	query := `
		SELECT us.id, us.username, us.password_hash, us.role, cust.id
		FROM users us
		LEFT JOIN customers cust ON cust.username = us.username
		WHERE us.username = $1;
	`

	var result usecase.UserWithCustomer
	err := u.pool.QueryRow(ctx, query, username).Scan(
		&result.ID, &result.Username, &result.PasswordHash, &result.Role, &result.CustomerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrUserNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &result, nil
}
