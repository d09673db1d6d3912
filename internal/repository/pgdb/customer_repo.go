package pgdb

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CustomerRepo реализует репозиторий покупателей поверх PostgreSQL.
type CustomerRepo struct {
	pool *pgxpool.Pool
	conv converter.CustomerConverter
}

func NewCustomerRepo(pool *pgxpool.Pool, conv converter.CustomerConverter) *CustomerRepo {
	return &CustomerRepo{
		pool: pool,
		conv: conv,
	}
}

// Create добавляет покупателя в транзакции регистрации, вместе с учётной записью.
func (c *CustomerRepo) Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := c.conv.ToModel(customer)
	query := `
		INSERT INTO customers (name, address, phone, username)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;
	`

	err = tx.QueryRow(ctx, query,
		model.Name, model.Address, model.Phone, model.Username,
	).Scan(&model.ID, &model.CreatedAt)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToEntity(model), nil
}
