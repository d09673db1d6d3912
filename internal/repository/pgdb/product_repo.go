package pgdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Create добавляет товар в каталог вместе с ключами загруженных изображений.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product, imageKeys []string) (*domain.Product, error) {
	query := `
		INSERT INTO products (name, price, stock, rating, image_keys)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, price, stock, rating, created_at, updated_at;
	`

	var model converter.ProductModel
	err := p.pool.QueryRow(ctx, query,
		product.Name, product.Price, product.Stock, product.Rating, imageKeys,
	).Scan(
		&model.ID, &model.Name, &model.Price, &model.Stock, &model.Rating,
		&model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// Update изменяет только переданные поля товара.
func (p *ProductRepo) Update(ctx context.Context, req *usecase.UpdateProductReq) (*domain.Product, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		appendSet("name", *req.Name)
	}
	if req.Price != nil {
		appendSet("price", *req.Price)
	}
	if req.Stock != nil {
		appendSet("stock", *req.Stock)
	}
	if req.Rating != nil {
		appendSet("rating", *req.Rating)
	}

	if len(sets) == 0 {
		return p.GetByID(ctx, req.ID)
	}

	args = append(args, req.ID)
	query := fmt.Sprintf(`
		UPDATE products
		SET %s, updated_at = NOW()
		WHERE id = $%d
		RETURNING id, name, price, stock, rating, created_at, updated_at;
	`, strings.Join(sets, ", "), len(args))

	var model converter.ProductModel
	err := p.pool.QueryRow(ctx, query, args...).Scan(
		&model.ID, &model.Name, &model.Price, &model.Stock, &model.Rating,
		&model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// Delete удаляет товар. Вызывается внутри транзакции, после проверки
// отсутствия ссылающихся заказов.
func (p *ProductRepo) Delete(ctx context.Context, productID int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1;`, productID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) GetByID(ctx context.Context, productID int64) (*domain.Product, error) {
	query := `
		SELECT id, name, price, stock, rating, created_at, updated_at
		FROM products
		WHERE id = $1;
	`

	var model converter.ProductModel
	err := p.pool.QueryRow(ctx, query, productID).Scan(
		&model.ID, &model.Name, &model.Price, &model.Stock, &model.Rating,
		&model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// List возвращает страницу каталога и общее число товаров.
func (p *ProductRepo) List(ctx context.Context, limit, offset int64) ([]domain.Product, int64, error) {
	query := `
		SELECT id, name, price, stock, rating, created_at, updated_at,
		       COUNT(*) OVER() AS total
		FROM products
		ORDER BY id
		LIMIT $1 OFFSET $2;
	`

	rows, err := p.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var total int64
	result := make([]domain.Product, 0, limit)
	for rows.Next() {
		var model converter.ProductModel
		err := rows.Scan(
			&model.ID, &model.Name, &model.Price, &model.Stock, &model.Rating,
			&model.CreatedAt, &model.UpdatedAt, &total,
		)
		if err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *p.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	if len(result) == 0 {
		// Страница за пределами каталога, общее число берём отдельным запросом
		if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products;`).Scan(&total); err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	return result, total, nil
}

// GetPriceAndStock читает цену и остаток товара в рамках транзакции оформления.
func (p *ProductRepo) GetPriceAndStock(ctx context.Context, productID int64) (*usecase.PriceStock, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var ps usecase.PriceStock
	err = tx.QueryRow(ctx, `SELECT price, stock FROM products WHERE id = $1;`, productID).
		Scan(&ps.Price, &ps.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &ps, nil
}

// DecrementStock условно списывает остаток: строка обновляется только если
// остатка хватает. Ноль затронутых строк означает нехватку товара.
func (p *ProductRepo) DecrementStock(ctx context.Context, productID, amount int64) (int64, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2;
	`

	result, err := tx.Exec(ctx, query, productID, amount)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result.RowsAffected(), nil
}
