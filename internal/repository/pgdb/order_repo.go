package pgdb

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// OrderRepo реализует репозиторий заказов поверх PostgreSQL.
type OrderRepo struct {
	pool *pgxpool.Pool
	conv converter.OrderConverter
}

func NewOrderRepo(pool *pgxpool.Pool, conv converter.OrderConverter) *OrderRepo {
	return &OrderRepo{
		pool: pool,
		conv: conv,
	}
}

// NextID выдаёт следующий идентификатор заказа из последовательности БД.
// Последовательность монотонна и не зависит от конкурирующих транзакций.
func (o *OrderRepo) NextID(ctx context.Context) (int64, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	var id int64
	if err := tx.QueryRow(ctx, `SELECT nextval('orders_id_seq');`).Scan(&id); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return id, nil
}

// Insert записывает заказ в рамках транзакции оформления.
func (o *OrderRepo) Insert(ctx context.Context, order *domain.Order) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	model := o.conv.ToModel(order)
	query := `
		INSERT INTO orders (id, customer_id, product_id, quantity, order_date, total)
		VALUES ($1, $2, $3, $4, $5, $6);
	`

	_, err = tx.Exec(ctx, query,
		model.ID, model.CustomerID, model.ProductID,
		model.Quantity, model.OrderDate, model.Total,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// ListByCustomer возвращает страницу заказов покупателя, новые первыми.
func (o *OrderRepo) ListByCustomer(ctx context.Context, customerID, limit, offset int64) ([]usecase.OrderInfo, int64, error) {
	query := `
		SELECT ord.id, ord.customer_id, COALESCE(cust.name, ''), ord.product_id,
		       COALESCE(pr.name, ''), ord.quantity, ord.order_date, ord.total,
		       COUNT(*) OVER() AS total_count
		FROM orders ord
		LEFT JOIN customers cust ON ord.customer_id = cust.id
		LEFT JOIN products pr ON ord.product_id = pr.id
		WHERE ord.customer_id = $1
		ORDER BY ord.id DESC
		LIMIT $2 OFFSET $3;
	`

	return o.queryOrders(ctx, query, customerID, limit, offset)
}

// List возвращает страницу всех заказов для сотрудников, новые первыми.
func (o *OrderRepo) List(ctx context.Context, limit, offset int64) ([]usecase.OrderInfo, int64, error) {
	query := `
		SELECT ord.id, ord.customer_id, COALESCE(cust.name, ''), ord.product_id,
		       COALESCE(pr.name, ''), ord.quantity, ord.order_date, ord.total,
		       COUNT(*) OVER() AS total_count
		FROM orders ord
		LEFT JOIN customers cust ON ord.customer_id = cust.id
		LEFT JOIN products pr ON ord.product_id = pr.id
		ORDER BY ord.id DESC
		LIMIT $1 OFFSET $2;
	`

	return o.queryOrders(ctx, query, limit, offset)
}

// ExistsForProduct проверяет наличие заказов с товаром, в транзакции удаления.
func (o *OrderRepo) ExistsForProduct(ctx context.Context, productID int64) (bool, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE product_id = $1);`, productID).
		Scan(&exists)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

func (o *OrderRepo) queryOrders(ctx context.Context, query string, args ...any) ([]usecase.OrderInfo, int64, error) {
	rows, err := o.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var total int64
	result := make([]usecase.OrderInfo, 0)
	for rows.Next() {
		var order usecase.OrderInfo
		err := rows.Scan(
			&order.ID, &order.CustomerID, &order.CustomerName, &order.ProductID,
			&order.ProductName, &order.Quantity, &order.OrderDate, &order.Total,
			&total,
		)
		if err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, total, nil
}
