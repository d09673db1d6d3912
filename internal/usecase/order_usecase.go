package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderUseCase реализует оформление заказов и чтение их истории.
// Оформление — единственный писатель строк orders и единственный
// санкционированный путь покупательского списания остатка.
type OrderUseCase struct {
	orderRepo   OrderRepository
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	dbPool      transaction.Transactional
	cacheRepo   CacheRepository
	logger      logger.Logger
	now         func() time.Time
}

func NewOrderUC(
	orderRepo OrderRepository,
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	dbPool transaction.Transactional,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		dbPool:      dbPool,
		cacheRepo:   cacheRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// PlaceOrder превращает запрос покупки в запись заказа и списание остатка —
// одной транзакцией: либо создаётся ровно один заказ и ровно одно списание,
// либо ничего. Цена, прочитанная в начале транзакции, авторитетна для всего
// заказа; повторная отправка того же запроса создаёт второй заказ
// (идемпотентность не обеспечивается).
func (o *OrderUseCase) PlaceOrder(ctx context.Context, req *PlaceOrderReq) (*PlaceOrderRes, error) {
	const op = "OrderUseCase.PlaceOrder"

	// Валидация до каких-либо обращений к хранилищу
	var err error
	if req.CustomerID <= 0 {
		return nil, e.Wrap(op, e.ErrNoLinkedAccount)
	}
	if req.Quantity <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidQuantity)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, o.dbPool)
	if err != nil {
		return nil, e.Wrap(op, e.WrapTransaction(err))
	}
	// Любая ошибка ниже откатывает транзакцию целиком: ни заказа, ни списания
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	ps, err := o.productRepo.GetPriceAndStock(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, e.ErrProductNotFound) {
			return nil, e.Wrap(op, err)
		}
		err = e.WrapTransaction(err)
		return nil, e.Wrap(op, err)
	}

	if ps.Stock < req.Quantity {
		err = e.NewInsufficientStockError(req.ProductID, ps.Stock)
		return nil, e.Wrap(op, err)
	}

	total := ps.Price * req.Quantity

	orderID, err := o.orderRepo.NextID(ctx)
	if err != nil {
		err = e.WrapTransaction(err)
		return nil, e.Wrap(op, err)
	}

	order := domain.NewOrder(orderID, req.CustomerID, req.ProductID, req.Quantity, dateOnly(o.now()), total)
	if err = o.orderRepo.Insert(ctx, order); err != nil {
		err = e.WrapTransaction(err)
		return nil, e.Wrap(op, err)
	}

	// Условное списание: ноль затронутых строк означает, что конкурентное
	// оформление израсходовало остаток между проверкой и списанием
	affected, err := o.productRepo.DecrementStock(ctx, req.ProductID, req.Quantity)
	if err != nil {
		err = e.WrapTransaction(err)
		return nil, e.Wrap(op, err)
	}
	if affected == 0 {
		available := int64(0)
		if current, rErr := o.productRepo.GetPriceAndStock(ctx, req.ProductID); rErr == nil {
			available = current.Stock
		}
		err = e.NewInsufficientStockError(req.ProductID, available)
		return nil, e.Wrap(op, err)
	}

	if err = o.recordOrderPlacedEvent(ctx, order); err != nil {
		err = e.WrapTransaction(err)
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		err = e.WrapTransaction(err)
		return nil, e.Wrap(op, err)
	}

	// Удаление из кэша устаревшего остатка товара
	if cErr := o.cacheRepo.DeleteProducts(ctx, []int64{req.ProductID}); cErr != nil {
		o.logger.Warnf("Failed to invalidate product cache: %v", e.Wrap(op, cErr))
	}

	return NewPlaceOrderRes(order.ID), nil
}

// GetCustomerOrders возвращает историю заказов покупателя.
func (o *OrderUseCase) GetCustomerOrders(ctx context.Context, req *CustomerOrdersReq) (*OrdersPageRes, error) {
	const op = "OrderUseCase.GetCustomerOrders"

	if req.CustomerID <= 0 {
		return nil, e.Wrap(op, e.ErrNoLinkedAccount)
	}

	limit, offset, page := normalizePage(req.Page, req.Limit)
	orders, total, err := o.orderRepo.ListByCustomer(ctx, req.CustomerID, limit, offset)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewOrdersPageRes(orders, page, totalPages(total, limit), total), nil
}

// GetOrders возвращает страницу всех заказов (для персонала).
func (o *OrderUseCase) GetOrders(ctx context.Context, req *OrdersPageReq) (*OrdersPageRes, error) {
	const op = "OrderUseCase.GetOrders"

	limit, offset, page := normalizePage(req.Page, req.Limit)
	orders, total, err := o.orderRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewOrdersPageRes(orders, page, totalPages(total, limit), total), nil
}

// recordOrderPlacedEvent записывает событие order.placed в outbox той же
// транзакцией, что и заказ.
func (o *OrderUseCase) recordOrderPlacedEvent(ctx context.Context, order *domain.Order) error {
	eventID := uuid.NewString()
	payload, err := json.Marshal(OrderPlacedPayload{
		EventID:    eventID,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		Total:      order.Total,
		OrderDate:  order.OrderDate.Format("2006-01-02"),
	})
	if err != nil {
		return err
	}

	_, err = o.outboxRepo.Create(ctx, NewOutboxEvent(eventID, OrderPlaced, order.ID, payload))
	return err
}

// dateOnly отбрасывает время суток: дата заказа хранится с точностью до дня.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func normalizePage(page, limit int64) (normLimit, offset, normPage int64) {
	const (
		defaultLimit = 15
		maxLimit     = 100
	)

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}

	return limit, (page - 1) * limit, page
}

func totalPages(totalItems, limit int64) int64 {
	if totalItems == 0 {
		return 0
	}
	return (totalItems + limit - 1) / limit
}
