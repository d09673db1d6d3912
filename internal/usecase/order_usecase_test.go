package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderFixture() (*OrderUseCase, *orderRepoMock, *productRepoMock, *outboxRepoMock, *cacheRepoMock, *fakeTx) {
	tx := &fakeTx{}
	pool := &fakePool{tx: tx}

	nextID := int64(0)
	orderRepo := &orderRepoMock{
		nextID: func(ctx context.Context) (int64, error) {
			nextID++
			return nextID, nil
		},
		insert: func(ctx context.Context, order *domain.Order) error { return nil },
	}
	productRepo := &productRepoMock{
		getPriceAndStock: func(ctx context.Context, productID int64) (*PriceStock, error) {
			return NewPriceStock(500, 5), nil
		},
		decrementStock: func(ctx context.Context, productID, amount int64) (int64, error) {
			return 1, nil
		},
	}
	outboxRepo := &outboxRepoMock{
		create: func(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
			return event, nil
		},
	}
	cacheRepo := &cacheRepoMock{}

	uc := NewOrderUC(orderRepo, productRepo, outboxRepo, pool, cacheRepo, nopLogger{})
	return uc, orderRepo, productRepo, outboxRepo, cacheRepo, tx
}

func TestPlaceOrder_Success(t *testing.T) {
	t.Parallel()

	uc, orderRepo, productRepo, outboxRepo, cacheRepo, tx := newOrderFixture()
	uc.now = func() time.Time {
		return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	}

	var inserted *domain.Order
	orderRepo.insert = func(ctx context.Context, order *domain.Order) error {
		inserted = order
		return nil
	}

	var decremented []int64
	productRepo.decrementStock = func(ctx context.Context, productID, amount int64) (int64, error) {
		decremented = []int64{productID, amount}
		return 1, nil
	}

	var event *OutboxEvent
	outboxRepo.create = func(ctx context.Context, ev *OutboxEvent) (*OutboxEvent, error) {
		event = ev
		return ev, nil
	}

	res, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(7, 42, 3))
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, int64(1), res.OrderID)
	require.NotNil(t, inserted)
	assert.Equal(t, int64(7), inserted.CustomerID)
	assert.Equal(t, int64(42), inserted.ProductID)
	assert.Equal(t, int64(3), inserted.Quantity)
	// Сумма — цена из транзакции, умноженная на количество
	assert.Equal(t, int64(1500), inserted.Total)
	// Дата заказа хранится без времени суток
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), inserted.OrderDate)

	assert.Equal(t, []int64{42, 3}, decremented)
	assert.Equal(t, 1, tx.commits)
	assert.Equal(t, 0, tx.rollbacks)

	// Событие записано в той же транзакции и несёт данные заказа
	require.NotNil(t, event)
	assert.Equal(t, OrderPlaced, event.EventType)
	assert.Equal(t, inserted.ID, event.OrderID)

	var payload OrderPlacedPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, inserted.ID, payload.OrderID)
	assert.Equal(t, int64(1500), payload.Total)
	assert.Equal(t, "2025-03-14", payload.OrderDate)

	// После фиксации кэш товара сброшен
	require.Len(t, cacheRepo.deleted, 1)
	assert.Equal(t, []int64{42}, cacheRepo.deleted[0])
}

func TestPlaceOrder_NoLinkedAccount(t *testing.T) {
	t.Parallel()

	uc, _, productRepo, _, _, tx := newOrderFixture()

	lookups := 0
	productRepo.getPriceAndStock = func(ctx context.Context, productID int64) (*PriceStock, error) {
		lookups++
		return NewPriceStock(500, 5), nil
	}

	for _, customerID := range []int64{0, -1} {
		res, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(customerID, 42, 1))
		require.Error(t, err)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, e.ErrNoLinkedAccount)
	}

	// Отказ до каких-либо обращений к хранилищу
	assert.Equal(t, 0, lookups)
	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 0, tx.rollbacks)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	t.Parallel()

	uc, _, _, _, _, tx := newOrderFixture()

	for _, quantity := range []int64{0, -5} {
		res, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(7, 42, quantity))
		require.Error(t, err)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, e.ErrInvalidQuantity)
	}

	assert.Equal(t, 0, tx.commits)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	t.Parallel()

	uc, orderRepo, productRepo, _, _, tx := newOrderFixture()

	productRepo.getPriceAndStock = func(ctx context.Context, productID int64) (*PriceStock, error) {
		return nil, e.Wrap("ProductRepo.GetPriceAndStock", e.ErrProductNotFound)
	}
	orderRepo.insert = func(ctx context.Context, order *domain.Order) error {
		t.Fatal("insert must not be called for a missing product")
		return nil
	}

	res, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(7, 9999, 1))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
	assert.NotErrorIs(t, err, e.ErrTransactionFailure)

	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	t.Parallel()

	uc, orderRepo, productRepo, _, _, tx := newOrderFixture()

	productRepo.getPriceAndStock = func(ctx context.Context, productID int64) (*PriceStock, error) {
		return NewPriceStock(500, 2), nil
	}
	orderRepo.insert = func(ctx context.Context, order *domain.Order) error {
		t.Fatal("insert must not be called when stock is insufficient")
		return nil
	}

	res, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(7, 42, 3))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, e.ErrInsufficientStock)

	// Ответ несёт фактический остаток
	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.Available)
	assert.Equal(t, int64(42), stockErr.ProductID)

	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestPlaceOrder_ExactStockSucceeds(t *testing.T) {
	t.Parallel()

	uc, _, productRepo, _, _, tx := newOrderFixture()

	productRepo.getPriceAndStock = func(ctx context.Context, productID int64) (*PriceStock, error) {
		return NewPriceStock(500, 3), nil
	}

	res, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(7, 42, 3))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 1, tx.commits)
}

func TestPlaceOrder_ConcurrentDecrementMiss(t *testing.T) {
	t.Parallel()

	uc, _, productRepo, outboxRepo, _, tx := newOrderFixture()

	// Проверка остатка прошла, но к моменту списания конкурирующий заказ
	// уже израсходовал товар
	reads := 0
	productRepo.getPriceAndStock = func(ctx context.Context, productID int64) (*PriceStock, error) {
		reads++
		if reads == 1 {
			return NewPriceStock(500, 5), nil
		}
		return NewPriceStock(500, 1), nil
	}
	productRepo.decrementStock = func(ctx context.Context, productID, amount int64) (int64, error) {
		return 0, nil
	}
	outboxRepo.create = func(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
		t.Fatal("outbox event must not be written when decrement misses")
		return nil, nil
	}

	res, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(7, 42, 3))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, e.ErrInsufficientStock)

	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(1), stockErr.Available)

	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestPlaceOrder_InsertFailureRollsBackEverything(t *testing.T) {
	t.Parallel()

	uc, orderRepo, productRepo, _, cacheRepo, tx := newOrderFixture()

	orderRepo.insert = func(ctx context.Context, order *domain.Order) error {
		return errors.New("connection reset")
	}
	productRepo.decrementStock = func(ctx context.Context, productID, amount int64) (int64, error) {
		t.Fatal("stock must not be touched after a failed insert")
		return 0, nil
	}

	res, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(7, 42, 1))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, e.ErrTransactionFailure)

	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
	assert.Empty(t, cacheRepo.deleted)
}

func TestPlaceOrder_OutboxFailureRollsBack(t *testing.T) {
	t.Parallel()

	uc, _, _, outboxRepo, _, tx := newOrderFixture()

	outboxRepo.create = func(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
		return nil, errors.New("insert failed")
	}

	res, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(7, 42, 1))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, e.ErrTransactionFailure)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestPlaceOrder_CommitFailure(t *testing.T) {
	t.Parallel()

	uc, _, _, _, cacheRepo, tx := newOrderFixture()
	tx.commitErr = errors.New("deadlock detected")

	res, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(7, 42, 1))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, e.ErrTransactionFailure)
	assert.Empty(t, cacheRepo.deleted)
}

// Повторная отправка того же запроса — это новый заказ: идемпотентность
// не обеспечивается.
func TestPlaceOrder_RepeatCreatesSecondOrder(t *testing.T) {
	t.Parallel()

	uc, orderRepo, _, _, _, _ := newOrderFixture()

	var ids []int64
	orderRepo.insert = func(ctx context.Context, order *domain.Order) error {
		ids = append(ids, order.ID)
		return nil
	}

	req := NewPlaceOrderReq(7, 42, 1)
	first, err := uc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	second, err := uc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Equal(t, []int64{first.OrderID, second.OrderID}, ids)
}

// Конкурирующие оформления никогда не уводят остаток в минус: успехов ровно
// столько, на сколько хватает товара.
func TestPlaceOrder_ConcurrentStockInvariant(t *testing.T) {
	t.Parallel()

	const (
		initialStock = 5
		workers      = 20
	)

	pool := &fakePool{}

	var mu sync.Mutex
	stock := int64(initialStock)
	nextID := int64(0)

	orderRepo := &orderRepoMock{
		nextID: func(ctx context.Context) (int64, error) {
			mu.Lock()
			defer mu.Unlock()
			nextID++
			return nextID, nil
		},
		insert: func(ctx context.Context, order *domain.Order) error { return nil },
	}
	productRepo := &productRepoMock{
		getPriceAndStock: func(ctx context.Context, productID int64) (*PriceStock, error) {
			mu.Lock()
			defer mu.Unlock()
			return NewPriceStock(500, stock), nil
		},
		// Условное списание, как его выполняет UPDATE ... WHERE stock >= $2
		decrementStock: func(ctx context.Context, productID, amount int64) (int64, error) {
			mu.Lock()
			defer mu.Unlock()
			if stock < amount {
				return 0, nil
			}
			stock -= amount
			return 1, nil
		},
	}
	outboxRepo := &outboxRepoMock{
		create: func(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
			return event, nil
		},
	}

	uc := NewOrderUC(orderRepo, productRepo, outboxRepo, pool, &cacheRepoMock{}, nopLogger{})

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.PlaceOrder(context.Background(), NewPlaceOrderReq(7, 42, 1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, failures := 0, 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		failures++
		assert.ErrorIs(t, err, e.ErrInsufficientStock)
	}

	assert.Equal(t, initialStock, successes)
	assert.Equal(t, workers-initialStock, failures)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int64(0), stock)
}

func TestGetCustomerOrders_NoLinkedAccount(t *testing.T) {
	t.Parallel()

	uc, _, _, _, _, _ := newOrderFixture()

	res, err := uc.GetCustomerOrders(context.Background(), &CustomerOrdersReq{CustomerID: 0, Page: 1, Limit: 10})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, e.ErrNoLinkedAccount)
}

func TestGetCustomerOrders_Pagination(t *testing.T) {
	t.Parallel()

	uc, orderRepo, _, _, _, _ := newOrderFixture()

	var gotLimit, gotOffset int64
	orderRepo.listByCustomer = func(ctx context.Context, customerID, limit, offset int64) ([]OrderInfo, int64, error) {
		gotLimit, gotOffset = limit, offset
		return []OrderInfo{{ID: 31}}, 31, nil
	}

	res, err := uc.GetCustomerOrders(context.Background(), &CustomerOrdersReq{CustomerID: 7, Page: 3, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, int64(10), gotLimit)
	assert.Equal(t, int64(20), gotOffset)
	assert.Equal(t, int64(3), res.Page)
	assert.Equal(t, int64(4), res.TotalPages)
	assert.Equal(t, int64(31), res.TotalItems)
}
