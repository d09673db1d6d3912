package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/jackc/pgx/v5"
)

// fakeTx подменяет pgx.Tx в транзакционных сценариях. Репозитории в тестах
// замоканы и к самой транзакции не обращаются, поэтому достаточно
// Commit и Rollback.
type fakeTx struct {
	pgx.Tx
	commits   int
	rollbacks int
	commitErr error
}

func (f *fakeTx) Commit(ctx context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits++
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rollbacks++
	return nil
}

// fakePool выдаёт транзакции. Если tx не задан, каждая транзакция получает
// свой экземпляр, что позволяет безопасно вызывать PlaceOrder из горутин.
type fakePool struct {
	tx       *fakeTx
	beginErr error
	begins   atomic.Int64
}

func (f *fakePool) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.begins.Add(1)
	if f.tx != nil {
		return f.tx, nil
	}
	return &fakeTx{}, nil
}

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

type productRepoMock struct {
	getPriceAndStock func(ctx context.Context, productID int64) (*PriceStock, error)
	decrementStock   func(ctx context.Context, productID, amount int64) (int64, error)
	create           func(ctx context.Context, product *domain.Product, imageKeys []string) (*domain.Product, error)
	update           func(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	deleteFn         func(ctx context.Context, productID int64) error
	getByID          func(ctx context.Context, productID int64) (*domain.Product, error)
	list             func(ctx context.Context, limit, offset int64) ([]domain.Product, int64, error)
}

func (m *productRepoMock) Create(ctx context.Context, product *domain.Product, imageKeys []string) (*domain.Product, error) {
	return m.create(ctx, product, imageKeys)
}

func (m *productRepoMock) Update(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	return m.update(ctx, req)
}

func (m *productRepoMock) Delete(ctx context.Context, productID int64) error {
	return m.deleteFn(ctx, productID)
}

func (m *productRepoMock) GetByID(ctx context.Context, productID int64) (*domain.Product, error) {
	return m.getByID(ctx, productID)
}

func (m *productRepoMock) List(ctx context.Context, limit, offset int64) ([]domain.Product, int64, error) {
	return m.list(ctx, limit, offset)
}

func (m *productRepoMock) GetPriceAndStock(ctx context.Context, productID int64) (*PriceStock, error) {
	return m.getPriceAndStock(ctx, productID)
}

func (m *productRepoMock) DecrementStock(ctx context.Context, productID, amount int64) (int64, error) {
	return m.decrementStock(ctx, productID, amount)
}

type orderRepoMock struct {
	nextID           func(ctx context.Context) (int64, error)
	insert           func(ctx context.Context, order *domain.Order) error
	listByCustomer   func(ctx context.Context, customerID, limit, offset int64) ([]OrderInfo, int64, error)
	list             func(ctx context.Context, limit, offset int64) ([]OrderInfo, int64, error)
	existsForProduct func(ctx context.Context, productID int64) (bool, error)
}

func (m *orderRepoMock) NextID(ctx context.Context) (int64, error) {
	return m.nextID(ctx)
}

func (m *orderRepoMock) Insert(ctx context.Context, order *domain.Order) error {
	return m.insert(ctx, order)
}

func (m *orderRepoMock) ListByCustomer(ctx context.Context, customerID, limit, offset int64) ([]OrderInfo, int64, error) {
	return m.listByCustomer(ctx, customerID, limit, offset)
}

func (m *orderRepoMock) List(ctx context.Context, limit, offset int64) ([]OrderInfo, int64, error) {
	return m.list(ctx, limit, offset)
}

func (m *orderRepoMock) ExistsForProduct(ctx context.Context, productID int64) (bool, error) {
	return m.existsForProduct(ctx, productID)
}

type outboxRepoMock struct {
	create func(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
}

func (m *outboxRepoMock) Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	return m.create(ctx, event)
}

func (m *outboxRepoMock) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (m *outboxRepoMock) MarkAsProcessed(ctx context.Context, id int64) error {
	return nil
}

type cacheRepoMock struct {
	mu       sync.Mutex
	products map[int64]ProductInfo
	set      [][]ProductInfo
	deleted  [][]int64
}

func (m *cacheRepoMock) GetProducts(ctx context.Context, ids []int64) (map[int64]ProductInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := make(map[int64]ProductInfo)
	for _, id := range ids {
		if info, ok := m.products[id]; ok {
			found[id] = info
		}
	}
	return found, nil
}

func (m *cacheRepoMock) SetProducts(ctx context.Context, products []ProductInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set = append(m.set, products)
	return nil
}

func (m *cacheRepoMock) DeleteProducts(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ids)
	return nil
}

type userRepoMock struct {
	create        func(ctx context.Context, user *domain.User) (*domain.User, error)
	getByUsername func(ctx context.Context, username string) (*UserWithCustomer, error)
}

func (m *userRepoMock) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return m.create(ctx, user)
}

func (m *userRepoMock) GetByUsername(ctx context.Context, username string) (*UserWithCustomer, error) {
	return m.getByUsername(ctx, username)
}

type customerRepoMock struct {
	create func(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
}

func (m *customerRepoMock) Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	return m.create(ctx, customer)
}

type imagesInfraMock struct {
	uploadImages  func(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error)
	cleanupImages func(keys []string)
}

func (m *imagesInfraMock) UploadImages(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error) {
	return m.uploadImages(ctx, req)
}

func (m *imagesInfraMock) CleanupImages(keys []string) {
	if m.cleanupImages != nil {
		m.cleanupImages(keys)
	}
}
