package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

// ProductRepository — каталог и учёт остатков (Inventory Ledger).
// GetPriceAndStock и DecrementStock читают транзакцию из контекста и
// вызываются только внутри транзакции оформления заказа.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product, imageKeys []string) (*domain.Product, error)
	Update(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	Delete(ctx context.Context, productID int64) error
	GetByID(ctx context.Context, productID int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int64) ([]domain.Product, int64, error)

	GetPriceAndStock(ctx context.Context, productID int64) (*PriceStock, error)
	// DecrementStock выполняет условное списание: остаток уменьшается только
	// если его хватает, возвращается число затронутых строк.
	DecrementStock(ctx context.Context, productID, amount int64) (int64, error)
}

// OrderRepository — записи заказов и выдача идентификаторов.
// NextID и Insert вызываются только внутри транзакции оформления.
type OrderRepository interface {
	NextID(ctx context.Context) (int64, error)
	Insert(ctx context.Context, order *domain.Order) error
	ListByCustomer(ctx context.Context, customerID, limit, offset int64) ([]OrderInfo, int64, error)
	List(ctx context.Context, limit, offset int64) ([]OrderInfo, int64, error)
	ExistsForProduct(ctx context.Context, productID int64) (bool, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*UserWithCustomer, error)
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}
