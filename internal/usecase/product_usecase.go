package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// ProductUseCase реализует управление каталогом: создание, правки персонала
// (включая пополнение склада) и чтение с кэшем.
type ProductUseCase struct {
	productRepo ProductRepository
	orderRepo   OrderRepository
	dbPool      transaction.Transactional
	imagesInfra ImagesInfra
	cacheRepo   CacheRepository
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	orderRepo OrderRepository,
	dbPool transaction.Transactional,
	imagesInfra ImagesInfra,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		dbPool:      dbPool,
		imagesInfra: imagesInfra,
		cacheRepo:   cacheRepo,
		logger:      logger,
	}
}

// CreateProduct добавляет товар, при наличии изображений предварительно
// сохраняя их в MinIO. При ошибке вставки загруженные объекты зачищаются.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.CreateProduct"

	if err := p.validateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var imageKeys []string
	if len(req.Images) > 0 {
		imagesRes, err := p.imagesInfra.UploadImages(ctx, NewUploadImagesReq(req.Name, req.Images))
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		imageKeys = imagesRes.ImagesKeys
	}

	product, err := p.productRepo.Create(ctx, domain.NewProduct(req.Name, req.Price, req.Stock, req.Rating), imageKeys)
	if err != nil {
		if len(imageKeys) > 0 {
			p.logger.Warnf("Cleaning up orphaned images after failed product insert. product_name: %s, error: %v",
				req.Name, e.Wrap(op, err))
			p.imagesInfra.CleanupImages(imageKeys)
		}
		return nil, e.Wrap(op, err)
	}

	return p.toInfo(product), nil
}

// UpdateProduct частично обновляет товар; непереданные поля не трогаются.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.UpdateProduct"

	if req.Name == nil && req.Price == nil && req.Stock == nil && req.Rating == nil {
		return nil, e.Wrap(op, e.ErrMissingFields)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, e.Wrap(op, e.ErrProductNameRequired)
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, e.Wrap(op, e.ErrInvalidPrice)
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, e.Wrap(op, e.ErrInvalidStock)
	}
	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > 5) {
		return nil, e.Wrap(op, e.ErrInvalidRating)
	}

	product, err := p.productRepo.Update(ctx, req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCache(ctx, op, product.ID)
	return p.toInfo(product), nil
}

// DeleteProduct удаляет товар, если на него не ссылаются заказы: записи
// заказов неприкосновенны, каскад запрещён.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, productID int64) error {
	const op = "ProductUseCase.DeleteProduct"

	var err error
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return e.Wrap(op, e.WrapTransaction(err))
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	referenced, err := p.orderRepo.ExistsForProduct(ctx, productID)
	if err != nil {
		return e.Wrap(op, err)
	}
	if referenced {
		err = e.ErrProductReferenced
		return e.Wrap(op, err)
	}

	if err = p.productRepo.Delete(ctx, productID); err != nil {
		return e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		err = e.WrapTransaction(err)
		return e.Wrap(op, err)
	}

	p.invalidateCache(ctx, op, productID)
	return nil
}

// GetProduct возвращает товар, сначала пробуя кэш.
func (p *ProductUseCase) GetProduct(ctx context.Context, productID int64) (*ProductInfo, error) {
	const op = "ProductUseCase.GetProduct"

	cached, err := p.cacheRepo.GetProducts(ctx, []int64{productID})
	if err == nil {
		if info, ok := cached[productID]; ok {
			return &info, nil
		}
	}

	product, err := p.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	info := p.toInfo(product)

	// Фоновое добавление товара в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetProducts(bgCtx, []ProductInfo{*info}); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return info, nil
}

// GetProducts возвращает страницу каталога.
func (p *ProductUseCase) GetProducts(ctx context.Context, req *ProductsPageReq) (*ProductsPageRes, error) {
	const op = "ProductUseCase.GetProducts"

	limit, offset, page := normalizePage(req.Page, req.Limit)
	products, total, err := p.productRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	infos := make([]ProductInfo, 0, len(products))
	for i := range products {
		infos = append(infos, *p.toInfo(&products[i]))
	}

	return NewProductsPageRes(infos, page, totalPages(total, limit), total), nil
}

func (p *ProductUseCase) invalidateCache(ctx context.Context, op string, productID int64) {
	if err := p.cacheRepo.DeleteProducts(ctx, []int64{productID}); err != nil {
		p.logger.Warnf("Failed to invalidate product cache: %v", e.Wrap(op, err))
	}
}

func (p *ProductUseCase) toInfo(product *domain.Product) *ProductInfo {
	info := NewProductInfo(product.ID, product.Name, product.Price, product.Stock, product.Rating)
	return &info
}

// validateProduct проверяет корректность входных данных запроса на добавление товара.
func (p *ProductUseCase) validateProduct(req *CreateProductReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.ErrProductNameRequired
	}

	if req.Price < 0 {
		return e.ErrInvalidPrice
	}

	if req.Stock < 0 {
		return e.ErrInvalidStock
	}

	if req.Rating < 0 || req.Rating > 5 {
		return e.ErrInvalidRating
	}

	return nil
}
