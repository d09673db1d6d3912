package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductFixture() (*ProductUseCase, *productRepoMock, *orderRepoMock, *imagesInfraMock, *cacheRepoMock, *fakeTx) {
	tx := &fakeTx{}
	pool := &fakePool{tx: tx}

	productRepo := &productRepoMock{
		create: func(ctx context.Context, product *domain.Product, imageKeys []string) (*domain.Product, error) {
			product.ID = 1
			return product, nil
		},
		deleteFn: func(ctx context.Context, productID int64) error { return nil },
		getByID: func(ctx context.Context, productID int64) (*domain.Product, error) {
			return &domain.Product{ID: productID, Name: "Teapot", Price: 59999, Stock: 4, Rating: 4.5}, nil
		},
	}
	orderRepo := &orderRepoMock{
		existsForProduct: func(ctx context.Context, productID int64) (bool, error) { return false, nil },
	}
	imagesInfra := &imagesInfraMock{
		uploadImages: func(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error) {
			return &UploadImagesRes{ImagesKeys: []string{"products/teapot/1.png"}}, nil
		},
	}
	cacheRepo := &cacheRepoMock{}

	uc := NewProductUC(productRepo, orderRepo, pool, imagesInfra, cacheRepo, nopLogger{})
	return uc, productRepo, orderRepo, imagesInfra, cacheRepo, tx
}

func TestCreateProduct_Success(t *testing.T) {
	t.Parallel()

	uc, productRepo, _, _, _, _ := newProductFixture()

	var gotKeys []string
	productRepo.create = func(ctx context.Context, product *domain.Product, imageKeys []string) (*domain.Product, error) {
		gotKeys = imageKeys
		product.ID = 1
		return product, nil
	}

	req := &CreateProductReq{
		Name:   "Teapot",
		Price:  59999,
		Stock:  4,
		Rating: 4.5,
		Images: []ProductImage{{Data: []byte{0x89}, MimeType: "image/png", Size: 1, Name: "1.png"}},
	}
	info, err := uc.CreateProduct(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(1), info.ID)
	assert.Equal(t, int64(59999), info.Price)
	assert.Equal(t, []string{"products/teapot/1.png"}, gotKeys)
}

func TestCreateProduct_Validation(t *testing.T) {
	t.Parallel()

	uc, _, _, _, _, _ := newProductFixture()

	tests := []struct {
		name    string
		req     *CreateProductReq
		wantErr error
	}{
		{"empty name", &CreateProductReq{Name: " ", Price: 100, Stock: 1}, e.ErrProductNameRequired},
		{"negative price", &CreateProductReq{Name: "Teapot", Price: -1, Stock: 1}, e.ErrInvalidPrice},
		{"negative stock", &CreateProductReq{Name: "Teapot", Price: 100, Stock: -1}, e.ErrInvalidStock},
		{"rating above 5", &CreateProductReq{Name: "Teapot", Price: 100, Stock: 1, Rating: 5.1}, e.ErrInvalidRating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := uc.CreateProduct(context.Background(), tt.req)
			assert.Nil(t, info)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// Если вставка товара не удалась, загруженные объекты не остаются сиротами.
func TestCreateProduct_InsertFailureCleansUpImages(t *testing.T) {
	t.Parallel()

	uc, productRepo, _, imagesInfra, _, _ := newProductFixture()

	productRepo.create = func(ctx context.Context, product *domain.Product, imageKeys []string) (*domain.Product, error) {
		return nil, errors.New("insert failed")
	}

	var cleaned []string
	imagesInfra.cleanupImages = func(keys []string) { cleaned = keys }

	req := &CreateProductReq{
		Name:   "Teapot",
		Price:  59999,
		Stock:  4,
		Images: []ProductImage{{Data: []byte{0x89}, MimeType: "image/png", Size: 1, Name: "1.png"}},
	}
	info, err := uc.CreateProduct(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, info)
	assert.Equal(t, []string{"products/teapot/1.png"}, cleaned)
}

func TestUpdateProduct_NoFields(t *testing.T) {
	t.Parallel()

	uc, _, _, _, _, _ := newProductFixture()

	info, err := uc.UpdateProduct(context.Background(), &UpdateProductReq{ID: 1})
	assert.Nil(t, info)
	assert.ErrorIs(t, err, e.ErrMissingFields)
}

func TestUpdateProduct_RestockInvalidatesCache(t *testing.T) {
	t.Parallel()

	uc, productRepo, _, _, cacheRepo, _ := newProductFixture()

	stock := int64(25)
	productRepo.update = func(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
		return &domain.Product{ID: req.ID, Name: "Teapot", Price: 59999, Stock: *req.Stock}, nil
	}

	info, err := uc.UpdateProduct(context.Background(), &UpdateProductReq{ID: 1, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, int64(25), info.Stock)

	require.Len(t, cacheRepo.deleted, 1)
	assert.Equal(t, []int64{1}, cacheRepo.deleted[0])
}

func TestDeleteProduct_ReferencedByOrders(t *testing.T) {
	t.Parallel()

	uc, productRepo, orderRepo, _, _, tx := newProductFixture()

	orderRepo.existsForProduct = func(ctx context.Context, productID int64) (bool, error) {
		return true, nil
	}
	productRepo.deleteFn = func(ctx context.Context, productID int64) error {
		t.Fatal("delete must not run for a product referenced by orders")
		return nil
	}

	err := uc.DeleteProduct(context.Background(), 42)
	assert.ErrorIs(t, err, e.ErrProductReferenced)
	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
}

func TestDeleteProduct_Success(t *testing.T) {
	t.Parallel()

	uc, _, _, _, cacheRepo, tx := newProductFixture()

	err := uc.DeleteProduct(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, tx.commits)
	require.Len(t, cacheRepo.deleted, 1)
	assert.Equal(t, []int64{42}, cacheRepo.deleted[0])
}

func TestGetProduct_CacheHitSkipsRepo(t *testing.T) {
	t.Parallel()

	uc, productRepo, _, _, _, _ := newProductFixture()

	uc.cacheRepo = &cacheRepoMock{
		products: map[int64]ProductInfo{42: NewProductInfo(42, "Teapot", 59999, 4, 4.5)},
	}
	productRepo.getByID = func(ctx context.Context, productID int64) (*domain.Product, error) {
		t.Fatal("repo must not be hit on a cache hit")
		return nil, nil
	}

	info, err := uc.GetProduct(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Teapot", info.Name)
}

func TestGetProduct_CacheMissFallsThrough(t *testing.T) {
	t.Parallel()

	uc, _, _, _, _, _ := newProductFixture()

	info, err := uc.GetProduct(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), info.ID)
	assert.Equal(t, "Teapot", info.Name)

	// Фоновая запись в кэш успевает завершиться
	cache := uc.cacheRepo.(*cacheRepoMock)
	assert.Eventually(t, func() bool {
		cache.mu.Lock()
		defer cache.mu.Unlock()
		return len(cache.set) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestGetProducts_Pagination(t *testing.T) {
	t.Parallel()

	uc, productRepo, _, _, _, _ := newProductFixture()

	var gotLimit, gotOffset int64
	productRepo.list = func(ctx context.Context, limit, offset int64) ([]domain.Product, int64, error) {
		gotLimit, gotOffset = limit, offset
		return []domain.Product{{ID: 1, Name: "Teapot"}}, 16, nil
	}

	res, err := uc.GetProducts(context.Background(), &ProductsPageReq{Page: 2, Limit: 15})
	require.NoError(t, err)

	assert.Equal(t, int64(15), gotLimit)
	assert.Equal(t, int64(15), gotOffset)
	assert.Equal(t, int64(2), res.Page)
	assert.Equal(t, int64(2), res.TotalPages)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "Teapot", res.Products[0].Name)
}
