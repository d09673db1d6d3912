package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

type productResponse struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Price  int64   `json:"price"`
	Stock  int64   `json:"stock"`
	Rating float64 `json:"rating"`
}

type productsPageResponse struct {
	Products   []productResponse `json:"products"`
	Page       int64             `json:"page"`
	TotalPages int64             `json:"total_pages"`
	TotalItems int64             `json:"total_items"`
}

type updateProductRequest struct {
	Name   *string  `json:"name,omitempty"`
	Price  *string  `json:"price,omitempty"` // строка вида "599.99"
	Stock  *int64   `json:"stock,omitempty"`
	Rating *float64 `json:"rating,omitempty"`
}

// createProduct
//
//	@Summary		Добавление товара
//	@Description	Создаёт товар в каталоге, опционально с изображениями
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name	formData	string	true	"Название товара"
//	@Param			price	formData	string	true	"Цена, например 599.99"
//	@Param			stock	formData	int		true	"Начальный остаток"
//	@Param			rating	formData	number	false	"Рейтинг 0..5"
//	@Param			images	formData	file	false	"Изображения товара"
//	@Success		201		{object}	productResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 150 << 20
		maxMemory           = 32 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	req, err := p.parseCreateForm(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	images, err := parseImages(r.MultipartForm.File["images"])
	if err != nil {
		if !errors.Is(err, e.ErrNoImages) {
			p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
			WriteError(w, err)
			return
		}
	}
	req.Images = images

	info, err := p.productUsecase.CreateProduct(r.Context(), req)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toProductResponse(info))
}

// updateProduct
//
//	@Summary		Изменение товара
//	@Description	Частично обновляет товар; изменение stock — пополнение склада
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int						true	"ID товара"
//	@Param			body	body		updateProductRequest	true	"Изменяемые поля"
//	@Success		200		{object}	productResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req updateProductRequest
	if err := decodeJSONBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	ucReq := &usecase.UpdateProductReq{
		ID:     id,
		Name:   req.Name,
		Stock:  req.Stock,
		Rating: req.Rating,
	}
	if req.Price != nil {
		cents, err := parsePriceToCents(*req.Price)
		if err != nil {
			WriteError(w, err)
			return
		}
		ucReq.Price = &cents
	}

	info, err := p.productUsecase.UpdateProduct(r.Context(), ucReq)
	if err != nil {
		p.logger.Warnf("update product %d failed: %v", id, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(info))
}

// deleteProduct
//
//	@Summary		Удаление товара
//	@Description	Удаляет товар, если на него не ссылаются заказы
//	@Tags			products
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	int	true	"ID товара"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse	"Товар упоминается в заказах"
//	@Router			/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		p.logger.Warnf("delete product %d failed: %v", id, err)
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getProduct
//
//	@Summary		Карточка товара
//	@Tags			products
//	@Produce		json
//	@Param			id	path		int	true	"ID товара"
//	@Success		200	{object}	productResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	info, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(info))
}

// listProducts
//
//	@Summary		Каталог товаров
//	@Tags			products
//	@Produce		json
//	@Param			page	query		int	false	"Номер страницы"
//	@Param			limit	query		int	false	"Размер страницы"
//	@Success		200		{object}	productsPageResponse
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePageQuery(r)
	res, err := p.productUsecase.GetProducts(r.Context(), &usecase.ProductsPageReq{
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	products := make([]productResponse, 0, len(res.Products))
	for i := range res.Products {
		products = append(products, toProductResponse(&res.Products[i]))
	}

	WriteSuccess(w, http.StatusOK, productsPageResponse{
		Products:   products,
		Page:       res.Page,
		TotalPages: res.TotalPages,
		TotalItems: res.TotalItems,
	})
}

func (p *ProductHandler) parseCreateForm(r *http.Request) (*usecase.CreateProductReq, error) {
	name := r.FormValue("name")
	priceStr := r.FormValue("price")
	stockStr := r.FormValue("stock")

	if name == "" || priceStr == "" || stockStr == "" {
		return nil, e.Wrap(formValuesSummary(name, priceStr, stockStr), e.ErrMissingFields)
	}

	price, err := parsePriceToCents(priceStr)
	if err != nil {
		return nil, err
	}

	stock, err := strconv.ParseInt(stockStr, 10, 64)
	if err != nil || stock < 0 {
		return nil, e.ErrInvalidStock
	}

	var rating float64
	if ratingStr := r.FormValue("rating"); ratingStr != "" {
		rating, err = strconv.ParseFloat(ratingStr, 64)
		if err != nil {
			return nil, e.ErrInvalidRating
		}
	}

	return &usecase.CreateProductReq{
		Name:   name,
		Price:  price,
		Stock:  stock,
		Rating: rating,
	}, nil
}

func formValuesSummary(name, price, stock string) string {
	return "name: " + name + ", price: " + price + ", stock: " + stock
}

func toProductResponse(info *usecase.ProductInfo) productResponse {
	return productResponse{
		ID:     info.ID,
		Name:   info.Name,
		Price:  info.Price,
		Stock:  info.Stock,
		Rating: info.Rating,
	}
}
