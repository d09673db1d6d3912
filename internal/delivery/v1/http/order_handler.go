package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

type OrderHandler struct {
	orderUsecase usecase.OrderUC
	logger       logger.Logger
}

func NewOrderHandler(orderUsecase usecase.OrderUC, logger logger.Logger) *OrderHandler {
	return &OrderHandler{orderUsecase: orderUsecase, logger: logger}
}

type placeOrderRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type placeOrderResponse struct {
	OrderID int64 `json:"order_id"`
}

type orderResponse struct {
	ID           int64  `json:"id"`
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name,omitempty"`
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	Quantity     int64  `json:"quantity"`
	OrderDate    string `json:"order_date"`
	Total        int64  `json:"total"`
}

type ordersPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	Page       int64           `json:"page"`
	TotalPages int64           `json:"total_pages"`
	TotalItems int64           `json:"total_items"`
}

// placeOrder
//
//	@Summary		Оформление заказа
//	@Description	Проверяет остаток, списывает товар и создаёт запись заказа в одной транзакции
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		placeOrderRequest	true	"Товар и количество"
//	@Success		201		{object}	placeOrderResponse
//	@Failure		400		{object}	ErrorResponse	"Неположительное количество"
//	@Failure		403		{object}	ErrorResponse	"Нет привязанного покупателя"
//	@Failure		404		{object}	ErrorResponse	"Товар не найден"
//	@Failure		409		{object}	ErrorResponse	"Недостаточно товара, в ответе фактический остаток"
//	@Router			/orders [post]
func (o *OrderHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromCtx(r.Context())
	if !ok {
		WriteError(w, e.ErrUnauthorized)
		return
	}

	var req placeOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	var customerID int64
	if claims.CustomerID != nil {
		customerID = *claims.CustomerID
	}

	res, err := o.orderUsecase.PlaceOrder(r.Context(), usecase.NewPlaceOrderReq(customerID, req.ProductID, req.Quantity))
	if err != nil {
		o.logger.Warnf("place order failed: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, placeOrderResponse{OrderID: res.OrderID})
}

// myOrders
//
//	@Summary		История заказов покупателя
//	@Tags			orders
//	@Produce		json
//	@Security		BearerAuth
//	@Param			page	query		int	false	"Номер страницы"
//	@Param			limit	query		int	false	"Размер страницы"
//	@Success		200		{object}	ordersPageResponse
//	@Failure		403		{object}	ErrorResponse	"Нет привязанного покупателя"
//	@Router			/orders/my [get]
func (o *OrderHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromCtx(r.Context())
	if !ok {
		WriteError(w, e.ErrUnauthorized)
		return
	}

	var customerID int64
	if claims.CustomerID != nil {
		customerID = *claims.CustomerID
	}

	page, limit := parsePageQuery(r)
	res, err := o.orderUsecase.GetCustomerOrders(r.Context(), &usecase.CustomerOrdersReq{
		CustomerID: customerID,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		o.logger.Warnf("list customer orders failed: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrdersPageResponse(res))
}

// listOrders
//
//	@Summary		Все заказы (для персонала)
//	@Tags			orders
//	@Produce		json
//	@Security		BearerAuth
//	@Param			page	query		int	false	"Номер страницы"
//	@Param			limit	query		int	false	"Размер страницы"
//	@Success		200		{object}	ordersPageResponse
//	@Failure		403		{object}	ErrorResponse
//	@Router			/orders [get]
func (o *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePageQuery(r)
	res, err := o.orderUsecase.GetOrders(r.Context(), &usecase.OrdersPageReq{
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		o.logger.Warnf("list orders failed: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrdersPageResponse(res))
}

func toOrdersPageResponse(res *usecase.OrdersPageRes) ordersPageResponse {
	orders := make([]orderResponse, 0, len(res.Orders))
	for _, order := range res.Orders {
		orders = append(orders, orderResponse{
			ID:           order.ID,
			CustomerID:   order.CustomerID,
			CustomerName: order.CustomerName,
			ProductID:    order.ProductID,
			ProductName:  order.ProductName,
			Quantity:     order.Quantity,
			OrderDate:    order.OrderDate.Format(time.DateOnly),
			Total:        order.Total,
		})
	}

	return ordersPageResponse{
		Orders:     orders,
		Page:       res.Page,
		TotalPages: res.TotalPages,
		TotalItems: res.TotalItems,
	}
}
