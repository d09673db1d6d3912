package usecase

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ORDER USECASE

// PlaceOrderReq — запрос на оформление заказа. CustomerID берётся из
// проверенного токена, никогда из тела запроса.
type PlaceOrderReq struct {
	CustomerID int64
	ProductID  int64
	Quantity   int64
}

// PlaceOrderRes — результат успешного оформления.
type PlaceOrderRes struct {
	OrderID int64
}

// PriceStock — снимок цены и остатка товара на момент чтения внутри транзакции.
type PriceStock struct {
	Price int64
	Stock int64
}

// CustomerOrdersReq — запрос истории заказов покупателя.
type CustomerOrdersReq struct {
	CustomerID int64
	Page       int64
	Limit      int64
}

// OrdersPageReq — постраничный запрос заказов для персонала.
type OrdersPageReq struct {
	Page  int64
	Limit int64
}

// OrderInfo — DTO заказа для внешнего использования.
type OrderInfo struct {
	ID           int64
	CustomerID   int64
	CustomerName string
	ProductID    int64
	ProductName  string
	Quantity     int64
	OrderDate    time.Time
	Total        int64
}

// OrdersPageRes — страница заказов.
type OrdersPageRes struct {
	Orders     []OrderInfo
	Page       int64
	TotalPages int64
	TotalItems int64
}

// PRODUCT USECASE

// CreateProductReq — запрос на добавление нового товара.
type CreateProductReq struct {
	Name   string
	Price  int64
	Stock  int64
	Rating float64
	Images []ProductImage
}

// UpdateProductReq — частичное обновление товара; nil-поля не изменяются.
// Изменение Stock — путь пополнения склада персоналом.
type UpdateProductReq struct {
	ID     int64
	Name   *string
	Price  *int64
	Stock  *int64
	Rating *float64
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte
	MimeType string
	Size     int64
	Name     string // оригинальное имя файла (для логов)
}

// ProductInfo — DTO с информацией о товаре для внешнего использования.
type ProductInfo struct {
	ID     int64
	Name   string
	Price  int64
	Stock  int64
	Rating float64
}

// ProductsPageReq — постраничный запрос каталога.
type ProductsPageReq struct {
	Page  int64
	Limit int64
}

// ProductsPageRes — страница каталога.
type ProductsPageRes struct {
	Products   []ProductInfo
	Page       int64
	TotalPages int64
	TotalItems int64
}

// UploadImagesReq — запрос на загрузку изображений товара.
type UploadImagesReq struct {
	Name   string
	Images []ProductImage
}

// UploadImagesRes — результат загрузки изображений (ключи в MinIO).
type UploadImagesRes struct {
	ImagesKeys []string
}

// AUTH USECASE

type RegisterReq struct {
	Username        string
	Password        string
	ConfirmPassword string
	Name            string
	Address         *string
	Phone           *string
}

type LoginReq struct {
	Username string
	Password string
}

type LoginRes struct {
	Token      string
	Username   string
	CustomerID *int64
	Role       string
}

// UserWithCustomer — учётная запись вместе с идентификатором привязанного
// покупателя (nil, если привязки нет).
type UserWithCustomer struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	CustomerID   *int64
}

// TokenClaims — полезная нагрузка JWT. CustomerID == nil для персонала
// без покупательской записи.
type TokenClaims struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	CustomerID *int64 `json:"customer_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	OrderPlaced OutboxEventType = "order.placed"
)

// OutboxEvent — событие, записанное в одной транзакции с заказом и
// доставляемое в Kafka воркером.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	OrderID     int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// OrderPlacedPayload — JSON-содержимое события order.placed.
type OrderPlacedPayload struct {
	EventID    string `json:"event_id"`
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	ProductID  int64  `json:"product_id"`
	Quantity   int64  `json:"quantity"`
	Total      int64  `json:"total"`
	OrderDate  string `json:"order_date"`
}

// INFRASTRUCTURE

type WriteRawMessageReq struct {
	OrderID int64
	Payload []byte
}

// MAPPERS

func NewPlaceOrderReq(customerID, productID, quantity int64) *PlaceOrderReq {
	return &PlaceOrderReq{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	}
}

func NewPlaceOrderRes(orderID int64) *PlaceOrderRes {
	return &PlaceOrderRes{OrderID: orderID}
}

func NewPriceStock(price, stock int64) *PriceStock {
	return &PriceStock{Price: price, Stock: stock}
}

func NewOrdersPageRes(orders []OrderInfo, page, totalPages, totalItems int64) *OrdersPageRes {
	return &OrdersPageRes{
		Orders:     orders,
		Page:       page,
		TotalPages: totalPages,
		TotalItems: totalItems,
	}
}

func NewProductsPageRes(products []ProductInfo, page, totalPages, totalItems int64) *ProductsPageRes {
	return &ProductsPageRes{
		Products:   products,
		Page:       page,
		TotalPages: totalPages,
		TotalItems: totalItems,
	}
}

func NewProductInfo(id int64, name string, price, stock int64, rating float64) ProductInfo {
	return ProductInfo{
		ID:     id,
		Name:   name,
		Price:  price,
		Stock:  stock,
		Rating: rating,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImagesReq(name string, images []ProductImage) *UploadImagesReq {
	return &UploadImagesReq{
		Name:   name,
		Images: images,
	}
}

func NewUploadImagesRes(imagesKeys []string) *UploadImagesRes {
	return &UploadImagesRes{ImagesKeys: imagesKeys}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, orderID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		OrderID:   orderID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now(),
	}
}

func NewWriteRawMessageReq(orderID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		OrderID: orderID,
		Payload: payload,
	}
}
