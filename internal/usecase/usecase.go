package usecase

import "context"

type OrderUC interface {
	PlaceOrder(ctx context.Context, req *PlaceOrderReq) (*PlaceOrderRes, error)
	GetCustomerOrders(ctx context.Context, req *CustomerOrdersReq) (*OrdersPageRes, error)
	GetOrders(ctx context.Context, req *OrdersPageReq) (*OrdersPageRes, error)
}

type ProductUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*ProductInfo, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*ProductInfo, error)
	DeleteProduct(ctx context.Context, productID int64) error
	GetProduct(ctx context.Context, productID int64) (*ProductInfo, error)
	GetProducts(ctx context.Context, req *ProductsPageReq) (*ProductsPageRes, error)
}

type AuthUC interface {
	Register(ctx context.Context, req *RegisterReq) error
	Login(ctx context.Context, req *LoginReq) (*LoginRes, error)
}
