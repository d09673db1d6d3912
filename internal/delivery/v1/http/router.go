package http

import (
	_ "github.com/DRSN-tech/storefront-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(orderUC usecase.OrderUC, productUC usecase.ProductUC, authUC usecase.AuthUC, authMW *AuthMiddleware) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerAuthRoutes(v1, NewAuthHandler(authUC, r.logger), authMW)
		registerProductRoutes(v1, NewProductHandler(productUC, r.logger), authMW)
		registerOrderRoutes(v1, NewOrderHandler(orderUC, r.logger), authMW)
	})
}

func registerAuthRoutes(router chi.Router, handler *AuthHandler, authMW *AuthMiddleware) {
	router.Route("/auth", func(auth chi.Router) {
		auth.Post("/register", handler.register)
		auth.Post("/login", handler.login)
		auth.With(authMW.Authenticate).Get("/me", handler.me)
	})
}

func registerProductRoutes(router chi.Router, handler *ProductHandler, authMW *AuthMiddleware) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", handler.listProducts)
		pr.Get("/{id}", handler.getProduct)

		// Управление каталогом доступно только персоналу
		pr.Group(func(staff chi.Router) {
			staff.Use(authMW.Authenticate, authMW.RequireRole(domain.RoleEmployee, domain.RoleAdmin))
			staff.Post("/", handler.createProduct)
			staff.Put("/{id}", handler.updateProduct)
			staff.Delete("/{id}", handler.deleteProduct)
		})
	})
}

func registerOrderRoutes(router chi.Router, handler *OrderHandler, authMW *AuthMiddleware) {
	router.Route("/orders", func(ord chi.Router) {
		ord.Use(authMW.Authenticate)
		ord.Post("/", handler.placeOrder)
		ord.Get("/my", handler.myOrders)
		ord.With(authMW.RequireRole(domain.RoleEmployee, domain.RoleAdmin)).Get("/", handler.listOrders)
	})
}
