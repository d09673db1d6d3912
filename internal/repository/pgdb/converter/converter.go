//go:generate goverter gen github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter
package converter

import (
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
// goverter:converter
// goverter:extend ConvertTime
// goverter:extend ConvertPointerTime
// goverter:ignore ImageKeys
type ProductConverter interface {
	// goverter:ignore ImageKeys
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
}

// CustomerConverter преобразует сущности Customer между domain и моделью PostgreSQL.
// goverter:converter
// goverter:extend ConvertTime
type CustomerConverter interface {
	ToModel(entity *domain.Customer) *CustomerModel
	ToEntity(model *CustomerModel) *domain.Customer
}

// UserConverter преобразует сущности User между domain и моделью PostgreSQL.
// goverter:converter
// goverter:extend ConvertTime
type UserConverter interface {
	ToModel(entity *domain.User) *UserModel
	ToEntity(model *UserModel) *domain.User
}

// OrderConverter преобразует сущности Order между domain и моделью PostgreSQL.
// goverter:converter
// goverter:extend ConvertTime
type OrderConverter interface {
	ToModel(entity *domain.Order) *OrderModel
	ToEntity(model *OrderModel) *domain.Order
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
// goverter:converter
// goverter:extend ConvertTime
// goverter:extend ConvertPointerTime
// goverter:extend ConvertOutboxStatus
// goverter:extend ConvertOutboxEventType
// goverter:extend ConvertOutboxStatusString
// goverter:extend ConvertOutboxEventTypeString
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

func ConvertPointerTime(t *time.Time) *time.Time {
	return t
}

func ConvertTime(t time.Time) time.Time {
	return t
}

func ConvertOutboxStatus(s string) usecase.OutboxStatus {
	return usecase.OutboxStatus(s)
}

func ConvertOutboxEventType(t string) usecase.OutboxEventType {
	return usecase.OutboxEventType(t)
}

func ConvertOutboxStatusString(s usecase.OutboxStatus) string {
	return string(s)
}

func ConvertOutboxEventTypeString(t usecase.OutboxEventType) string {
	return string(t)
}
