package domain

import "time"

// Order описывает заказ. Запись создаётся ровно один раз воркфлоу оформления
// и далее не изменяется и не удаляется.
type Order struct {
	ID         int64
	CustomerID int64
	ProductID  int64
	Quantity   int64
	OrderDate  time.Time // гранулярность — день, без времени суток
	Total      int64     // минорные единицы, = цена на момент заказа * количество
}

func NewOrder(id, customerID, productID, quantity int64, orderDate time.Time, total int64) *Order {
	return &Order{
		ID:         id,
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
		OrderDate:  orderDate,
		Total:      total,
	}
}
