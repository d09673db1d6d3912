package domain

import "time"

// Product описывает товар каталога
type Product struct {
	ID        int64
	Name      string
	Price     int64 // Цена хранится в минорных единицах (копейках)
	Stock     int64 // Инвариант: остаток не бывает отрицательным
	Rating    float64
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func NewProduct(name string, price int64, stock int64, rating float64) *Product {
	return &Product{
		Name:   name,
		Price:  price,
		Stock:  stock,
		Rating: rating,
	}
}
