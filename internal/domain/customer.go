package domain

import "time"

// Customer описывает покупателя. Привязка к учётной записи (Username)
// опциональна и не более одной.
type Customer struct {
	ID        int64
	Name      string
	Address   *string
	Phone     *string
	Username  *string
	CreatedAt time.Time
}

func NewCustomer(name string, address, phone, username *string) *Customer {
	return &Customer{
		Name:     name,
		Address:  address,
		Phone:    phone,
		Username: username,
	}
}
