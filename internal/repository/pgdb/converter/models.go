package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	Price     int64      `db:"price"`
	Stock     int64      `db:"stock"`
	Rating    float64    `db:"rating"`
	ImageKeys []string   `db:"image_keys"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
}

// CustomerModel представляет запись таблицы customers в PostgreSQL.
type CustomerModel struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Address   *string   `db:"address"`
	Phone     *string   `db:"phone"`
	Username  *string   `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}

// UserModel представляет запись таблицы users в PostgreSQL.
type UserModel struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// OrderModel представляет запись таблицы orders в PostgreSQL.
type OrderModel struct {
	ID         int64     `db:"id"`
	CustomerID int64     `db:"customer_id"`
	ProductID  int64     `db:"product_id"`
	Quantity   int64     `db:"quantity"`
	OrderDate  time.Time `db:"order_date"`
	Total      int64     `db:"total"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	OrderID     int64      `db:"order_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
