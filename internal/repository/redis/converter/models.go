package converter

type ProductInfoRedisModel struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Price  int64   `json:"price"`
	Stock  int64   `json:"stock"`
	Rating float64 `json:"rating"`
}
