package core

import "time"

// Order 是一条不可变的订单记录，由外部系统产出。
type Order struct {
	OrderID    string    `json:"order_id"`
	CustomerID int64     `json:"customer_id"`
	ProductID  int64     `json:"product_id"`
	Quantity   int       `json:"quantity"`
	OrderDate  time.Time `json:"order_date"`
}

// Product 是商品展示元数据，加载后不可变。
// Rating 取值范围 [1, 5]，是排序的首要信号。
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}
