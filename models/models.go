package models

// All returns every model in migration order.
func All() []any {
	return []any{
		&User{},
		&Address{},
		&Category{},
		&Product{},
		&ProductImage{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Banner{},
	}
}
