package shopping

import "bytes"

// Line is one ingredient entry of one recipe sitting in a user's cart.
type Line struct {
	Name   string `db:"name"`
	Unit   string `db:"measurement_unit"`
	Amount int64  `db:"amount"`
}

// Key identifies an aggregation bucket. Ingredients merge only when both the
// name and the measurement unit match.
type Key struct {
	Name string
	Unit string
}

// Item is the total amount of one ingredient across the whole cart.
type Item struct {
	Name   string `json:"name"`
	Unit   string `json:"measurement_unit"`
	Amount int64  `json:"amount"`
}

// Key returns the bucket the item belongs to.
func (i Item) Key() Key {
	return Key{Name: i.Name, Unit: i.Unit}
}

// Document is a rendered shopping list ready to be sent as an attachment.
type Document struct {
	Filename string
	Content  *bytes.Reader
	Pages    int
	Items    int
}
