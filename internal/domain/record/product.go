package record

import (
	"github.com/shopspring/decimal"
)

// Product - товар на складе. Идентичность - SKU.
type Product struct {
	Base
	SKU      string          `json:"sku" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Category string          `json:"category,omitempty"`
	Unit     string          `json:"unit,omitempty"`
	Stock    int             `json:"stock"`
	MinStock int             `json:"minStock" validate:"gte=0"`
	Price    decimal.Decimal `json:"price"`
}

func (p *Product) Collection() Collection {
	return Products
}

func (p *Product) Key() string {
	return keyOr(p.SKU, p.ID)
}

func (p *Product) MergeWith(previous Record) Record {
	if prev, ok := previous.(*Product); ok && prev != nil {
		p.mergeBase(&prev.Base)
	}
	return p
}

// BelowMinimum сообщает, что остаток опустился ниже минимального.
func (p *Product) BelowMinimum() bool {
	return p.MinStock > 0 && p.Stock < p.MinStock
}
