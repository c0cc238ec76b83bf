package record

import (
	"time"
)

const (
	MovementIn     = "in"
	MovementOut    = "out"
	MovementAdjust = "adjust"
)

// Movement - приход, расход или корректировка остатка товара
type Movement struct {
	Base
	ProductSKU string    `json:"productSku" validate:"required"`
	Kind       string    `json:"kind" validate:"oneof=in out adjust"`
	Quantity   int       `json:"quantity" validate:"gt=0"`
	Reason     string    `json:"reason,omitempty"`
	Date       time.Time `json:"date"`
}

func (m *Movement) Collection() Collection {
	return Movements
}

func (m *Movement) Key() string {
	return m.ID
}

func (m *Movement) MergeWith(previous Record) Record {
	if prev, ok := previous.(*Movement); ok && prev != nil {
		m.mergeBase(&prev.Base)
	}
	return m
}
