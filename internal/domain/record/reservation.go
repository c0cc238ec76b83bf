package record

import (
	"time"
)

// Reservation - текущий статус пары оператор/оборудование.
// Идентичность составная, при дублях побеждает самая свежая версия.
type Reservation struct {
	Base
	Operator  string     `json:"operator" validate:"required"`
	Equipment string     `json:"equipment" validate:"required"`
	Status    string     `json:"status,omitempty" validate:"omitempty,oneof=reserved in_use released cancelled"`
	StartAt   *time.Time `json:"startAt,omitempty"`
	EndAt     *time.Time `json:"endAt,omitempty"`
}

func (r *Reservation) Collection() Collection {
	return Reservations
}

func (r *Reservation) Key() string {
	if r.Operator == "" && r.Equipment == "" {
		return r.ID
	}
	return r.Operator + "|" + r.Equipment
}

func (r *Reservation) MergeWith(previous Record) Record {
	if prev, ok := previous.(*Reservation); ok && prev != nil {
		r.mergeBase(&prev.Base)
	}
	return r
}
