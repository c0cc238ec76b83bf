package record

import (
	"time"
)

// Schedule - плановая инвентаризация с перечнем пересчитываемых позиций.
// Идентичность - код.
type Schedule struct {
	Base
	Code        string        `json:"code" validate:"required"`
	Title       string        `json:"title,omitempty"`
	Status      string        `json:"status,omitempty" validate:"omitempty,oneof=planned in_progress completed cancelled"`
	ScheduledAt *time.Time    `json:"scheduledAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Items       []CountedItem `json:"items,omitempty" validate:"dive"`
}

// CountedItem - позиция инвентаризации, заполняемая по мере пересчета
type CountedItem struct {
	SKU         string       `json:"sku" validate:"required"`
	Expected    int          `json:"expected"`
	Counted     *int         `json:"counted,omitempty"`
	CountedAt   *time.Time   `json:"countedAt,omitempty"`
	Validations []Validation `json:"validations,omitempty" validate:"dive"`
}

// Validation - подтверждение пересчета позиции
type Validation struct {
	By          string     `json:"by"`
	Status      string     `json:"status"`
	ValidatedAt *time.Time `json:"validatedAt,omitempty"`
}

func (s *Schedule) Collection() Collection {
	return Schedules
}

func (s *Schedule) Key() string {
	return keyOr(s.Code, s.ID)
}

// MergeWith сохраняет уже введенный прогресс пересчета: если новая версия пришла
// без позиций, позиции берутся из предыдущей; если позиция пришла без подтверждений
// или без результата пересчета, они берутся из предыдущей позиции с тем же SKU.
func (s *Schedule) MergeWith(previous Record) Record {
	prev, ok := previous.(*Schedule)
	if !ok || prev == nil {
		return s
	}
	s.mergeBase(&prev.Base)

	if len(s.Items) == 0 {
		s.Items = append([]CountedItem(nil), prev.Items...)
		return s
	}

	bySKU := make(map[string]CountedItem, len(prev.Items))
	for _, item := range prev.Items {
		bySKU[item.SKU] = item
	}
	for i := range s.Items {
		old, found := bySKU[s.Items[i].SKU]
		if !found {
			continue
		}
		if s.Items[i].Counted == nil && old.Counted != nil {
			s.Items[i].Counted = old.Counted
			s.Items[i].CountedAt = old.CountedAt
		}
		if len(s.Items[i].Validations) == 0 {
			s.Items[i].Validations = append([]Validation(nil), old.Validations...)
		}
	}
	return s
}

// Progress возвращает число пересчитанных позиций и общее число позиций.
func (s *Schedule) Progress() (counted, total int) {
	for _, item := range s.Items {
		if item.Counted != nil {
			counted++
		}
	}
	return counted, len(s.Items)
}
