package record

import (
	"encoding/json"
	"fmt"
)

// RecordFactory - фабрика для создания записей по имени коллекции
type RecordFactory struct{}

// NewRecordFactory создает новую фабрику
func NewRecordFactory() *RecordFactory {
	return &RecordFactory{}
}

// Create создает пустую запись для указанной коллекции
func (f *RecordFactory) Create(c Collection) (Record, error) {
	switch c {
	case Products:
		return &Product{}, nil
	case Movements:
		return &Movement{}, nil
	case Loans:
		return &Loan{}, nil
	case Schedules:
		return &Schedule{}, nil
	case Users:
		return &User{}, nil
	case Reservations:
		return &Reservation{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, string(c))
	}
}

// Parse разбирает запись из JSON без нормализации. Используется для уже
// сохраненных данных, которые прошли через Codec при записи.
func (f *RecordFactory) Parse(c Collection, data []byte) (Record, error) {
	rec, err := f.Create(c)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("failed to parse %s record: %w", c, err)
	}

	return rec, nil
}

// Clone возвращает независимую копию записи. Флаг выпущенного при
// нормализации идентификатора переносится в копию.
func (f *RecordFactory) Clone(rec Record) (Record, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to copy %s record: %w", rec.Collection(), err)
	}
	out, err := f.Parse(rec.Collection(), data)
	if err != nil {
		return nil, err
	}
	out.Common().minted = rec.Common().minted
	return out, nil
}

// ParseList разбирает массив записей коллекции.
func (f *RecordFactory) ParseList(c Collection, data []byte) ([]Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s list: %w", c, err)
	}

	out := make([]Record, 0, len(raw))
	for i, item := range raw {
		rec, err := f.Parse(c, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
