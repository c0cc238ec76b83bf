package record

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
)

// Collection - имя одной из фиксированных коллекций снимка
type Collection string

const (
	Products     Collection = "products"
	Movements    Collection = "movements"
	Loans        Collection = "loans"
	Schedules    Collection = "schedules"
	Users        Collection = "users"
	Reservations Collection = "reservations"
)

// Collections возвращает все коллекции в порядке синхронизации.
func Collections() []Collection {
	return []Collection{Products, Movements, Loans, Schedules, Users, Reservations}
}

// ParseCollection разбирает имя коллекции.
func ParseCollection(name string) (Collection, error) {
	c := Collection(name)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (Collection) Schema(_ huma.Registry) *huma.Schema {
	enum := make([]any, 0, len(Collections()))
	for _, c := range Collections() {
		enum = append(enum, string(c))
	}
	return &huma.Schema{
		Type:        "string",
		Enum:        enum,
		Description: "Имя коллекции",
		Examples:    []any{Products},
	}
}

// Validate проверяет, что коллекция входит в фиксированный набор.
func (c Collection) Validate() error {
	switch c {
	case Products, Movements, Loans, Schedules, Users, Reservations:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCollection, string(c))
}

func (c Collection) String() string {
	return string(c)
}

// DisplayName возвращает человекочитаемое название коллекции.
func (c Collection) DisplayName() string {
	switch c {
	case Products:
		return "Товары"
	case Movements:
		return "Движения"
	case Loans:
		return "Выдачи"
	case Schedules:
		return "Инвентаризации"
	case Users:
		return "Пользователи"
	case Reservations:
		return "Бронирования"
	default:
		return "Неизвестная коллекция"
	}
}
