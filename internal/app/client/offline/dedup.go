package offline

import (
	"stockkeeper/internal/domain/record"
)

type keepPolicy int

const (
	// keepFirst оставляет первое вхождение ключа
	keepFirst keepPolicy = iota
	// keepMostRecent оставляет версию с самым поздним updatedAt (иначе createdAt)
	keepMostRecent
)

type strategy struct {
	identity string
	keep     keepPolicy
}

// dedupTable - правила идентичности коллекций. Ключ берется из record.Key().
var dedupTable = map[record.Collection]strategy{
	record.Reservations: {identity: "operator+equipment", keep: keepMostRecent},
	record.Products:     {identity: "sku", keep: keepFirst},
	record.Schedules:    {identity: "code", keep: keepFirst},
}

var defaultStrategy = strategy{identity: "id", keep: keepFirst}

func strategyFor(col record.Collection) strategy {
	if s, ok := dedupTable[col]; ok {
		return s
	}
	return defaultStrategy
}

// Dedupe убирает дубликаты по правилу коллекции. Порядок первого появления
// каждого ключа сохраняется.
func Dedupe(col record.Collection, items []record.Record) []record.Record {
	st := strategyFor(col)
	out := make([]record.Record, 0, len(items))
	position := make(map[string]int, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}
		key := item.Key()
		idx, seen := position[key]
		if !seen {
			position[key] = len(out)
			out = append(out, item)
			continue
		}
		if st.keep == keepMostRecent && !item.Recency().Before(out[idx].Recency()) {
			out[idx] = item
		}
	}
	return out
}

func indexByKey[T any](items []T, key func(T) string, want string) int {
	for i, item := range items {
		if key(item) == want {
			return i
		}
	}
	return -1
}

func entryKey(e QueueEntry) string {
	return e.Record.Key()
}

func recordKey(r record.Record) string {
	return r.Key()
}
