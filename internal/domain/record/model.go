package record

import (
	"time"
)

// Record - доменная запись одной из коллекций
type Record interface {
	// Collection возвращает коллекцию, к которой относится запись
	Collection() Collection
	// Identity возвращает идентификатор с тегом происхождения
	Identity() Identity
	// Key возвращает ключ дедупликации внутри коллекции
	Key() string
	// Recency возвращает момент последнего изменения (updatedAt, иначе createdAt)
	Recency() time.Time
	// MergeWith объединяет запись с предыдущей версией той же идентичности.
	// Поля новой записи побеждают.
	MergeWith(previous Record) Record
	// Common дает доступ к общим полям
	Common() *Base
}

// Base - общие поля всех записей
type Base struct {
	ID        string     `json:"id"`
	Origin    Origin     `json:"origin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	SyncedAt  *time.Time `json:"syncedAt,omitempty"`

	// minted - идентификатор выпущен при нормализации, а не пришел во входных данных
	minted bool
}

func (b *Base) Common() *Base {
	return b
}

func (b *Base) Identity() Identity {
	return Identity{ID: b.ID, Origin: b.Origin}
}

func (b *Base) Recency() time.Time {
	if !b.UpdatedAt.IsZero() {
		return b.UpdatedAt
	}
	return b.CreatedAt
}

// IsUnsyncedLocal сообщает, что запись выпущена локально и еще не подтверждена сервером.
func (b *Base) IsUnsyncedLocal() bool {
	return b.Origin == LocalOrigin && b.SyncedAt == nil
}

// mergeBase переносит из предыдущей версии то, что не должно теряться при обновлении.
func (b *Base) mergeBase(previous *Base) {
	if previous == nil {
		return
	}
	if previous.ID != "" && (b.ID == "" || b.minted) {
		b.ID = previous.ID
		b.Origin = previous.Origin
		b.minted = false
	}
	switch {
	case previous.Origin == LocalOrigin:
		b.Origin = LocalOrigin
	case b.Origin == "":
		b.Origin = previous.Origin
	}
	if b.CreatedAt.IsZero() || (!previous.CreatedAt.IsZero() && previous.CreatedAt.Before(b.CreatedAt)) {
		b.CreatedAt = previous.CreatedAt
	}
}

// ensureIdentity выставляет идентификатор и происхождение, если их нет.
func (b *Base) ensureIdentity() {
	if b.ID == "" {
		id := NewLocalIdentity()
		b.ID = id.ID
		b.Origin = id.Origin
		b.minted = true
		return
	}
	if b.Origin == "" {
		b.Origin = ClassifyID(b.ID)
	}
}

// keyOr возвращает натуральный ключ, а при его отсутствии - идентификатор.
func keyOr(natural, id string) string {
	if natural != "" {
		return natural
	}
	return id
}
