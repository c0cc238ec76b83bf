package record

import (
	"strings"

	"github.com/google/uuid"
)

// Origin показывает, где была выпущена идентичность записи
type Origin string

const (
	LocalOrigin  Origin = "local"
	RemoteOrigin Origin = "remote"
)

// LocalIDPrefix - префикс идентификаторов, выпущенных на устройстве
const LocalIDPrefix = "local_"

// Identity - идентификатор записи вместе с тегом происхождения
type Identity struct {
	ID     string
	Origin Origin
}

// NewLocalIdentity выпускает новый локальный идентификатор.
func NewLocalIdentity() Identity {
	return Identity{
		ID:     LocalIDPrefix + uuid.NewString(),
		Origin: LocalOrigin,
	}
}

// IsLocal сообщает, выпущена ли идентичность на устройстве.
func (i Identity) IsLocal() bool {
	return i.Origin == LocalOrigin
}

// ClassifyID выводит происхождение по форме идентификатора. Используется один раз,
// когда запись приходит без тега происхождения.
func ClassifyID(id string) Origin {
	if strings.HasPrefix(id, LocalIDPrefix) || isDigits(id) {
		return LocalOrigin
	}
	return RemoteOrigin
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
