package sync

import (
	"encoding/json"
	"time"

	"stockkeeper/internal/domain/record"
)

// Document - запись коллекции в удаленном хранилище. Ключ документа совпадает
// с ключом дедупликации записи, поэтому повторная отправка перезаписывает документ.
type Document struct {
	Collection record.Collection `json:"collection"`
	Key        string            `json:"key"`
	RecordID   string            `json:"recordId"`
	Origin     record.Origin     `json:"origin"`
	Data       json.RawMessage   `json:"data"`
	DeviceID   string            `json:"deviceId"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}
