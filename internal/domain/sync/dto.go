package sync

// PushRequest - пакет записей одной коллекции
type PushRequest struct {
	Items []map[string]any `json:"items" doc:"Records of one collection in client order"`
}

// Rejection - запись, которую сервер не принял
type Rejection struct {
	Index int    `json:"index" doc:"Position of the item in the request"`
	Key   string `json:"key,omitempty" doc:"Deduplication key of the item, when it could be decoded"`
	Error string `json:"error"`
}

// PushResponse - результат приема пакета
type PushResponse struct {
	Status   string      `json:"status"`
	Error    string      `json:"error,omitempty"`
	Accepted int         `json:"accepted"`
	Rejected []Rejection `json:"rejected,omitempty"`
}

// StatusResponse - число документов по коллекциям
type StatusResponse struct {
	Status      string           `json:"status"`
	Error       string           `json:"error,omitempty"`
	Collections map[string]int64 `json:"collections,omitempty"`
	Total       int64            `json:"total"`
}

// DocumentsResponse - страница документов коллекции
type DocumentsResponse struct {
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Collection string     `json:"collection,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
	Documents  []Document `json:"documents"`
}

// DocumentResponse - один документ
type DocumentResponse struct {
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Document *Document `json:"document,omitempty"`
}
