package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// MaxPushBodyBytes вмещает пакет из MaxPushItems записей с вложенными позициями
const MaxPushBodyBytes = 16 << 20

func (h *Handler) pushOp() huma.Operation {
	return huma.Operation{
		OperationID:  "sync-push",
		Method:       http.MethodPost,
		Path:         "/api/v1/collections/{collection}/push",
		Summary:      "Push queued records of one collection",
		Description:  "Validates every item and upserts the valid ones by deduplication key in one transaction",
		Tags:         []string{"sync"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: MaxPushBodyBytes,
		Middlewares:  h.middleware,
	}
}

func (h *Handler) statusOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/status",
		Summary:     "Document counts per collection",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
