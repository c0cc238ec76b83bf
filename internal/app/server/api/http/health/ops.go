package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Remote store availability",
		Description: "Polled by client agents. A device treats the store as online only while status is OK",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
