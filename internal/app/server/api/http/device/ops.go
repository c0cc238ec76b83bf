package device

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) registerOp() huma.Operation {
	return huma.Operation{
		OperationID: "device-register",
		Method:      http.MethodPost,
		Path:        "/api/v1/devices",
		Summary:     "Register a device",
		Description: "Registers a client device with the shared registration secret and issues its bearer token",
		Tags:        []string{"device"},
		Middlewares: h.middleware,
	}
}
