package device

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"stockkeeper/internal/domain/session"
	"stockkeeper/internal/utils/logger"
)

type Handler struct {
	service    session.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service session.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	deviceID, token, err := h.service.Register(ctx, input.Body)
	if err != nil {
		h.log.Warn("device registration failed", slog.String("name", input.Body.Name), logger.Err(err))
		return &registerOutput{
			Body: session.RegisterResponse{Status: "Error", Error: err.Error()},
		}, nil
	}

	return &registerOutput{
		Body: session.RegisterResponse{Status: "OK", DeviceID: deviceID, Token: token},
	}, nil
}
