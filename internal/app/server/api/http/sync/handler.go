package sync

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"stockkeeper/internal/app/server/api/http/middleware/auth"
	"stockkeeper/internal/domain/record"
	"stockkeeper/internal/domain/session"
	"stockkeeper/internal/domain/sync"
	"stockkeeper/internal/utils/logger"
)

type Handler struct {
	service    sync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pushOp(), h.push)
	huma.Register(api, h.statusOp(), h.status)
}

func (h *Handler) push(ctx context.Context, input *pushInput) (*pushOutput, error) {
	deviceID, ok := auth.GetDeviceID(ctx)
	if !ok {
		return &pushOutput{Body: sync.PushResponse{Status: "Error", Error: session.ErrUnauthorized.Error()}}, nil
	}

	col, err := record.ParseCollection(input.Collection)
	if err != nil {
		return &pushOutput{Body: sync.PushResponse{Status: "Error", Error: err.Error()}}, nil
	}

	resp, err := h.service.Push(ctx, deviceID, col, input.Body.Items)
	if err != nil {
		h.log.Error("push failed",
			slog.String("device_id", deviceID),
			slog.String("collection", col.String()),
			logger.Err(err),
		)
		return &pushOutput{Body: sync.PushResponse{Status: "Error", Error: err.Error()}}, nil
	}
	return &pushOutput{Body: *resp}, nil
}

func (h *Handler) status(ctx context.Context, _ *statusInput) (*statusOutput, error) {
	resp, err := h.service.Status(ctx)
	if err != nil {
		h.log.Error("status failed", logger.Err(err))
		return &statusOutput{Body: sync.StatusResponse{Status: "Error", Error: err.Error()}}, nil
	}
	return &statusOutput{Body: *resp}, nil
}
