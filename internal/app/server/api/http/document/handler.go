package document

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"stockkeeper/internal/domain/record"
	"stockkeeper/internal/domain/sync"
	"stockkeeper/internal/utils/logger"
)

type Handler struct {
	service    sync.DocumentServicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.DocumentServicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.findOp(), h.find)
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	col, err := record.ParseCollection(input.Collection)
	if err != nil {
		return &listOutput{Body: sync.DocumentsResponse{Status: "Error", Error: err.Error()}}, nil
	}

	resp, err := h.service.ListDocuments(ctx, col, input.Limit, input.Offset)
	if err != nil {
		if !errors.Is(err, sync.ErrInvalidPagination) {
			h.log.Error("list documents failed", slog.String("collection", col.String()), logger.Err(err))
		}
		return &listOutput{Body: sync.DocumentsResponse{Status: "Error", Error: err.Error()}}, nil
	}
	return &listOutput{Body: *resp}, nil
}

func (h *Handler) find(ctx context.Context, input *findInput) (*findOutput, error) {
	col, err := record.ParseCollection(input.Collection)
	if err != nil {
		return &findOutput{Body: sync.DocumentResponse{Status: "Error", Error: err.Error()}}, nil
	}

	resp, err := h.service.GetDocument(ctx, col, input.Key)
	if err != nil {
		if !errors.Is(err, sync.ErrDocumentNotFound) {
			h.log.Error("get document failed", slog.String("collection", col.String()), logger.Err(err))
		}
		return &findOutput{Body: sync.DocumentResponse{Status: "Error", Error: err.Error()}}, nil
	}
	return &findOutput{Body: *resp}, nil
}
