package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"stockkeeper/internal/utils/logger"
)

const (
	statusOK       = "OK"
	statusDegraded = "DEGRADED"

	pingTimeout = 2 * time.Second
)

// Pinger проверяет хранилище документов. *pgxpool.Pool подходит как есть.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	db         Pinger
	log        *slog.Logger
	middleware huma.Middlewares
	now        func() time.Time
}

// NewHandler создает обработчик. С nil db проверяется только сам процесс.
func NewHandler(db Pinger, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		db:         db,
		log:        log,
		middleware: middleware,
		now:        time.Now,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	status := statusOK
	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := h.db.Ping(pingCtx); err != nil {
			h.log.Warn("document store unavailable", logger.Err(err))
			status = statusDegraded
		}
	}

	return &Output{
		Body: Response{
			Status:     status,
			ServerTime: h.now().UnixMilli(),
		},
	}, nil
}
