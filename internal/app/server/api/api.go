// Package api собирает HTTP API эталонного удаленного хранилища:
//
//	GET  /api/v1/health                           # проверка доступности (публичный)
//	POST /api/v1/devices                          # регистрация устройства (публичный)
//	POST /api/v1/collections/{collection}/push    # прием очереди коллекции (bearer)
//	GET  /api/v1/sync/status                      # число документов по коллекциям (bearer)
//	GET  /api/v1/collections/{collection}/documents        # страница документов (bearer)
//	GET  /api/v1/collections/{collection}/documents/{key}  # документ по ключу (bearer)
package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	deviceAPI "stockkeeper/internal/app/server/api/http/device"
	documentAPI "stockkeeper/internal/app/server/api/http/document"
	healthAPI "stockkeeper/internal/app/server/api/http/health"
	"stockkeeper/internal/app/server/api/http/middleware"
	"stockkeeper/internal/app/server/api/http/middleware/auth"
	"stockkeeper/internal/app/server/api/http/middleware/logger"
	syncAPI "stockkeeper/internal/app/server/api/http/sync"
	"stockkeeper/internal/domain/session"
	"stockkeeper/internal/domain/sync"
)

type Handlers struct {
	Health    *healthAPI.Handler
	Device    *deviceAPI.Handler
	Sync      *syncAPI.Handler
	Documents *documentAPI.Handler
}

// Services - доменные сервисы, которые обслуживает API
type Services struct {
	Session   session.Servicer
	Sync      sync.Servicer
	Documents sync.DocumentServicer
	// DB проверяется в /health, может быть nil
	DB healthAPI.Pinger
}

// New создает *chi.Mux со всеми операциями, зарегистрированными через huma.Register
func New(services Services, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("Stockkeeper Remote Store API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, config)

	h := handlers(services, log)
	h.Health.SetupRoutes(API)
	h.Device.SetupRoutes(API)
	h.Sync.SetupRoutes(API)
	h.Documents.SetupRoutes(API)

	return mux
}

func handlers(services Services, log *slog.Logger) *Handlers {
	authMW := auth.New(services.Session, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(services.DB, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	deviceHandler := deviceAPI.NewHandler(services.Session, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	syncHandler := syncAPI.NewHandler(services.Sync, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	documentHandler := documentAPI.NewHandler(services.Documents, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:    healthHandler,
		Device:    deviceHandler,
		Sync:      syncHandler,
		Documents: documentHandler,
	}
}
