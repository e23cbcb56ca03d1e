// Package calls provides the call lifecycle bounded context module.
// This file defines the module that encapsulates all calls setup and route registration.
package calls

import (
	"callops_backend/internal/calls/classify"
	"callops_backend/internal/calls/handler"
	"callops_backend/internal/calls/repository"
	"callops_backend/internal/calls/service"
	"callops_backend/internal/events"
	apphttp "callops_backend/internal/http"
	"callops_backend/platform/logger"
	"callops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the calls module with all its dependencies.
// placer may be nil when outbound dialing is disabled; records then stay
// PENDING until an operator intervenes.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, placer service.Placer, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, classify.NewKeywordClassifier(), placer, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

// Service returns the lifecycle service for other modules (webhook ingestion,
// the scheduler's sweeps).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts calls routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All calls routes require authentication
	callsGroup := ctx.Protected.Group("/calls")
	m.handler.RegisterRoutes(callsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
