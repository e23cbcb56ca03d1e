// Package webhook provides the voice platform webhook ingestion module:
// signature verification, envelope normalization and dispatch into the call
// lifecycle service.
package webhook

import (
	apphttp "callops_backend/internal/http"
	"callops_backend/platform/config"
	"callops_backend/platform/logger"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	cfg     config.WebhookConfig
	log     *logger.Logger
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(processor SignalProcessor, cfg config.WebhookConfig, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(processor, log),
		cfg:     cfg,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public webhook endpoint (HMAC signature auth, no JWT)
	webhookGroup := ctx.V1.Group("/webhooks")
	webhookGroup.Use(SignatureMiddleware(m.cfg, m.log))
	webhookGroup.POST("/voice", m.handler.HandleVoiceEvent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
