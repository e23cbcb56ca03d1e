package webhook

import (
	"context"
	"errors"
	"net/http"

	"callops_backend/internal/calls/domain"
	"callops_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// SignalProcessor applies a normalized platform signal to the call it
// belongs to. Implemented by the calls lifecycle service.
type SignalProcessor interface {
	ProcessSignal(ctx context.Context, externalCallID string, signal domain.PlatformSignal) error
}

// Handler handles voice platform webhook HTTP requests.
type Handler struct {
	processor SignalProcessor
	log       *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(processor SignalProcessor, log *logger.Logger) *Handler {
	return &Handler{processor: processor, log: log}
}

// HandleVoiceEvent processes one platform event.
// POST /api/v1/webhooks/voice
// Authenticated via HMAC signature (checked by middleware).
//
// Unknown event kinds and events for calls we never placed are acknowledged
// with 200 so the platform does not retry them; only malformed payloads (400)
// and persistence failures (500, retryable upstream) are reported as errors.
func (h *Handler) HandleVoiceEvent(c *gin.Context) {
	body := rawBody(c)
	if body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}

	externalID, signal, err := Normalize(body)
	switch {
	case errors.Is(err, ErrMalformed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload", "details": err.Error()})
		return
	case errors.Is(err, ErrMissingCallID):
		h.log.WebhookDropped("missing call id", "")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	case errors.Is(err, ErrUnhandled):
		h.log.WebhookDropped(err.Error(), externalID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	if err := h.processor.ProcessSignal(c.Request.Context(), externalID, signal); err != nil {
		h.log.Error("webhook processing failed", "external_call_id", externalID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
