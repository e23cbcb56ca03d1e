package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"callops_backend/internal/calls/domain"
	"callops_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"message":{"type":"status-update"}}`)
	valid := ComputeSignature(secret, body)

	if !VerifySignature(secret, body, valid) {
		t.Error("valid signature rejected")
	}
	if VerifySignature(secret, body, ComputeSignature("other", body)) {
		t.Error("signature under wrong secret accepted")
	}
	if VerifySignature(secret, append(body, ' '), valid) {
		t.Error("signature over different body accepted")
	}
	if VerifySignature(secret, body, "not-hex") {
		t.Error("non-hex signature accepted")
	}
	if VerifySignature(secret, body, "") {
		t.Error("empty signature accepted")
	}
}

type staticSecret string

func (s staticSecret) GetWebhookSecret() string { return string(s) }

type countingProcessor struct {
	calls int
}

func (p *countingProcessor) ProcessSignal(context.Context, string, domain.PlatformSignal) error {
	p.calls++
	return nil
}

func newTestRouter(secret string, processor SignalProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("development")
	engine := gin.New()
	group := engine.Group("/api/v1/webhooks")
	group.Use(SignatureMiddleware(staticSecret(secret), log))
	group.POST("/voice", NewHandler(processor, log).HandleVoiceEvent)
	return engine
}

func postWebhook(engine *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/voice", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestTamperedSignatureRejectedWithoutProcessing(t *testing.T) {
	processor := &countingProcessor{}
	engine := newTestRouter("whsec_test", processor)
	body := []byte(`{"message":{"type":"status-update","status":"ended","call":{"id":"call-1"}}}`)

	rec := postWebhook(engine, body, ComputeSignature("wrong-secret", body))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if processor.calls != 0 {
		t.Error("tampered request must never reach the processor")
	}

	// Missing header entirely.
	rec = postWebhook(engine, body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestValidSignatureProcessed(t *testing.T) {
	processor := &countingProcessor{}
	engine := newTestRouter("whsec_test", processor)
	body := []byte(`{"message":{"type":"status-update","status":"in-progress","call":{"id":"call-1"}}}`)

	rec := postWebhook(engine, body, ComputeSignature("whsec_test", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if processor.calls != 1 {
		t.Errorf("processor calls = %d, want 1", processor.calls)
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	processor := &countingProcessor{}
	engine := newTestRouter("whsec_test", processor)
	body := []byte(`{{{`)

	rec := postWebhook(engine, body, ComputeSignature("whsec_test", body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if processor.calls != 0 {
		t.Error("malformed payload must not be processed")
	}
}

func TestUnhandledKindAcknowledged(t *testing.T) {
	processor := &countingProcessor{}
	engine := newTestRouter("whsec_test", processor)
	body := []byte(`{"message":{"type":"speech-update","call":{"id":"call-1"}}}`)

	rec := postWebhook(engine, body, ComputeSignature("whsec_test", body))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if processor.calls != 0 {
		t.Error("unhandled kind must be absorbed, not processed")
	}
}

func TestEmptySecretSkipsVerification(t *testing.T) {
	processor := &countingProcessor{}
	engine := newTestRouter("", processor)
	body := []byte(`{"message":{"type":"status-update","status":"ended","call":{"id":"call-1"}}}`)

	rec := postWebhook(engine, body, "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if processor.calls != 1 {
		t.Errorf("processor calls = %d, want 1", processor.calls)
	}
}
