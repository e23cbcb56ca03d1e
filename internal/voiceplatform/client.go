// Package voiceplatform provides the HTTP client for the outbound voice
// platform API: it starts AI-driven phone calls and returns the platform's
// call id used to correlate later webhook events.
package voiceplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"callops_backend/internal/calls/domain"
	"callops_backend/platform/config"
	"callops_backend/platform/logger"
)

// Client is the HTTP client for the voice platform API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	agentID    string
	log        *logger.Logger
}

// New creates a new voice platform client.
func New(cfg config.VoiceConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    cfg.GetVoiceAPIURL(),
		apiKey:     cfg.GetVoiceAPIKey(),
		agentID:    cfg.GetVoiceAgentID(),
		log:        log,
	}
}

type placeCallRequest struct {
	AgentID  string            `json:"assistantId"`
	Customer placeCallCustomer `json:"customer"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type placeCallCustomer struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

type placeCallResponse struct {
	ID string `json:"id"`
}

// Place asks the platform to dial the lead and returns the platform's call id.
func (c *Client) Place(ctx context.Context, phone string, lead domain.LeadData) (string, error) {
	payload := placeCallRequest{
		AgentID:  c.agentID,
		Customer: placeCallCustomer{Number: phone, Name: lead.Name},
	}
	if lead.PropertyType != "" || lead.Location != "" {
		payload.Metadata = map[string]string{}
		if lead.PropertyType != "" {
			payload.Metadata["propertyType"] = lead.PropertyType
		}
		if lead.Location != "" {
			payload.Metadata["location"] = lead.Location
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	reqURL := c.baseURL + "/call"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("voice platform request failed", "error", err, "url", reqURL)
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("voice platform rejected call", "status", resp.StatusCode, "body", string(snippet))
		return "", fmt.Errorf("voice platform: status %d", resp.StatusCode)
	}

	var out placeCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("voice platform returned no call id")
	}

	return out.ID, nil
}
