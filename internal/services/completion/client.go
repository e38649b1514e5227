// Package completion fans completion requests out to the configured model
// backends and collects their generations.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ModelClientConfig holds the configuration for one model backend client.
type ModelClientConfig struct {
	// Name identifies the model in responses and stored records.
	Name string
	// Endpoint is the backend URL serving this model.
	Endpoint   string
	HTTPClient *http.Client
}

// modelRequest is the payload sent to a model backend.
type modelRequest struct {
	Prefix   string `json:"prefix"`
	Suffix   string `json:"suffix"`
	Language string `json:"language"`
	Trigger  string `json:"trigger"`
}

// modelResponse is the payload returned by a model backend.
type modelResponse struct {
	Completion string `json:"completion"`
}

// ModelClient calls one model backend over HTTP.
type ModelClient struct {
	name       string
	endpoint   string
	httpClient *http.Client
}

// NewModelClient creates a client for one model backend.
func NewModelClient(config *ModelClientConfig) (*ModelClient, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.Name == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if config.Endpoint == "" {
		return nil, fmt.Errorf("model endpoint is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &ModelClient{
		name:       config.Name,
		endpoint:   config.Endpoint,
		httpClient: httpClient,
	}, nil
}

// Name returns the model name this client serves.
func (c *ModelClient) Name() string {
	return c.name
}

// Complete requests one generation from the backend.
func (c *ModelClient) Complete(ctx context.Context, prefix, suffix, language, trigger string) (string, error) {
	body, err := json.Marshal(modelRequest{
		Prefix:   prefix,
		Suffix:   suffix,
		Language: language,
		Trigger:  trigger,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var modelResp modelResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return modelResp.Completion, nil
}
