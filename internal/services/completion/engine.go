package completion

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/coco-ide/completion-service/internal/config"
	"github.com/coco-ide/completion-service/internal/domain/models"
)

// Engine generates completions by querying every configured model backend
// concurrently.
type Engine interface {
	// Generate returns each model's completion keyed by model name, plus
	// the serving time in seconds. A backend that fails is logged and
	// omitted; Generate fails only when every backend does.
	Generate(ctx context.Context, request *models.GenerateRequest) (map[string]string, float64, error)
}

// MultiModelEngine fans a request out to a fixed set of model clients.
type MultiModelEngine struct {
	clients []*ModelClient
	logger  zerolog.Logger
}

// NewMultiModelEngine builds an engine from the configured model endpoints.
// All clients share one HTTP client with the configured timeout.
func NewMultiModelEngine(cfg config.CompletionConfig, logger zerolog.Logger) (*MultiModelEngine, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one model endpoint is required")
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}

	clients := make([]*ModelClient, 0, len(cfg.Endpoints))
	for name, endpoint := range cfg.Endpoints {
		client, err := NewModelClient(&ModelClientConfig{
			Name:       name,
			Endpoint:   endpoint,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create client for model %s: %w", name, err)
		}
		clients = append(clients, client)
	}

	return &MultiModelEngine{
		clients: clients,
		logger:  logger,
	}, nil
}

// Generate queries all backends concurrently and collects the successful
// generations.
func (e *MultiModelEngine) Generate(ctx context.Context, request *models.GenerateRequest) (map[string]string, float64, error) {
	start := time.Now()

	var mu sync.Mutex
	completions := make(map[string]string, len(e.clients))

	g, gctx := errgroup.WithContext(ctx)
	for _, client := range e.clients {
		client := client
		g.Go(func() error {
			completion, err := client.Complete(gctx, request.Prefix, request.Suffix, request.Language, request.Trigger)
			if err != nil {
				e.logger.Warn().Err(err).
					Str("model", client.Name()).
					Str("request_id", request.RequestID).
					Msg("model backend failed")
				return nil
			}
			mu.Lock()
			completions[client.Name()] = completion
			mu.Unlock()
			return nil
		})
	}

	// Per-model errors are swallowed above, so Wait cannot fail.
	_ = g.Wait()

	elapsed := time.Since(start).Seconds()

	if len(completions) == 0 {
		return nil, elapsed, fmt.Errorf("all model backends failed")
	}

	return completions, elapsed, nil
}
