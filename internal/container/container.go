package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/texture-inspector-go/internal/config"
	"github.com/anime-shed/texture-inspector-go/internal/service"
	"github.com/anime-shed/texture-inspector-go/internal/storage"
	"github.com/anime-shed/texture-inspector-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	imageFetcher      storage.ImageFetcher
	evaluationService service.EvaluationService
	handler           http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	var fetcher storage.ImageFetcher
	if cfg.UseAzureStorage() {
		azureFetcher, err := storage.NewAzureImageFetcher(cfg.AzureAccountName, cfg.AzureAccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize azure storage: %w", err)
		}
		fetcher = azureFetcher
	} else {
		fetcher = storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout)
	}

	evaluationService := service.NewEvaluationService(fetcher, cfg)
	handler := transport.NewHandler(evaluationService, cfg)

	return &Container{
		config:            cfg,
		imageFetcher:      fetcher,
		evaluationService: evaluationService,
		handler:           handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}
