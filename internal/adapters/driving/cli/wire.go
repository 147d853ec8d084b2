package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/creditrust-labs/trustline-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/creditrust-labs/trustline-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/creditrust-labs/trustline-cli/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/creditrust-labs/trustline-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/creditrust-labs/trustline-cli/internal/adapters/driven/llm/openai"
	"github.com/creditrust-labs/trustline-cli/internal/adapters/driven/storage/sqlite"
	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driven"
	"github.com/creditrust-labs/trustline-cli/internal/core/services"
	"github.com/creditrust-labs/trustline-cli/internal/index/flat"
	"github.com/creditrust-labs/trustline-cli/internal/logger"
)

// indexFileName is the persisted vector index inside the data directory.
const indexFileName = "index.tlvx"

// defaultAPIKeyEnv is consulted when the config names no key variable.
const defaultAPIKeyEnv = "OPENAI_API_KEY"

// pipeline bundles the wired services for one command invocation.
// Commands build only what they need: ingest never touches the LLM.
type pipeline struct {
	cfg         domain.Config
	configStore *file.ConfigStore
	store       *sqlite.Store
	handle      *flat.Handle
	embedder    driven.EmbeddingService
	llm         driven.LLMService
	indexer     *services.Indexer
	answerer    *services.Answerer
	evaluator   *services.Evaluator
}

// pipelineOptions selects which capabilities a command needs wired.
type pipelineOptions struct {
	embedding  bool
	generation bool
}

// newPipeline loads configuration and wires stores and services.
// Callers must Close the returned pipeline.
func newPipeline(opts pipelineOptions) (*pipeline, error) {
	configStore, err := file.NewConfigStore(configDirFlag)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	cfg, err := configStore.Load()
	if err != nil {
		return nil, err
	}

	providers, err := configStore.LoadProviders()
	if err != nil {
		return nil, err
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	p := &pipeline{
		cfg:         cfg,
		configStore: configStore,
		store:       store,
		handle:      flat.NewHandle(),
	}

	if opts.embedding {
		embedder, err := newEmbedder(providers.Embedding, cfg)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.embedder = embedder
		logger.Debug("embedding provider: %s model=%s dim=%d",
			providers.Embedding.Provider, embedder.ModelName(), embedder.Dimensions())

		indexPath := filepath.Join(dataDir, indexFileName)
		indexer, err := services.NewIndexer(store, embedder, p.handle, cfg, indexPath)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.indexer = indexer
	}

	if opts.generation {
		llm, err := newLLM(providers.LLM)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.llm = llm
		logger.Debug("llm provider: %s model=%s", providers.LLM.Provider, llm.ModelName())

		retriever := services.NewRetriever(p.embedder, p.handle, store, cfg)
		p.answerer = services.NewAnswerer(retriever, llm, cfg)
		p.evaluator = services.NewEvaluator(p.answerer, cfg)
	}

	return p, nil
}

// Close releases held resources in reverse wiring order.
func (p *pipeline) Close() {
	if p.llm != nil {
		p.llm.Close() //nolint:errcheck
	}
	if p.embedder != nil {
		p.embedder.Close() //nolint:errcheck
	}
	if p.store != nil {
		p.store.Close() //nolint:errcheck
	}
}

// resolveDataDir returns the data directory, creating it when absent.
func resolveDataDir() (string, error) {
	dataDir := dataDirFlag
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".trustline", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return dataDir, nil
}

// newEmbedder builds the configured embedding service.
func newEmbedder(settings file.ProviderSettings, cfg domain.Config) (driven.EmbeddingService, error) {
	model := settings.Model
	if model == "" {
		model = cfg.EmbeddingModel
	}

	switch settings.Provider {
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     apiKey(settings),
			BaseURL:    settings.BaseURL,
			Model:      model,
			Dimensions: cfg.EmbeddingDimension,
		})
	case "ollama", "":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      model,
			Dimensions: cfg.EmbeddingDimension,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q",
			domain.ErrInvalidConfig, settings.Provider)
	}
}

// newLLM builds the configured generation service.
func newLLM(settings file.ProviderSettings) (driven.LLMService, error) {
	switch settings.Provider {
	case "openai":
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  apiKey(settings),
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case "ollama", "":
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q",
			domain.ErrInvalidConfig, settings.Provider)
	}
}

// apiKey reads the provider's API key from the configured environment
// variable. Keys never live in the config file itself.
func apiKey(settings file.ProviderSettings) string {
	env := settings.APIKeyEnv
	if env == "" {
		env = defaultAPIKeyEnv
	}
	return os.Getenv(env)
}
