package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Configuration is stored in a TOML file within the trustline config directory.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
}

// ProviderSettings selects and configures one backing service.
type ProviderSettings struct {
	// Provider names the adapter: "openai" or "ollama".
	Provider string `toml:"provider"`

	// BaseURL overrides the adapter's default endpoint.
	BaseURL string `toml:"base_url,omitempty"`

	// Model overrides the adapter's default model.
	Model string `toml:"model,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env,omitempty"`
}

// Providers holds the backing-service selection for both capabilities.
type Providers struct {
	Embedding ProviderSettings `toml:"embedding"`
	LLM       ProviderSettings `toml:"llm"`
}

// fileConfig is the on-disk TOML layout. Durations are strings so the
// file stays hand-editable ("60s", "2m").
type fileConfig struct {
	Pipeline pipelineConfig `toml:"pipeline"`
	Providers
}

type pipelineConfig struct {
	ChunkSize          int     `toml:"chunk_size"`
	ChunkOverlap       int     `toml:"chunk_overlap"`
	EmbeddingDimension int     `toml:"embedding_dimension"`
	DistanceMetric     string  `toml:"distance_metric"`
	EmbeddingModel     string  `toml:"embedding_model"`
	TopK               int     `toml:"top_k"`
	MaxContextSize     int     `toml:"max_context_size"`
	MinSimilarity      float64 `toml:"min_similarity_threshold"`
	GenerationTimeout  string  `toml:"generation_timeout"`
	OverfetchFactor    int     `toml:"overfetch_factor"`
	DedupOverlap       float64 `toml:"dedup_overlap"`
	EmbedConcurrency   int     `toml:"embed_concurrency"`
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.trustline/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".trustline")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads configuration from the TOML file, filling unset fields
// with defaults. A missing file yields the defaults. The returned
// config is always validated; an invalid file is an error, never a
// silently coerced value.
func (s *ConfigStore) Load() (domain.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return domain.Config{}, fmt.Errorf("reading config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return domain.Config{}, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, s.filePath, err)
	}

	applyPipeline(&cfg, fc.Pipeline)

	if err := cfg.Validate(); err != nil {
		return domain.Config{}, fmt.Errorf("%s: %w", s.filePath, err)
	}
	return cfg, nil
}

// LoadProviders reads the backing-service selection from the TOML file.
// A missing file yields ollama for both capabilities.
func (s *ConfigStore) LoadProviders() (Providers, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	providers := Providers{
		Embedding: ProviderSettings{Provider: "ollama"},
		LLM:       ProviderSettings{Provider: "ollama"},
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return providers, nil
		}
		return Providers{}, fmt.Errorf("reading config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return Providers{}, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, s.filePath, err)
	}

	if fc.Embedding.Provider != "" {
		providers.Embedding = fc.Embedding
	}
	if fc.LLM.Provider != "" {
		providers.LLM = fc.LLM
	}
	return providers, nil
}

// Save persists the configuration to the TOML file.
func (s *ConfigStore) Save(cfg domain.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Preserve any provider sections already in the file.
	var fc fileConfig
	if data, err := os.ReadFile(s.filePath); err == nil {
		if err := toml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, s.filePath, err)
		}
	}

	fc.Pipeline = pipelineConfig{
		ChunkSize:          cfg.ChunkSize,
		ChunkOverlap:       cfg.ChunkOverlap,
		EmbeddingDimension: cfg.EmbeddingDimension,
		DistanceMetric:     string(cfg.DistanceMetric),
		EmbeddingModel:     cfg.EmbeddingModel,
		TopK:               cfg.TopK,
		MaxContextSize:     cfg.MaxContextSize,
		MinSimilarity:      cfg.MinSimilarity,
		GenerationTimeout:  cfg.GenerationTimeout.String(),
		OverfetchFactor:    cfg.OverfetchFactor,
		DedupOverlap:       cfg.DedupOverlap,
		EmbedConcurrency:   cfg.EmbedConcurrency,
	}

	data, err := toml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// applyPipeline overlays set fields from the file onto the defaults.
func applyPipeline(cfg *domain.Config, pc pipelineConfig) {
	if pc.ChunkSize != 0 {
		cfg.ChunkSize = pc.ChunkSize
	}
	if pc.ChunkOverlap != 0 {
		cfg.ChunkOverlap = pc.ChunkOverlap
	}
	if pc.EmbeddingDimension != 0 {
		cfg.EmbeddingDimension = pc.EmbeddingDimension
	}
	if pc.DistanceMetric != "" {
		cfg.DistanceMetric = domain.Metric(pc.DistanceMetric)
	}
	if pc.EmbeddingModel != "" {
		cfg.EmbeddingModel = pc.EmbeddingModel
	}
	if pc.TopK != 0 {
		cfg.TopK = pc.TopK
	}
	if pc.MaxContextSize != 0 {
		cfg.MaxContextSize = pc.MaxContextSize
	}
	if pc.MinSimilarity != 0 {
		cfg.MinSimilarity = pc.MinSimilarity
	}
	if pc.GenerationTimeout != "" {
		if d, err := time.ParseDuration(pc.GenerationTimeout); err == nil {
			cfg.GenerationTimeout = d
		} else {
			// Leave the default in place; Validate cannot see a parse
			// failure, so surface it through an impossible value.
			cfg.GenerationTimeout = 0
		}
	}
	if pc.OverfetchFactor != 0 {
		cfg.OverfetchFactor = pc.OverfetchFactor
	}
	if pc.DedupOverlap != 0 {
		cfg.DedupOverlap = pc.DedupOverlap
	}
	if pc.EmbedConcurrency != 0 {
		cfg.EmbedConcurrency = pc.EmbedConcurrency
	}
}
