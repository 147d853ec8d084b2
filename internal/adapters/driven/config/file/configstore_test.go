package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeConfig(t *testing.T, store *ConfigStore, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	store := newTestStore(t)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestLoad_PartialFileOverlaysDefaults(t *testing.T) {
	store := newTestStore(t)
	writeConfig(t, store, `
[pipeline]
chunk_size = 800
top_k = 3
generation_timeout = "2m"
`)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, 2*time.Minute, cfg.GenerationTimeout)

	// Unset fields keep their defaults.
	defaults := domain.DefaultConfig()
	assert.Equal(t, defaults.ChunkOverlap, cfg.ChunkOverlap)
	assert.Equal(t, defaults.MinSimilarity, cfg.MinSimilarity)
	assert.Equal(t, defaults.DistanceMetric, cfg.DistanceMetric)
}

func TestLoad_InvalidTOML(t *testing.T) {
	store := newTestStore(t)
	writeConfig(t, store, "not [valid toml")

	_, err := store.Load()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad_OutOfRangeValue(t *testing.T) {
	store := newTestStore(t)
	writeConfig(t, store, `
[pipeline]
chunk_size = 100
chunk_overlap = 200
`)

	_, err := store.Load()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad_UnparseableDuration(t *testing.T) {
	store := newTestStore(t)
	writeConfig(t, store, `
[pipeline]
generation_timeout = "soon"
`)

	_, err := store.Load()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad_UnknownMetric(t *testing.T) {
	store := newTestStore(t)
	writeConfig(t, store, `
[pipeline]
distance_metric = "manhattan"
`)

	_, err := store.Load()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	store := newTestStore(t)

	cfg := domain.DefaultConfig()
	cfg.ChunkSize = 900
	cfg.TopK = 7
	cfg.DistanceMetric = domain.MetricEuclidean
	cfg.GenerationTimeout = 90 * time.Second
	require.NoError(t, store.Save(cfg))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSave_RejectsInvalidConfig(t *testing.T) {
	store := newTestStore(t)

	cfg := domain.DefaultConfig()
	cfg.TopK = 0
	err := store.Save(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr), "invalid config must not be written")
}

func TestSave_PreservesProviderSections(t *testing.T) {
	store := newTestStore(t)
	writeConfig(t, store, `
[embedding]
provider = "openai"
model = "text-embedding-3-small"
api_key_env = "OPENAI_API_KEY"

[llm]
provider = "openai"
`)

	require.NoError(t, store.Save(domain.DefaultConfig()))

	providers, err := store.LoadProviders()
	require.NoError(t, err)
	assert.Equal(t, "openai", providers.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", providers.Embedding.Model)
	assert.Equal(t, "OPENAI_API_KEY", providers.Embedding.APIKeyEnv)
	assert.Equal(t, "openai", providers.LLM.Provider)
}

func TestLoadProviders_DefaultsToOllama(t *testing.T) {
	store := newTestStore(t)

	providers, err := store.LoadProviders()
	require.NoError(t, err)
	assert.Equal(t, "ollama", providers.Embedding.Provider)
	assert.Equal(t, "ollama", providers.LLM.Provider)
}

func TestLoadProviders_PartialSelection(t *testing.T) {
	store := newTestStore(t)
	writeConfig(t, store, `
[llm]
provider = "openai"
base_url = "https://proxy.internal/v1"
`)

	providers, err := store.LoadProviders()
	require.NoError(t, err)
	assert.Equal(t, "ollama", providers.Embedding.Provider, "unset capability keeps the default")
	assert.Equal(t, "openai", providers.LLM.Provider)
	assert.Equal(t, "https://proxy.internal/v1", providers.LLM.BaseURL)
}

func TestConfigFileLocation(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
