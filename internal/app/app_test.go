package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agenthands/modelstd/internal/config"
)

const biochemistry = `{
  "compounds": [
    {"id": "cpd00027", "formula": "C6H12O6"},
    {"id": "cpd00020", "formula": "C3H4O3", "charge": -1}
  ],
  "reactions": [
    {"id": "rxn00145", "stoichiometry": {"cpd00027": -1, "cpd00020": 2}, "direction": ">"}
  ]
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "biochemistry.json")
	require.NoError(t, os.WriteFile(path, []byte(biochemistry), 0o644))
	cfg := config.Default()
	cfg.Biochem.Path = path
	return cfg
}

func TestNew(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	compounds, reactions := a.DB.Size()
	assert.Equal(t, 2, compounds)
	assert.Equal(t, 1, reactions)
	assert.NotNil(t, a.Standardizer.Normalizer)
	assert.Nil(t, a.Advisor)
}

func TestNewWithReview(t *testing.T) {
	cfg := testConfig(t)
	cfg.Standardizer.MergeCompartments = false
	cfg.Review = config.ReviewConfig{Enabled: true, Rerank: true, MaxBatch: 5}
	cfg.LLM = config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "test"}

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Standardizer.Normalizer)
	require.NotNil(t, a.Advisor)
	assert.Equal(t, 5, a.Advisor.MaxBatch)
	assert.NotNil(t, a.Advisor.Reranker)
}

func TestNewFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Biochem.Path = filepath.Join(t.TempDir(), "missing.json")
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Review.Enabled = true
	cfg.LLM.Provider = "unknown"
	_, err = New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Biochem.Source = "csv"
	_, err = LoadBiochem(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
