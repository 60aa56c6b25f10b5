package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type StandardizerConfig struct {
	MaxIterations            int               `toml:"max_iterations"`
	Workers                  int               `toml:"workers"`
	MaxCandidateCombinations int               `toml:"max_candidate_combinations"`
	MergeCompartments        bool              `toml:"merge_compartments"`
	Compartments             map[string]string `toml:"compartments"`
}

type BiochemConfig struct {
	// Source is "json" or "memgraph".
	Source   string `toml:"source"`
	Path     string `toml:"path"`
	Database string `toml:"database"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type LLMConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	MaxTokens int    `toml:"max_tokens"`
}

type ReviewPrompts struct {
	Advise string `toml:"advise"`
}

type ReviewConfig struct {
	Enabled  bool          `toml:"enabled"`
	Rerank   bool          `toml:"rerank"`
	MaxBatch int           `toml:"max_batch"`
	Prompts  ReviewPrompts `toml:"prompts"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Standardizer StandardizerConfig `toml:"standardizer"`
	Biochem      BiochemConfig      `toml:"biochem"`
	Memgraph     MemgraphConfig     `toml:"memgraph"`
	LLM          LLMConfig          `toml:"llm"`
	Review       ReviewConfig       `toml:"review"`
	Server       ServerConfig       `toml:"server"`
	Log          LogConfig          `toml:"log"`
}

// Default returns a configuration that runs without any external service
// besides a biochemistry JSON file.
func Default() *Config {
	return &Config{
		Standardizer: StandardizerConfig{
			MaxIterations:            10,
			Workers:                  1,
			MaxCandidateCombinations: 64,
			MergeCompartments:        true,
			Compartments:             map[string]string{"p": "e", "periplasm": "e"},
		},
		Biochem: BiochemConfig{
			Source:   "json",
			Path:     "data/biochemistry.json",
			Database: "modelseed",
		},
		Memgraph: MemgraphConfig{
			URI: "bolt://localhost:7687",
		},
		Review: ReviewConfig{
			MaxBatch: 20,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"MEMGRAPH_URI":         &c.Memgraph.URI,
		"MEMGRAPH_USER":        &c.Memgraph.User,
		"MEMGRAPH_PASSWORD":    &c.Memgraph.Password,
		"LLM_PROVIDER":         &c.LLM.Provider,
		"LLM_MODEL":            &c.LLM.Model,
		"LLM_API_KEY":          &c.LLM.APIKey,
		"LLM_BASE_URL":         &c.LLM.BaseURL,
		"MODELSTD_BIOCHEM":     &c.Biochem.Path,
		"MODELSTD_BIOCHEM_SRC": &c.Biochem.Source,
		"MODELSTD_ADDR":        &c.Server.Addr,
		"MODELSTD_LOG_LEVEL":   &c.Log.Level,
		"MODELSTD_LOG_FORMAT":  &c.Log.Format,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MODELSTD_MAX_ITERATIONS": &c.Standardizer.MaxIterations,
		"MODELSTD_WORKERS":        &c.Standardizer.Workers,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}

	if v := os.Getenv("MODELSTD_REVIEW"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MODELSTD_REVIEW %q: %w", v, err)
		}
		c.Review.Enabled = enabled
	}
	// PORT is honoured for container platforms.
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Standardizer.MaxIterations < 1 {
		return fmt.Errorf("standardizer.max_iterations must be at least 1")
	}
	if c.Standardizer.Workers < 1 {
		return fmt.Errorf("standardizer.workers must be at least 1")
	}
	switch c.Biochem.Source {
	case "json":
		if c.Biochem.Path == "" {
			return fmt.Errorf("biochem.path is required for the json source")
		}
	case "memgraph":
		if c.Memgraph.URI == "" {
			return fmt.Errorf("memgraph.uri is required for the memgraph source")
		}
	default:
		return fmt.Errorf("unknown biochem.source %q", c.Biochem.Source)
	}
	if c.Review.Enabled && c.LLM.Provider == "" {
		return fmt.Errorf("review.enabled requires llm.provider")
	}
	return nil
}
