package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"`
	Mode string `toml:"mode"` // "dev" or "prod", controls logger output
}

// GatewayConfig describes the remote serverless backend every strategy
// call is routed through.
type GatewayConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// FunctionNames maps logical operations to deployed function names so the
// orchestrators never hardcode deployment identifiers.
type FunctionNames struct {
	MaterialAgent    string `toml:"material_agent"`
	SimpleAgent      string `toml:"simple_agent"`
	RAGSearch        string `toml:"rag_search"`
	VisualSearch     string `toml:"visual_search"`
	VectorSimilarity string `toml:"vector_similarity"`
	Generation3D     string `toml:"generation_3d"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type CatalogConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type ChatConfig struct {
	StorePath     string `toml:"store_path"`
	HistoryWindow int    `toml:"history_window"`
}

type SearchConfig struct {
	DefaultLimit int  `toml:"default_limit"`
	Rerank       bool `toml:"rerank"`
}

type IngestConfig struct {
	MinChunkLength int `toml:"min_chunk_length"`
}

type Config struct {
	Server    ServerConfig  `toml:"server"`
	Gateway   GatewayConfig `toml:"gateway"`
	Functions FunctionNames `toml:"functions"`
	LLM       LLMConfig     `toml:"llm"`
	Catalog   CatalogConfig `toml:"catalog"`
	Chat      ChatConfig    `toml:"chat"`
	Search    SearchConfig  `toml:"search"`
	Ingest    IngestConfig  `toml:"ingest"`
}

// Default returns a config with every default applied, for deployments
// configured entirely through the environment.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		c.Gateway.TimeoutSeconds = 30
	}
	if c.Functions.MaterialAgent == "" {
		c.Functions.MaterialAgent = "material-agent-orchestrator"
	}
	if c.Functions.SimpleAgent == "" {
		c.Functions.SimpleAgent = "material-agent"
	}
	if c.Functions.RAGSearch == "" {
		c.Functions.RAGSearch = "enhanced-rag-search"
	}
	if c.Functions.VisualSearch == "" {
		c.Functions.VisualSearch = "material-recognition"
	}
	if c.Functions.VectorSimilarity == "" {
		c.Functions.VectorSimilarity = "vector-similarity-search"
	}
	if c.Functions.Generation3D == "" {
		c.Functions.Generation3D = "crewai-3d-generation"
	}
	if c.Chat.StorePath == "" {
		c.Chat.StorePath = "chat.db"
	}
	if c.Chat.HistoryWindow <= 0 {
		c.Chat.HistoryWindow = 10
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Ingest.MinChunkLength <= 0 {
		c.Ingest.MinChunkLength = 100
	}
}

// ApplyEnvOverrides lets deployment environments override the file-based
// config without editing it, mirroring how the rest of the platform is
// configured.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("GATEWAY_BASE_URL"); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv("GATEWAY_API_KEY"); v != "" {
		c.Gateway.APIKey = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		c.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("CATALOG_URI"); v != "" {
		c.Catalog.URI = v
	}
	if v := os.Getenv("CATALOG_USER"); v != "" {
		c.Catalog.User = v
	}
	if v := os.Getenv("CATALOG_PASSWORD"); v != "" {
		c.Catalog.Password = v
	}
	if v := os.Getenv("CHAT_STORE_PATH"); v != "" {
		c.Chat.StorePath = v
	}
}
