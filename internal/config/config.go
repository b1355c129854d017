package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo contains basic application information.
type AppInfo struct {
	Name        string `yaml:"name"`        // application name
	Version     string `yaml:"version"`     // application version
	Environment string `yaml:"environment"` // e.g. "development", "production"
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address         string `yaml:"address"`         // listen address, e.g. ":8080"
	ShutdownTimeout int    `yaml:"shutdownTimeout"` // graceful shutdown timeout (seconds)
	MaxUploadBytes  int64  `yaml:"maxUploadBytes"`  // per-file upload limit
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// GeminiConfig holds Gemini provider settings.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// OllamaConfig holds Ollama provider settings.
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// LLMConfig selects and configures the generation provider.
type LLMConfig struct {
	Provider string       `yaml:"provider"` // "openai", "gemini" or "ollama"
	OpenAI   OpenAIConfig `yaml:"openai"`
	Gemini   GeminiConfig `yaml:"gemini"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string       `yaml:"provider"` // "openai", "gemini" or "ollama"
	OpenAI   OpenAIConfig `yaml:"openai"`
	Gemini   GeminiConfig `yaml:"gemini"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// RAGConfig tunes the chunking and retrieval behavior.
type RAGConfig struct {
	ChunkSize    int    `yaml:"chunkSize"`    // chunk window size in runes
	ChunkOverlap int    `yaml:"chunkOverlap"` // overlap between windows in runes
	TopK         int    `yaml:"topK"`         // default number of chunks retrieved
	DataDir      string `yaml:"dataDir"`      // root directory for on-disk indexes
	VectorStore  string `yaml:"vectorStore"`  // "disk" (default) or "milvus"
	CallTimeout  int    `yaml:"callTimeout"`  // timeout for each external call (seconds)
}

// MySQLConfig configures the registry database connection.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// RedisConfig configures the Redis connection used for build leases.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MinIOConfig configures the object store used to stage uploads.
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled"` // when false, uploads stage to a local directory
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// MilvusConfig configures the optional Milvus vector store backend.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
}

// DatabaseConfigs groups all external store configurations.
type DatabaseConfigs struct {
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	MinIO  MinIOConfig  `yaml:"minio"`
	Milvus MilvusConfig `yaml:"milvus"`
}

// RateLimiterConfig configures the API rate limiter.
type RateLimiterConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Algorithm string  `yaml:"algorithm"` // "tokenBucket" or "slidingWindow"
	Rate      float64 `yaml:"rate"`      // requests per second
	Burst     int     `yaml:"burst"`     // bucket capacity / window quota
}

// CircuitBreakerConfig configures the breaker guarding provider calls.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // e.g. "30s"
}

// MiddlewareConfig groups all middleware configuration.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logger     LoggerConfig     `yaml:"logger"`
	LLM        LLMConfig        `yaml:"llm"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	RAG        RAGConfig        `yaml:"rag"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig reads and parses the YAML configuration file at path.
// ${VAR} references are expanded from the environment so secrets can
// stay out of the file.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(yamlFile))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 32 << 20
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = 1024
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		c.RAG.ChunkOverlap = 128
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = 4
	}
	if c.RAG.DataDir == "" {
		c.RAG.DataDir = "data/indexes"
	}
	if c.RAG.VectorStore == "" {
		c.RAG.VectorStore = "disk"
	}
	if c.RAG.CallTimeout <= 0 {
		c.RAG.CallTimeout = 60
	}
}
