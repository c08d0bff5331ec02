package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/andrab0/scenegraph/pkg/scene/relations"
	"github.com/andrab0/scenegraph/pkg/scene/storage"
	"github.com/andrab0/scenegraph/services"
)

// Parser backends
const (
	ParserProse  = "prose"
	ParserRemote = "remote"
)

// Config holds every runtime setting, read from the environment
type Config struct {
	Addr      string
	LogLevel  string
	LogFormat string

	LLM            services.ClientConfig
	ChatModel      string
	EmbeddingModel string
	MaxInputTokens int

	Parser        string
	ParserURL     string
	ParserRetries int

	SimilarityThreshold float64
	SerializeModels     bool

	StoreDir      string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	Qdrant storage.QdrantConfig

	Metrics bool
}

// Load reads envFile (when present) into the process environment and builds
// a Config from it. A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logrus.WithError(err).WithField("file", envFile).Warn("Env file not loaded")
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Addr:      get("ADDR", ":5000"),
		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "json"),
		LLM: services.ClientConfig{
			Provider:      strings.ToLower(get("LLM_PROVIDER", services.ProviderOpenAI)),
			OpenAIKey:     get("OPENAI_API_KEY", ""),
			OpenAIBaseURL: get("OPENAI_BASE_URL", ""),
			OpenRouterKey: get("OPENROUTER_API_KEY", ""),
			DeepseekKey:   get("DEEPSEEK_API_KEY", ""),
			DeepseekBase:  get("DEEPSEEK_API_BASE", ""),
			OllamaURL:     get("OLLAMA_URL", ""),
		},
		ChatModel:      get("CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel: get("EMBEDDING_MODEL", "text-embedding-3-small"),
		Parser:         strings.ToLower(get("PARSER", ParserProse)),
		ParserURL:      get("PARSER_URL", ""),
		StoreDir:       get("STORE_DIR", ""),
		Neo4jURI:       get("NEO4J_URI", ""),
		Neo4jUser:      get("NEO4J_USER", "neo4j"),
		Neo4jPassword:  get("NEO4J_PASSWORD", ""),
		Qdrant: storage.QdrantConfig{
			Host:       get("QDRANT_HOST", ""),
			APIKey:     get("QDRANT_API_KEY", ""),
			Collection: get("QDRANT_COLLECTION", "scene_relation_phrases"),
		},
	}

	var err error
	if cfg.MaxInputTokens, err = atoi(get("MAX_INPUT_TOKENS", "512"), "MAX_INPUT_TOKENS"); err != nil {
		return nil, err
	}
	if cfg.ParserRetries, err = atoi(get("PARSER_RETRIES", "3"), "PARSER_RETRIES"); err != nil {
		return nil, err
	}
	if cfg.Qdrant.Port, err = atoi(get("QDRANT_PORT", "6334"), "QDRANT_PORT"); err != nil {
		return nil, err
	}
	if cfg.SimilarityThreshold, err = strconv.ParseFloat(get("SIMILARITY_THRESHOLD", strconv.FormatFloat(relations.DefaultThreshold, 'f', -1, 64)), 64); err != nil {
		return nil, fmt.Errorf("failed to parse SIMILARITY_THRESHOLD: %v", err)
	}
	if cfg.SerializeModels, err = parseBool(get("SERIALIZE_MODELS", "false"), "SERIALIZE_MODELS"); err != nil {
		return nil, err
	}
	if cfg.Qdrant.UseTLS, err = parseBool(get("QDRANT_TLS", "false"), "QDRANT_TLS"); err != nil {
		return nil, err
	}
	if cfg.Metrics, err = parseBool(get("METRICS", "true"), "METRICS"); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// Validate rejects inconsistent settings
func (c *Config) Validate() error {
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1], got %v", c.SimilarityThreshold)
	}
	switch c.Parser {
	case ParserProse:
	case ParserRemote:
		if c.ParserURL == "" {
			return fmt.Errorf("PARSER_URL is required when PARSER=remote")
		}
	default:
		return fmt.Errorf("unknown PARSER %q", c.Parser)
	}
	switch c.LLM.Provider {
	case services.ProviderOpenAI, services.ProviderOllama, services.ProviderOpenRouter, services.ProviderDeepseek:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.MaxInputTokens <= 0 {
		return fmt.Errorf("MAX_INPUT_TOKENS must be positive, got %d", c.MaxInputTokens)
	}
	if c.ParserRetries < 0 {
		return fmt.Errorf("PARSER_RETRIES must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %v", err)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// Logger builds a logger honoring LOG_LEVEL and LOG_FORMAT
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	if c.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

func atoi(v, key string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %v", key, err)
	}
	return n, nil
}

func parseBool(v, key string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %v", key, err)
	}
	return b, nil
}
