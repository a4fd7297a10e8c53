package configs

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"KnowledgeAPI/app/chunker"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	OpenAI   OpenAIConfig   `yaml:"openai,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	Chunking ChunkingConfig `yaml:"chunking,omitempty"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"gte=0,lte=65535"`
}

type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

type OpenAIConfig struct {
	APIKey          string `yaml:"api_key,omitempty"`
	BaseURL         string `yaml:"base_url,omitempty"`
	EmbeddingsModel string `yaml:"embeddings_model,omitempty"`
	CompletionModel string `yaml:"completion_model,omitempty"`
	Dimension       int    `yaml:"dimension,omitempty" validate:"gte=0"`
}

type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty" validate:"gte=0,lte=65535"`
	Collection string `yaml:"collection,omitempty"`
}

type ChunkingConfig struct {
	TargetSize int `yaml:"target_size,omitempty" validate:"gte=0"`
	Overlap    int `yaml:"overlap,omitempty" validate:"gte=0"`
}

// Default builds the configuration used when no config file is given,
// pulling provider settings from the environment.
func Default() *Config {
	qdrantPort, _ := strconv.Atoi(os.Getenv("QDRANT_PORT"))
	cfg := &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000},
		OpenAI: OpenAIConfig{APIKey: os.Getenv("OPENAI_API_KEY")},
		Qdrant: QdrantConfig{Host: os.Getenv("QDRANT_HOST"), Port: qdrantPort},
	}
	cfg.fillDefaults()
	return cfg
}

// LoadConfig reads a YAML config file with environment variables expanded,
// so secrets can stay out of the file as ${OPENAI_API_KEY} placeholders.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configs file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) fillDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.OpenAI.EmbeddingsModel == "" {
		c.OpenAI.EmbeddingsModel = "text-embedding-3-small"
	}
	if c.OpenAI.CompletionModel == "" {
		c.OpenAI.CompletionModel = "gpt-3.5-turbo"
	}
	if c.OpenAI.Dimension == 0 {
		c.OpenAI.Dimension = 1536
	}
	if c.Qdrant.Port == 0 {
		c.Qdrant.Port = 6334
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "knowledge-base"
	}
	if c.Chunking.TargetSize == 0 {
		c.Chunking.TargetSize = chunker.DefaultTargetSize
		if c.Chunking.Overlap == 0 {
			c.Chunking.Overlap = chunker.DefaultOverlap
		}
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configs: %w", err)
	}
	// Forward-progress invariant; rejected here rather than on every ingest.
	if c.Chunking.Overlap >= c.Chunking.TargetSize {
		return fmt.Errorf("invalid configs: %w", chunker.ErrInvalidConfiguration)
	}
	return nil
}
