package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	SlackBotToken      string `envconfig:"SLACK_BOT_TOKEN"`
	SlackSigningSecret string `envconfig:"SLACK_SIGNING_SECRET"`
	SlackWorkspaceURL  string `envconfig:"SLACK_WORKSPACE_URL"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	// Retrieval tuning. The similarity threshold and candidate pool were
	// tuned empirically; treat as configuration, not hardcoded law.
	ChunkMaxTokens   int     `envconfig:"CHUNK_MAX_TOKENS" default:"1000"`
	EmbedMaxTokens   int     `envconfig:"EMBED_MAX_TOKENS" default:"8000"`
	ContextMaxTokens int     `envconfig:"CONTEXT_MAX_TOKENS" default:"2000"`
	SearchLimit      int     `envconfig:"SEARCH_LIMIT" default:"10"`
	MinSimilarity    float64 `envconfig:"MIN_SIMILARITY" default:"0.7"`

	BackfillPageSize    int           `envconfig:"BACKFILL_PAGE_SIZE" default:"100"`
	BackfillMaxMessages int           `envconfig:"BACKFILL_MAX_MESSAGES" default:"500"`
	BackfillCooldown    time.Duration `envconfig:"BACKFILL_COOLDOWN" default:"2s"`

	ExtractionTimeout time.Duration `envconfig:"EXTRACTION_TIMEOUT" default:"15s"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"loreweave-files"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LOREWEAVE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSlack() bool {
	return c.SlackBotToken != "" && c.SlackSigningSecret != ""
}
