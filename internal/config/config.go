package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey         string  `envconfig:"OPENAI_API_KEY"`
	OpenAIModel          string  `envconfig:"OPENAI_MODEL" default:"gpt-4"`
	OpenAIEmbeddingModel string  `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	OpenAIMaxTokens      int     `envconfig:"OPENAI_MAX_TOKENS" default:"4000"`
	OpenAITemperature    float32 `envconfig:"OPENAI_TEMPERATURE" default:"0.7"`

	VectorDimensions int `envconfig:"VECTOR_DIMENSIONS" default:"1536"`
	ChunkSize        int `envconfig:"CHUNK_SIZE" default:"500"`
	ChunkOverlap     int `envconfig:"CHUNK_OVERLAP" default:"50"`

	DefaultSearchLimit int     `envconfig:"DEFAULT_SEARCH_LIMIT" default:"10"`
	MaxSearchLimit     int     `envconfig:"MAX_SEARCH_LIMIT" default:"100"`
	MinSimilarityScore float64 `envconfig:"MIN_SIMILARITY_SCORE" default:"0.7"`

	CountriesEnabled string `envconfig:"COUNTRIES_ENABLED" default:"US,CA,MX,GT,HN,SV,NI,CR,PA,VE,CO,EC,PE,BR,BO,PY,AR,UY,CL,CU,DO,HT"`
	EntityTypes      string `envconfig:"ENTITY_TYPES" default:"bank,exchange,fintech,casa_cambio,wallet,defi"`

	SchedulerEnabled  bool   `envconfig:"SCHEDULER_ENABLED" default:"true"`
	SchedulerTimezone string `envconfig:"SCHEDULER_TIMEZONE" default:"America/Caracas"`

	// Job intervals in seconds.
	UpdateExchangesInterval int `envconfig:"UPDATE_EXCHANGES_INTERVAL" default:"900"`
	UpdateRatesInterval     int `envconfig:"UPDATE_RATES_INTERVAL" default:"1800"`
	UpdateBanksInterval     int `envconfig:"UPDATE_BANKS_INTERVAL" default:"86400"`
	DiscoveryInterval       int `envconfig:"DISCOVERY_INTERVAL" default:"604800"`
	MaintenanceInterval     int `envconfig:"MAINTENANCE_INTERVAL" default:"86400"`

	// Snapshot export of index state to S3-compatible storage, used by the
	// maintenance job when configured.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"finatlas-snapshots"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("FINATLAS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	// envconfig treats a set-but-empty required variable as present.
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("FINATLAS_DATABASE_URL must not be empty")
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

// Countries returns the enabled ISO-3166 alpha-2 country codes.
func (c *Config) Countries() []string {
	return splitList(strings.ToUpper(c.CountriesEnabled))
}

// Types returns the enabled entity type names.
func (c *Config) Types() []string {
	return splitList(strings.ToLower(c.EntityTypes))
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
