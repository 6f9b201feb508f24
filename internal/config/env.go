package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/markdave123-py/policyrag/internal/core"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	DatabaseURL string
	SslCertPath string

	EmbedProvider string
	EmbedAPIKey   string
	GeminiAPIKey  string
	EmbedBaseURL  string
	EmbedModel    string
	ChatModel     string
	EmbedDim      int

	EmbedConcurrency int
	MinDelay         time.Duration
	MaxRetries       int

	ChunkChars    int
	ChunkOverlap  int
	ChunkMinChars int

	OCRMinTextChars int
	OCRDPI          int
	OCRLanguages    []string
	TessdataDir     string
	PdftoppmPath    string

	PDFDir       string
	SourceBucket string
	SourcePrefix string
	UploadBucket string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string

	SkipIngested bool
	Port         string
}

// LoadConfig loads the environment variables (and a .env file if present) and returns config.
func LoadConfig() (*Config, error) {
	cfg := ReadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadConfig applies defaults without validating, so callers can layer flag
// overrides on top before calling Validate.
func ReadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),

		EmbedProvider: strings.ToLower(getEnv("EMBED_PROVIDER", ProviderOpenAI)),
		EmbedAPIKey:   getEnv("EMBED_API_KEY", getEnv("GITHUB_TOKEN", "")),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		EmbedBaseURL:  getEnv("EMBED_BASE_URL", "https://models.inference.ai.azure.com"),
		EmbedModel:    getEnv("RAG_EMBED_MODEL", ""),
		ChatModel:     getEnv("RAG_CHAT_MODEL", "gpt-4o-mini"),
		EmbedDim:      getEnvInt("EMBED_DIM", 0),

		EmbedConcurrency: getEnvInt("EMBED_CONCURRENCY", 2),
		MinDelay:         time.Duration(getEnvInt("MIN_DELAY_MS", 200)) * time.Millisecond,
		MaxRetries:       getEnvInt("MAX_RETRIES", 8),

		ChunkChars:    getEnvInt("CHUNK_CHARS", 900),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", 150),
		ChunkMinChars: getEnvInt("CHUNK_MIN_CHARS", 60),

		OCRMinTextChars: getEnvInt("OCR_MIN_TEXT_CHARS", 300),
		OCRDPI:          getEnvInt("OCR_DPI", 300),
		OCRLanguages:    splitList(getEnv("OCR_LANGUAGES", "eng,ara")),
		TessdataDir:     getEnv("TESSDATA_DIR", ""),
		PdftoppmPath:    getEnv("PDFTOPPM_PATH", "pdftoppm"),

		PDFDir:       getEnv("PDF_DIR", "./data/policies"),
		SourceBucket: getEnv("SOURCE_BUCKET", ""),
		SourcePrefix: getEnv("SOURCE_PREFIX", ""),
		UploadBucket: getEnv("UPLOAD_BUCKET", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),

		SkipIngested: getEnvBool("SKIP_INGESTED", false),
		Port:         getEnv("PORT", "8080"),
	}

	if cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultEmbedModel(cfg.EmbedProvider)
	}
	if cfg.EmbedDim == 0 {
		cfg.EmbedDim = defaultEmbedDim(cfg.EmbedProvider, cfg.EmbedModel)
	}
	return cfg
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL not set", core.ErrConfiguration)
	}
	switch c.EmbedProvider {
	case ProviderOpenAI:
		if c.EmbedAPIKey == "" {
			return fmt.Errorf("%w: EMBED_API_KEY (or GITHUB_TOKEN) not set", core.ErrConfiguration)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY not set", core.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown EMBED_PROVIDER %q", core.ErrConfiguration, c.EmbedProvider)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("%w: EMBED_DIM must be positive", core.ErrConfiguration)
	}
	if c.EmbedConcurrency <= 0 {
		return fmt.Errorf("%w: EMBED_CONCURRENCY must be positive", core.ErrConfiguration)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("%w: MAX_RETRIES must be positive", core.ErrConfiguration)
	}
	if c.ChunkChars <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkChars {
		return fmt.Errorf("%w: CHUNK_OVERLAP (%d) must be in [0, CHUNK_CHARS=%d)", core.ErrConfiguration, c.ChunkOverlap, c.ChunkChars)
	}
	if c.SourceBucket != "" && (c.AwsAccessKey == "" || c.AwsSecretKey == "") {
		return fmt.Errorf("%w: SOURCE_BUCKET requires AWS_ACCESS_KEY and AWS_SECRET_KEY", core.ErrConfiguration)
	}
	return nil
}

func defaultEmbedModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-embedding-001"
	}
	return "text-embedding-3-small"
}

// knownEmbedDims are the native output sizes of the models we default to or
// that are commonly configured.
var knownEmbedDims = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"gemini-embedding-001":   3072,
	"text-embedding-004":     768,
}

func defaultEmbedDim(provider, model string) int {
	if d, ok := knownEmbedDims[strings.TrimPrefix(model, "models/")]; ok {
		return d
	}
	if provider == ProviderGemini {
		return 3072
	}
	return 1536
}

// Helper to read environment variables with a default fallback; empty counts as unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '+' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
