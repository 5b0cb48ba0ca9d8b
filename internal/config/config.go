package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Clowder connection
	ClowderURL    string
	ClowderAPIKey string

	// Auth
	SentexAPIKey string

	// Sentence segmentation
	Segmenter         string
	PunktTrainingFile string
	AnthropicAPIKey   string
	AnthropicModel    string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Document walk
	PageTimeout       time.Duration
	PageFailurePolicy string
	EmitCoordinates   bool

	// Outputs
	OutputSuffix string
	ExportXLSX   bool
	WorkDir      string

	// Publication
	ExtractorName   string
	ExtractorID     string
	MetadataContext string
	MetadataUserID  string
	PublishRetries  int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		ClowderURL:    envOr("CLOWDER_URL", "http://localhost:9000"),
		ClowderAPIKey: os.Getenv("CLOWDER_API_KEY"),

		SentexAPIKey: os.Getenv("SENTEX_API_KEY"),

		Segmenter:         strings.ToLower(envOr("SEGMENTER", "punkt")),
		PunktTrainingFile: os.Getenv("PUNKT_TRAINING_FILE"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		WorkerCount:  envInt("WORKER_COUNT", 1),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		PageTimeout:       envDuration("PAGE_TIMEOUT", 60*time.Second),
		PageFailurePolicy: strings.ToLower(envOr("PAGE_FAILURE_POLICY", "abort")),
		EmitCoordinates:   envBool("EMIT_COORDINATES", false),

		OutputSuffix: envOr("OUTPUT_SUFFIX", "-pymupdf"),
		ExportXLSX:   envBool("EXPORT_XLSX", false),
		WorkDir:      os.Getenv("WORK_DIR"),

		ExtractorName:   envOr("EXTRACTOR_NAME", "PyMuPDF Extractor"),
		ExtractorID:     envOr("EXTRACTOR_ID", "pymupdf-extractor"),
		MetadataContext: envOr("METADATA_CONTEXT", "http://clowder.ncsa.illinois.edu/contexts/metadata.jsonld"),
		MetadataUserID:  envOr("METADATA_USER_ID", "http://clowder.ncsa.illinois.edu/api/users"),
		PublishRetries:  envInt("PUBLISH_RETRIES", 3),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.PageTimeout < 0 {
		cfg.PageTimeout = 60 * time.Second
	}
	if cfg.PublishRetries < 0 {
		cfg.PublishRetries = 0
	}

	return cfg
}

func (c Config) Validate() error {
	if c.ClowderAPIKey == "" {
		return fmt.Errorf("CLOWDER_API_KEY is required")
	}
	if c.SentexAPIKey == "" {
		return fmt.Errorf("SENTEX_API_KEY is required")
	}
	switch c.Segmenter {
	case "punkt":
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when SEGMENTER=anthropic")
		}
	default:
		return fmt.Errorf("SEGMENTER must be punkt or anthropic, got %q", c.Segmenter)
	}
	switch c.PageFailurePolicy {
	case "abort", "skip":
	default:
		return fmt.Errorf("PAGE_FAILURE_POLICY must be abort or skip, got %q", c.PageFailurePolicy)
	}
	if c.OutputSuffix == "" {
		return fmt.Errorf("OUTPUT_SUFFIX must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
