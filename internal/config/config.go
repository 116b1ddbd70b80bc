package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the embedding services.
type Config struct {
	// Server
	Port            int           `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Request limits
	MaxBodySize   int64 `env:"MAX_BODY_SIZE" envDefault:"1048576"`    // 1MB in bytes
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Embeddings
	EmbeddingProvider   string        `env:"EMBEDDING_PROVIDER" envDefault:"huggingface"` // "huggingface", "openai", "ollama" or "gemini"
	EmbeddingModel      string        `env:"EMBEDDING_MODEL"`                             // empty selects the provider default
	EmbeddingTimeout    time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"30s"`
	MaxConcurrentEmbeds int64         `env:"MAX_CONCURRENT_EMBEDS" envDefault:"4"`
	WarmupAttempts      int           `env:"WARMUP_ATTEMPTS" envDefault:"5"`

	// Provider credentials and endpoints
	HFToken      string `env:"HF_TOKEN"`
	HFEndpoint   string `env:"HF_ENDPOINT" envDefault:"https://router.huggingface.co/hf-inference/models/{model}/pipeline/feature-extraction"` // {model} is replaced with the model id
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	OllamaURL    string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	// Queue (worker only)
	QueueURL     string `env:"QUEUE_URL"`
	QueueSubject string `env:"QUEUE_SUBJECT" envDefault:"embeddings"`
	HealthPort   int    `env:"HEALTH_PORT" envDefault:"8081"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
