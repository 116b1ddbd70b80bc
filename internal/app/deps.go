package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"embedding-service/internal/config"
	"embedding-service/internal/embeddings"
	"embedding-service/internal/logger"
	"embedding-service/internal/queue"
)

// Deps bundles the runtime dependencies shared by the embedding services.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	// Embedder is the guarded provider; it is created once and shared by all requests.
	Embedder embeddings.Embedder
	// Dimensions is the vector length discovered during warm-up.
	Dimensions int
	// Queue is only set for the worker.
	Queue queue.Responder

	closers []io.Closer
}

// Close releases provider and queue connections.
func (d Deps) Close() error {
	var errs []error
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build loads env, config, and the embedding provider. It blocks until the
// provider has answered a warm-up request; a provider that never does is fatal.
func Build(ctx context.Context) (Deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Deps{}, err
	}
	return build(ctx, cfg)
}

// BuildWorker is Build plus a NATS responder for queue-driven requests.
// Queue settings are checked before the provider warm-up starts.
func BuildWorker(ctx context.Context) (Deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Deps{}, err
	}
	if cfg.QueueURL == "" {
		return Deps{}, errors.New("failed to initialize queue: QUEUE_URL is required for the worker")
	}

	deps, err := build(ctx, cfg)
	if err != nil {
		return Deps{}, err
	}
	q, nc, err := buildQueue(deps.Config, deps.Log)
	if err != nil {
		_ = deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	deps.Queue = q
	deps.closers = append(deps.closers, closerFunc(func() error {
		return nc.Drain()
	}))
	return deps, nil
}

func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return config.Load(), nil
}

func build(ctx context.Context, cfg config.Config) (Deps, error) {
	log := logger.New(cfg.LogLevel)

	provider, err := buildEmbedder(ctx, cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("%w: %w", embeddings.ErrProviderInit, err)
	}
	deps := Deps{Config: cfg, Log: log}
	if c, ok := provider.(io.Closer); ok {
		deps.closers = append(deps.closers, c)
	}

	dims, err := embeddings.Load(ctx, provider, embeddings.LoadOptions{
		Attempts: cfg.WarmupAttempts,
		Backoff:  time.Second,
		Log:      log.With("provider", cfg.EmbeddingProvider),
	})
	if err != nil {
		_ = deps.Close()
		return Deps{}, err
	}

	deps.Dimensions = dims
	deps.Embedder = embeddings.NewGuard(provider, embeddings.GuardOptions{
		MaxConcurrent: cfg.MaxConcurrentEmbeds,
		Timeout:       cfg.EmbeddingTimeout,
		Dimensions:    dims,
	})
	return deps, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Responder, *nats.Conn, error) {
	nc, err := nats.Connect(cfg.QueueURL, nats.Name("embedding-worker"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("using NATS queue", "subject", cfg.QueueSubject)
	return queue.NewNATS(log, nc), nc, nil
}

func buildEmbedder(ctx context.Context, cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "huggingface":
		e := embeddings.NewHuggingFaceEmbedder(cfg.HFEndpoint, cfg.EmbeddingModel, cfg.HFToken, nil)
		log.Info("using Hugging Face embedder", "model", modelOrDefault(cfg.EmbeddingModel, embeddings.DefaultHuggingFaceModel))
		return e, nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
		}
		e, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		log.Info("using OpenAI embedder", "model", modelOrDefault(cfg.EmbeddingModel, embeddings.DefaultOpenAIModel))
		return e, nil
	case "ollama":
		e := embeddings.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, nil)
		log.Info("using Ollama embedder", "url", cfg.OllamaURL, "model", modelOrDefault(cfg.EmbeddingModel, embeddings.DefaultOllamaModel))
		return e, nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when EMBEDDING_PROVIDER=gemini")
		}
		e, err := embeddings.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini embedder: %w", err)
		}
		log.Info("using Gemini embedder", "model", modelOrDefault(cfg.EmbeddingModel, embeddings.DefaultGeminiModel))
		return e, nil
	default:
		return nil, fmt.Errorf("invalid EMBEDDING_PROVIDER: %s (valid options: huggingface, openai, ollama, gemini)", cfg.EmbeddingProvider)
	}
}

func modelOrDefault(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}
