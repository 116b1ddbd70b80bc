package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"embedding-service/internal/api"
	"embedding-service/internal/app"
	"embedding-service/internal/document"
	"embedding-service/internal/httputil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Default().Error("embedding service stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	deps, err := app.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("failed to release dependencies", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadTimeout:       deps.Config.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      deps.Config.WriteTimeout,
	}
	deps.Log.Info("embedding service listening", "addr", srv.Addr, "provider", deps.Config.EmbeddingProvider, "dimensions", deps.Dimensions)
	return httputil.Serve(ctx, srv, deps.Config.ShutdownTimeout)
}

func newRouter(deps app.Deps) *chi.Mux {
	r := httputil.NewRouter(deps.Log, deps.Config.RequestTimeout)

	r.Post("/embeddings", embeddingsHandler(deps))
	r.Post("/embeddings/document", documentHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	return r
}

func embeddingsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := io.Reader(r.Body)
		if deps.Config.MaxBodySize > 0 {
			body = http.MaxBytesReader(w, r.Body, deps.Config.MaxBodySize)
		}

		q, err := api.DecodeQuery(body)
		if err != nil {
			httputil.WriteError(deps.Log, w, err)
			return
		}

		resp, err := api.Embed(r.Context(), deps.Embedder, q)
		if err != nil {
			httputil.WriteError(deps.Log, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

func documentHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize)

		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), err, http.StatusRequestEntityTooLarge)
				return
			}
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		contentType, err := document.DetectType(header.Filename, header.Header.Get("Content-Type"))
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusUnsupportedMediaType)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := document.Extract(contentType, content)
		if err != nil {
			httputil.Fail(deps.Log.With("filename", header.Filename), w, "could not extract text from document", err, http.StatusUnprocessableEntity)
			return
		}

		q, err := api.ValidateText(&text)
		if err != nil {
			httputil.WriteError(deps.Log, w, err)
			return
		}
		resp, err := api.Embed(r.Context(), deps.Embedder, q)
		if err != nil {
			httputil.WriteError(deps.Log, w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
