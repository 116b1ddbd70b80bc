package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"embedding-service/internal/api"
	"embedding-service/internal/app"
	"embedding-service/internal/httputil"
	"embedding-service/internal/queue"
)

// errorReply is sent back when a queued request cannot be answered.
type errorReply struct {
	Status string `json:"status"`
	Detail any    `json:"detail"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.BuildWorker(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()
	deps.Log.Info("embedding worker starting", "dimensions", deps.Dimensions)

	g, ctx := errgroup.WithContext(ctx)

	// Run queue responder
	g.Go(func() error {
		return deps.Queue.Serve(ctx, deps.Config.QueueSubject, func(ctx context.Context, req queue.Request) []byte {
			return handleRequest(ctx, deps, req)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Log, deps.Config.HealthPort, deps.Config.ShutdownTimeout)
	})

	// Wait for either to fail
	if err := g.Wait(); err != nil {
		deps.Log.Error("embedding worker stopped", "err", err)
	}
}

func handleRequest(ctx context.Context, deps app.Deps, req queue.Request) []byte {
	log := deps.Log.With("request_id", req.ID)

	q, err := api.DecodeQuery(bytes.NewReader(req.Data))
	if err != nil {
		var verr *api.ValidationError
		if errors.As(err, &verr) {
			log.Info("request validation failed", "err", err)
			return marshalReply(log, errorReply{Status: "error", Detail: verr.Details})
		}
		log.Error("failed to decode request", "err", err)
		return marshalReply(log, errorReply{Status: "error", Detail: "invalid request"})
	}

	resp, err := api.Embed(ctx, deps.Embedder, q)
	if err != nil {
		log.Error("failed to compute embedding", "err", err)
		detail := "failed to compute embedding"
		if api.IsTimeout(err) {
			detail = "embedding timed out"
		}
		return marshalReply(log, errorReply{Status: "error", Detail: detail})
	}
	log.Debug("embedding computed", "dimensions", len(resp.Data))
	return marshalReply(log, resp)
}

func marshalReply(log *slog.Logger, v any) []byte {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error("failed to marshal reply", "err", err)
		return []byte(`{"status":"error","detail":"internal error"}`)
	}
	return body
}
