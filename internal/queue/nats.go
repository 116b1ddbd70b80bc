package queue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// pendingMessages bounds how many delivered requests may wait for dispatch.
const pendingMessages = 256

// NewNATS constructs a NATS-backed responder.
func NewNATS(log *slog.Logger, nc *nats.Conn) Responder {
	return &natsResponder{log: log, nc: nc}
}

type natsResponder struct {
	log *slog.Logger
	nc  *nats.Conn
}

// Serve dispatches each request to its own goroutine. When ctx is done it stops
// receiving, answers requests already delivered, and waits for every handler
// to reply before returning. Handlers run with a context that is not cancelled
// by shutdown.
func (q *natsResponder) Serve(ctx context.Context, subject string, handler Handler) error {
	msgs := make(chan *nats.Msg, pendingMessages)
	sub, err := q.nc.ChanQueueSubscribe(subject, Group, msgs)
	if err != nil {
		return err
	}
	q.log.Info("serving embedding requests", "subject", subject, "group", Group)

	handlerCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	dispatch := func(msg *nats.Msg) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.handleMessage(handlerCtx, msg, handler)
		}()
	}

	for {
		select {
		case msg := <-msgs:
			dispatch(msg)
		case <-ctx.Done():
			err := sub.Unsubscribe()
		drain:
			for {
				select {
				case msg := <-msgs:
					dispatch(msg)
				default:
					break drain
				}
			}
			wg.Wait()
			return err
		}
	}
}

func (q *natsResponder) handleMessage(ctx context.Context, msg *nats.Msg, handler Handler) {
	req := toRequest(msg)
	if msg.Reply == "" {
		q.log.Warn("dropping request without reply subject", "request_id", req.ID, "subject", msg.Subject)
		return
	}
	if err := msg.Respond(handler(ctx, req)); err != nil {
		q.log.Error("failed to send reply", "request_id", req.ID, "err", err)
	}
}

func toRequest(msg *nats.Msg) Request {
	id := ""
	if msg.Header != nil {
		id = msg.Header.Get(RequestIDHeader)
	}
	if id == "" {
		id = uuid.NewString()
	}
	return Request{ID: id, Data: msg.Data}
}
