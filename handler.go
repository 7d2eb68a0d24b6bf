package transform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	OutcomeOK          = "ok"
	OutcomeFailed      = "failed"
	OutcomeUnsupported = "unsupported"
	OutcomeCanceled    = "canceled"
)

// Observer receives the outcome of every transformation. pair is either a
// registered Pair or OutcomeUnsupported, never caller supplied text.
type Observer interface {
	ObserveTransform(pair string, outcome string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveTransform(string, string, time.Duration) {}

type HandlerOption func(*Handler)

func WithObserver(o Observer) HandlerOption {
	return func(h *Handler) {
		if o != nil {
			h.observer = o
		}
	}
}

// Handler resolves requests against a Registry and answers with the
// output/message envelope. Failures are reported in the payload, the
// transport status is always 200.
type Handler struct {
	logger   *zap.Logger
	registry *Registry
	observer Observer
}

func NewHandler(logger *zap.Logger, registry *Registry, opts ...HandlerOption) *Handler {
	h := &Handler{
		logger:   logger.Named("handler"),
		registry: registry,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle runs one request to completion.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	start := time.Now()

	capability, ok := h.registry.Resolve(req.From, req.To)
	if !ok {
		h.logger.Debug("Transform pair not supported",
			zap.String("from", req.From),
			zap.String("to", req.To),
		)
		h.observer.ObserveTransform(OutcomeUnsupported, OutcomeUnsupported, time.Since(start))
		return Failure(ErrUnsupported.Error())
	}

	pair := Pair{From: req.From, To: req.To}.String()

	output, err := capability.Transform(ctx, req.Input, req.TransformOptions, req.formatOptions())
	if errors.Is(err, context.Canceled) {
		// client went away, nobody reads the response
		h.logger.Debug("Transform canceled",
			zap.String("from", req.From),
			zap.String("to", req.To),
		)
		h.observer.ObserveTransform(pair, OutcomeCanceled, time.Since(start))
		return Failure(err.Error())
	}
	if err != nil {
		h.logger.Error("Transform failed",
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Error(err),
		)
		h.observer.ObserveTransform(pair, OutcomeFailed, time.Since(start))
		return Failure(err.Error())
	}

	h.observer.ObserveTransform(pair, OutcomeOK, time.Since(start))
	return Success(output)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		h.logger.Warn("Invalid transform request", zap.Error(err))
		writeJSON(w, Failure("invalid request: "+err.Error()))
		return
	}

	writeJSON(w, h.Handle(r.Context(), req))
}

// Pairs lists the registered pairs.
func (h *Handler) Pairs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.registry.Pairs())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
