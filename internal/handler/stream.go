package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"classledger/internal/httputil"
	"classledger/internal/ledger"
)

// keepAliveInterval spaces SSE comment lines so proxies keep idle
// streams open.
const keepAliveInterval = 15 * time.Second

// StreamHandler exposes the live ledger subscription over SSE.
type StreamHandler struct {
	stores *ledger.Manager
	logger *slog.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(stores *ledger.Manager, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		stores: stores,
		logger: logger,
	}
}

// StreamLedger pushes a full snapshot event on every ledger change.
// The first event carries the current snapshot, so a client can render
// immediately and then just replace its state wholesale on each event.
// GET /api/ledger/stream
func (h *StreamHandler) StreamLedger(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	store, err := h.stores.Acquire(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	snapshots, unsubscribe := store.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(keepAliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-snapshots:
			if !open {
				// Store was re-scoped or shut down
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				h.logger.Error("snapshot encode failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
			flusher.Flush()
		case <-keepalive.C:
			// SSE comment line, ignored by clients
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
