package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/locazos/stream-mate-match/internal/transport/http/errors"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.PingContext(ctx); err != nil {
			httperrors.WriteError(w, http.StatusServiceUnavailable, httperrors.CodeStoreUnavailable, "store ping failed")
			return
		}
	}
	httperrors.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}
