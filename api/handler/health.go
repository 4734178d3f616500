package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/journal/internal/infrastructure/monitor"
	"github.com/fastygo/journal/pkg/httpcontext"
)

// StatusSource exposes the latest dependency probe.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, nil, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"services":  status.Services,
		"buffer": map[string]interface{}{
			"online": status.Buffer,
			"size":   status.BufferSize,
		},
	}

	if status.Online() {
		h.respondJSON(ctx, http.StatusOK, payload)
		return
	}
	payload["status"] = "degraded"
	h.respondJSON(ctx, http.StatusServiceUnavailable, payload)
}
