package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/org-chart-api/internal/service"
)

type ChartHandler struct {
	responder
	chart service.ChartService
}

func NewChartHandler(chart service.ChartService, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{
		responder: responder{logger: logger},
		chart:     chart,
	}
}

// Get пересчитывает схему из текущего справочника
func (h *ChartHandler) Get(w http.ResponseWriter, r *http.Request) {
	layout, err := h.chart.Resolve(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toLayoutResponse(layout))
}

func (h *ChartHandler) Reset(w http.ResponseWriter, r *http.Request) {
	layout, err := h.chart.Reset(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toLayoutResponse(layout))
}

func (h *ChartHandler) Render(w http.ResponseWriter, r *http.Request) {
	// рендерим в буфер, чтобы при ошибке отдать JSON, а не обрывок SVG
	var buf bytes.Buffer
	if err := h.chart.Render(r.Context(), &buf); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", h.chart.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write rendered chart", slog.Any("error", err))
	}
}
