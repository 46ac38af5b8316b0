package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/org-chart-api/internal/domain"
	"github.com/org-chart-api/internal/dto"
)

// responder - общие методы формирования JSON-ответов
type responder struct {
	logger *slog.Logger
}

func (h *responder) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmployeeNotFound):
		h.respondError(w, http.StatusNotFound, "employee not found", "")
	case errors.Is(err, domain.ErrManagerNotFound):
		h.respondError(w, http.StatusNotFound, "manager not found", "")
	case errors.Is(err, domain.ErrDuplicateEmployeeID):
		h.respondError(w, http.StatusConflict, "employee with this employee_id already exists", "")
	case errors.Is(err, domain.ErrSelfReference):
		h.respondError(w, http.StatusBadRequest, "employee cannot be their own manager", "")
	case errors.Is(err, domain.ErrCycle):
		h.respondError(w, http.StatusConflict, "change would create a reporting cycle", err.Error())
	case domain.IsHierarchyError(err):
		h.respondError(w, http.StatusUnprocessableEntity, "invalid hierarchy", err.Error())
	case errors.Is(err, domain.ErrChartNotLoaded):
		h.respondError(w, http.StatusServiceUnavailable, "org chart is not loaded", "")
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func (h *responder) respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *responder) respondError(w http.ResponseWriter, status int, errMsg, details string) {
	w.WriteHeader(status)
	resp := dto.ErrorResponse{Error: errMsg}
	if details != "" {
		resp.Message = details
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode error response", slog.Any("error", err))
	}
}

func toEmployeeResponse(emp *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:          emp.ID,
		EmployeeID:  emp.EmployeeID,
		FullName:    emp.FullName,
		Department:  emp.Department,
		Designation: emp.Designation,
		ManagerID:   emp.ManagerID,
		CreatedAt:   emp.CreatedAt,
	}
}

func toLayoutResponse(layout *domain.Layout) dto.LayoutResponse {
	resp := dto.LayoutResponse{
		Nodes:  make([]dto.NodeResponse, len(layout.Nodes)),
		Edges:  make([]dto.EdgeResponse, len(layout.Edges)),
		Levels: layout.Levels,
	}

	for i, n := range layout.Nodes {
		resp.Nodes[i] = dto.NodeResponse{
			ID:       n.ID,
			Employee: toEmployeeResponse(&n.Employee),
			Depth:    n.Depth,
			X:        n.X,
			Y:        n.Y,
		}
	}

	for i, e := range layout.Edges {
		resp.Edges[i] = dto.EdgeResponse{
			ID:       e.ID,
			SourceID: e.SourceID,
			TargetID: e.TargetID,
		}
	}

	return resp
}
