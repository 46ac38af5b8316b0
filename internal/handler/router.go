package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/org-chart-api/internal/metrics"
	"github.com/org-chart-api/internal/middleware"
)

// Router настраивает маршруты API
type Router struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	metrics      *metrics.Collector
	empHandler   *EmployeeHandler
	chartHandler *ChartHandler
}

// NewRouter создаёт новый роутер
func NewRouter(empHandler *EmployeeHandler, chartHandler *ChartHandler, collector *metrics.Collector, logger *slog.Logger) *Router {
	return &Router{
		mux:          http.NewServeMux(),
		logger:       logger,
		metrics:      collector,
		empHandler:   empHandler,
		chartHandler: chartHandler,
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	// Регистрируем обработчики
	r.mux.HandleFunc("/employees", r.employeesRouter)
	r.mux.HandleFunc("/employees/", r.employeesRouter)
	r.mux.HandleFunc("/chart", r.chartRouter)
	r.mux.HandleFunc("/chart/", r.chartRouter)

	// Health check
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if r.metrics != nil {
		r.mux.Handle("/metrics", r.metrics.Handler())
	}

	// Применяем middleware
	handler := middleware.ContentType(r.mux)
	handler = middleware.Metrics(r.metrics)(handler)
	handler = middleware.Logger(r.logger)(handler)
	handler = middleware.Recoverer(r.logger)(handler)

	return handler
}

// employeesRouter обрабатывает все запросы к /employees
func (r *Router) employeesRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/employees")
	path = strings.Trim(path, "/")

	if path == "" {
		switch req.Method {
		case http.MethodGet:
			r.empHandler.List(w, req)
		case http.MethodPost:
			r.empHandler.Create(w, req)
		default:
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		}
		return
	}

	// Разбираем путь: может быть {id} или {id}/manager
	parts := strings.Split(path, "/")

	if len(parts) == 1 {
		if req.Method == http.MethodGet {
			r.empHandler.GetByID(w, req)
			return
		}
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	if len(parts) == 2 && parts[1] == "manager" {
		if req.Method == http.MethodPatch || req.Method == http.MethodPut {
			r.empHandler.ChangeManager(w, req)
			return
		}
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

// chartRouter обрабатывает запросы к /chart
func (r *Router) chartRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/chart")
	path = strings.Trim(path, "/")

	switch {
	case path == "" && req.Method == http.MethodGet:
		r.chartHandler.Get(w, req)
	case path == "reset" && req.Method == http.MethodPost:
		r.chartHandler.Reset(w, req)
	case path == "svg" && req.Method == http.MethodGet:
		r.chartHandler.Render(w, req)
	case path == "" || path == "reset" || path == "svg":
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
	default:
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}
}
