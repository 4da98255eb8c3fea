package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/reportkit/dashboard/internal/charts"
	"github.com/reportkit/dashboard/internal/export"
	"github.com/reportkit/dashboard/internal/schema"
	"github.com/reportkit/dashboard/internal/storage"
)

type Server struct {
	gateway   *storage.Gateway
	exporter  *export.Exporter
	gen       *charts.Generator
	log       *zap.Logger
	metrics   *Metrics
	registry  *prometheus.Registry
	templates map[string]*template.Template
}

func NewServer(gateway *storage.Gateway, exporter *export.Exporter, log *zap.Logger, rootDir string) *Server {
	// Load templates - each page needs its own template that includes layout
	templatesDir := filepath.Join(rootDir, "web/templates")
	templates := make(map[string]*template.Template)

	pages := []string{
		"index.html",
		"dashboard.html",
	}

	layoutPath := filepath.Join(templatesDir, "layout.html")
	for _, page := range pages {
		t := template.Must(template.ParseFiles(layoutPath, filepath.Join(templatesDir, page)))
		templates[page] = t
	}

	registry := prometheus.NewRegistry()

	return &Server{
		gateway:   gateway,
		exporter:  exporter,
		gen:       charts.NewGenerator(),
		log:       log,
		metrics:   NewMetrics(registry),
		registry:  registry,
		templates: templates,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.metrics.Middleware)

	// Pages
	r.Get("/", s.handleIndex)
	r.Get("/dashboard/{id}", s.handleDashboardPage)

	// API routes
	r.Get("/api/dashboard/{id}", s.handleGetDashboardAPI)
	r.Post("/api/dashboard/{id}", s.handleSaveDashboardAPI)
	r.Get("/api/dashboards", s.handleListDashboardsAPI)
	r.Get("/api/dashboard/{id}/export", s.handleExportAPI)

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

func (s *Server) handleGetDashboardAPI(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	state, err := s.gateway.Load(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Dashboard not found")
		return
	}
	if err != nil {
		s.log.Error("failed to load dashboard", zap.String("id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch dashboard data")
		return
	}

	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSaveDashboardAPI(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var state schema.DashboardState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid dashboard data")
		return
	}

	if err := s.gateway.Save(r.Context(), id, state); err != nil {
		if errors.Is(err, storage.ErrInvalidState) {
			s.writeError(w, http.StatusBadRequest, "Invalid dashboard data")
			return
		}
		s.log.Error("failed to save dashboard", zap.String("id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to save dashboard data")
		return
	}

	s.log.Info("saved dashboard", zap.String("id", id))
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListDashboardsAPI(w http.ResponseWriter, r *http.Request) {
	all, err := s.gateway.ListAll(r.Context())
	if err != nil {
		s.log.Error("failed to list dashboards", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch dashboards")
		return
	}
	if all == nil {
		all = []schema.DashboardState{}
	}
	s.writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleExportAPI(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	state, err := s.gateway.Load(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Dashboard not found")
		return
	}
	if err != nil {
		s.log.Error("failed to load dashboard", zap.String("id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch dashboard data")
		return
	}

	// Invariant violations never block an export.
	artifact, err := s.exporter.Export(r.Context(), state, nil)
	if errors.Is(err, export.ErrExportInFlight) {
		s.writeError(w, http.StatusConflict, "Export already in progress")
		return
	}
	if err != nil {
		s.log.Error("failed to export dashboard", zap.String("id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to export dashboard")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.Write(artifact.PNG)
}

// Page handlers

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	all, err := s.gateway.ListAll(r.Context())
	if err != nil {
		s.log.Error("failed to list dashboards", zap.Error(err))
		http.Error(w, "Failed to load dashboards", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Count": len(all),
	}
	s.render(w, "index.html", data)
}

type widgetView struct {
	Name    string
	Chart   template.HTML
	HasData bool
	Total   int
	Remark  string
}

func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	state, err := s.gateway.Load(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Dashboard not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("failed to load dashboard", zap.String("id", id), zap.Error(err))
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	overall := charts.FromTestCases(state.TestCases)

	env := "NoEnv"
	if state.Config.Environment != nil {
		env = string(*state.Config.Environment)
	}
	site := "NoSite"
	if state.Config.Site != nil {
		site = string(*state.Config.Site)
	}

	widgets := []widgetView{
		s.widgetView("Telemetry", state.Widgets.Telemetry, state.Remarks.Telemetry),
		s.widgetView("Inbound", state.Widgets.Inbound, state.Remarks.Inbound),
		s.widgetView("Outbound", state.Widgets.Outbound, state.Remarks.Outbound),
	}

	data := map[string]interface{}{
		"ID":             id,
		"Environment":    env,
		"Site":           site,
		"State":          state,
		"OverallChart":   template.HTML(s.gen.DistributionPie("Overall", overall)),
		"OverallHasData": overall.HasData(),
		"OverallTotal":   overall.Total(),
		"OverallRemark":  state.Remarks.Overall,
		"Widgets":        widgets,
	}
	s.render(w, "dashboard.html", data)
}

func (s *Server) widgetView(name string, data schema.WidgetData, remark string) widgetView {
	b := charts.FromWidget(data)
	return widgetView{
		Name:    name,
		Chart:   template.HTML(s.gen.DistributionPie(name, b)),
		HasData: b.HasData(),
		Total:   b.Total(),
		Remark:  remark,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) render(w http.ResponseWriter, page string, data interface{}) {
	t, ok := s.templates[page]
	if !ok {
		s.log.Error("template not found", zap.String("page", page))
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		s.log.Error("template error", zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
