package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/hub"
	"github.com/halcyard/windrose/internal/orchestrator"
	"github.com/halcyard/windrose/internal/provider"
	"github.com/halcyard/windrose/internal/store"
	"github.com/halcyard/windrose/internal/task"
	"github.com/halcyard/windrose/internal/travel"
)

// TripStore reads and deletes persisted plans. Nil when Postgres is not
// configured.
type TripStore interface {
	GetTrip(ctx context.Context, id string) (*orchestrator.PlanResult, error)
	ListTrips(ctx context.Context, limit int) ([]store.TripRecord, error)
	DeleteTrip(ctx context.Context, id string) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	tasks   *task.Manager
	planner *orchestrator.Orchestrator
	hub     *hub.Hub
	router  *provider.Router      // optional
	trips   TripStore             // optional
	recall  orchestrator.Recaller // optional
	logger  *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	tasks *task.Manager,
	planner *orchestrator.Orchestrator,
	h *hub.Hub,
	router *provider.Router,
	trips TripStore,
	recall orchestrator.Recaller,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		tasks:   tasks,
		planner: planner,
		hub:     h,
		router:  router,
		trips:   trips,
		recall:  recall,
		logger:  logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", h.index)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		// Planning routes
		r.Post("/plan", h.submitPlan)
		r.Get("/status/{taskID}", h.taskStatus)
		r.Get("/tasks", h.listTasks)
		r.Get("/download/{taskID}", h.downloadPlan)
		r.Post("/simple-plan", h.simplePlan)
		r.Post("/mock-plan", h.mockPlan)

		// Introspection routes
		r.Get("/agents", h.listAgents)
		r.Get("/providers", h.listProviders)

		// Stored trip routes
		r.Get("/trips", h.listTrips)
		r.Get("/trips/similar", h.similarTrips)
		r.Get("/trips/{id}", h.getTrip)
		r.Delete("/trips/{id}", h.deleteTrip)
	})

	return r
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "windrose",
		"message": "多智能体旅行规划服务",
		"endpoints": []string{
			"POST /api/plan",
			"GET /api/status/{taskID}",
			"GET /api/tasks",
			"GET /api/download/{taskID}",
			"POST /api/simple-plan",
			"POST /api/mock-plan",
			"GET /api/agents",
			"GET /api/providers",
			"GET /api/trips",
		},
	})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.hub.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"agents": status.Agents,
	})
}

type planRequest struct {
	travel.TripRequest
	Engine string `json:"engine,omitempty"` // "society" (default) or "graph"
}

func (h *Handler) submitPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	engine := task.EngineSociety
	if req.Engine == string(task.EngineGraph) {
		engine = task.EngineGraph
	}

	t, err := h.tasks.Submit(&req.TripRequest, engine)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": t.ID,
		"status":  string(t.Status),
	})
}

func (h *Handler) taskStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")
	t, err := h.tasks.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tasks.List())
}

// downloadPlan serves the finished plan as an attachment. It stays 404
// until the task completes.
func (h *Handler) downloadPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")
	t, err := h.tasks.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if t.Status != task.StatusDone {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":  "plan not ready",
			"status": string(t.Status),
		})
		return
	}

	var payload interface{} = t.Result
	if t.Result == nil {
		payload = t.GraphResult
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=plan-%s.json", id))
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

// simplePlan runs the estimator pipeline synchronously, no agents involved.
func (h *Handler) simplePlan(w http.ResponseWriter, r *http.Request) {
	var req travel.TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result, err := h.planner.QuickPlan(r.Context(), &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// mockPlan returns an instant canned plan for frontend work. Request fields
// are optional, missing ones fall back to a fixed sample trip.
func (h *Handler) mockPlan(w http.ResponseWriter, r *http.Request) {
	req := travel.TripRequest{
		Destination: "北京",
		StartDate:   "2026-10-01",
		EndDate:     "2026-10-03",
		Budget:      travel.TierMid,
		Interests:   []string{"历史", "美食"},
		GroupSize:   2,
	}
	// Body is optional for the mock endpoint.
	_ = json.NewDecoder(r.Body).Decode(&req)

	result, err := h.planner.QuickPlan(r.Context(), &req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result.Engine = "mock"
	writeJSON(w, http.StatusOK, result)
}

type agentInfo struct {
	ID           string   `json:"id"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	var infos []agentInfo
	for _, a := range h.hub.Agents() {
		infos = append(infos, agentInfo{
			ID:           a.ID(),
			Role:         string(a.Role()),
			Capabilities: a.Capabilities(),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

type providerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

func (h *Handler) listProviders(w http.ResponseWriter, r *http.Request) {
	if h.router == nil {
		writeJSON(w, http.StatusOK, []providerInfo{})
		return
	}
	defaultID := h.router.DefaultID()
	infos := make([]providerInfo, 0)
	for _, p := range h.router.ListProviders() {
		infos = append(infos, providerInfo{
			ID:      p.ID(),
			Name:    p.Name(),
			Default: p.ID() == defaultID,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

var errNoStore = errors.New("trip storage not configured")

func (h *Handler) listTrips(w http.ResponseWriter, r *http.Request) {
	if h.trips == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": errNoStore.Error()})
		return
	}
	records, err := h.trips.ListTrips(r.Context(), 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if records == nil {
		records = []store.TripRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) getTrip(w http.ResponseWriter, r *http.Request) {
	if h.trips == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": errNoStore.Error()})
		return
	}
	id := chi.URLParam(r, "id")
	plan, err := h.trips.GetTrip(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) deleteTrip(w http.ResponseWriter, r *http.Request) {
	if h.trips == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": errNoStore.Error()})
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.trips.DeleteTrip(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) similarTrips(w http.ResponseWriter, r *http.Request) {
	if h.recall == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "trip recall not configured"})
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q parameter is required"})
		return
	}
	matches, err := h.recall.Similar(r.Context(), query, 5)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if matches == nil {
		matches = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"query": query, "matches": matches})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
