package handlers

import (
	"net/http"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/gorilla/mux"
)

// TemplateHandler serves the goal template catalog
type TemplateHandler struct {
	engine GoalEngine
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(engine GoalEngine) *TemplateHandler {
	return &TemplateHandler{engine: engine}
}

// RegisterRoutes registers template routes on a router already prefixed with /goal-templates
func (h *TemplateHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTemplates).Methods(http.MethodGet)
	r.HandleFunc("/recommended", h.RecommendedTemplates).Methods(http.MethodGet)
	r.HandleFunc("/{id}/goals", h.CreateGoalFromTemplate).Methods(http.MethodPost)
}

// ListTemplates returns every template
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}
	templates, err := h.engine.GetGoalTemplates(r.Context())
	if err != nil {
		respondEngineError(w, err, "Template")
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

// RecommendedTemplates returns templates personalized for the caller
func (h *TemplateHandler) RecommendedTemplates(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	templates, err := h.engine.GetRecommendedGoalTemplates(r.Context(), userID)
	if err != nil {
		respondEngineError(w, err, "Template")
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

// CreateGoalFromTemplate instantiates a template. The body holds optional
// customizations in the goal update format.
func (h *TemplateHandler) CreateGoalFromTemplate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	templateID := mux.Vars(r)["id"]

	var customizations *models.GoalUpdate
	var body models.GoalUpdate
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &body, true) {
			return
		}
		customizations = &body
	}

	goal, err := h.engine.CreateGoalFromTemplate(r.Context(), userID, templateID, customizations)
	if err != nil {
		respondEngineError(w, err, "Template")
		return
	}
	respondJSON(w, http.StatusCreated, goal)
}
