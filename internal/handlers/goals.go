package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/benvon/smart-goals/internal/goals"
	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// GoalEngine is the goal engine surface the HTTP layer uses
type GoalEngine interface {
	GetGoals(ctx context.Context, userID uuid.UUID, filter models.GoalFilter) ([]*models.Goal, error)
	GetGoal(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error)
	CreateGoal(ctx context.Context, userID uuid.UUID, in models.GoalInput) (*models.Goal, error)
	UpdateGoal(ctx context.Context, userID, goalID uuid.UUID, u models.GoalUpdate) (*models.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) (bool, error)
	TrackGoalProgress(ctx context.Context, userID, goalID uuid.UUID, value float64, note *string) (*models.Goal, error)
	GetGoalProgressHistory(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error)
	UpdateGoalMilestone(ctx context.Context, userID, goalID uuid.UUID, milestoneID string, completed bool) (*models.Goal, error)
	GetGoalTemplates(ctx context.Context) ([]*models.GoalTemplate, error)
	GetRecommendedGoalTemplates(ctx context.Context, userID uuid.UUID) ([]*models.GoalTemplate, error)
	CreateGoalFromTemplate(ctx context.Context, userID uuid.UUID, templateID string, customizations *models.GoalUpdate) (*models.Goal, error)
}

var _ GoalEngine = (*goals.Engine)(nil)

// GoalHandler handles goal requests
type GoalHandler struct {
	engine GoalEngine
}

// NewGoalHandler creates a new goal handler
func NewGoalHandler(engine GoalEngine) *GoalHandler {
	return &GoalHandler{engine: engine}
}

// RegisterRoutes registers goal routes on a router already prefixed with /goals
func (h *GoalHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListGoals).Methods(http.MethodGet)
	r.HandleFunc("", h.CreateGoal).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.GetGoal).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.UpdateGoal).Methods(http.MethodPatch)
	r.HandleFunc("/{id}", h.DeleteGoal).Methods(http.MethodDelete)
	r.HandleFunc("/{id}/progress", h.TrackProgress).Methods(http.MethodPost)
	r.HandleFunc("/{id}/progress", h.ProgressHistory).Methods(http.MethodGet)
	r.HandleFunc("/{id}/milestones/{milestoneId}", h.UpdateMilestone).Methods(http.MethodPatch)
}

// TrackProgressRequest is a progress delta
type TrackProgressRequest struct {
	Value *float64 `json:"value"`
	Note  *string  `json:"note,omitempty"`
}

// UpdateMilestoneRequest sets a milestone's completed flag
type UpdateMilestoneRequest struct {
	Completed *bool `json:"completed"`
}

// parseGoalFilter reads category, status, priority and search query parameters
func parseGoalFilter(r *http.Request) (models.GoalFilter, error) {
	q := r.URL.Query()
	filter := models.GoalFilter{Search: strings.TrimSpace(q.Get("search"))}

	if c := q.Get("category"); c != "" {
		if err := validation.ValidateGoalCategory(c); err != nil {
			return filter, err
		}
		category := models.GoalCategory(c)
		filter.Category = &category
	}
	if s := q.Get("status"); s != "" {
		if err := validation.ValidateGoalStatus(s); err != nil {
			return filter, err
		}
		status := models.GoalStatus(s)
		filter.Status = &status
	}
	if p := q.Get("priority"); p != "" {
		if err := validation.ValidateGoalPriority(p); err != nil {
			return filter, err
		}
		priority := models.GoalPriority(p)
		filter.Priority = &priority
	}
	return filter, nil
}

// ListGoals lists the caller's goals, optionally filtered
func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	filter, err := parseGoalFilter(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	list, err := h.engine.GetGoals(r.Context(), userID, filter)
	if err != nil {
		respondEngineError(w, err, "Goal")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// CreateGoal creates a goal
func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var in models.GoalInput
	if !decodeJSON(w, r, &in, false) {
		return
	}

	goal, err := h.engine.CreateGoal(r.Context(), userID, in)
	if err != nil {
		respondEngineError(w, err, "Goal")
		return
	}
	respondJSON(w, http.StatusCreated, goal)
}

// GetGoal returns one goal
func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	goalID, ok := pathUUID(w, r, "id", "goal")
	if !ok {
		return
	}

	goal, err := h.engine.GetGoal(r.Context(), userID, goalID)
	if err != nil {
		respondEngineError(w, err, "Goal")
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// UpdateGoal applies a partial update
func (h *GoalHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	goalID, ok := pathUUID(w, r, "id", "goal")
	if !ok {
		return
	}
	var u models.GoalUpdate
	if !decodeJSON(w, r, &u, false) {
		return
	}

	goal, err := h.engine.UpdateGoal(r.Context(), userID, goalID, u)
	if err != nil {
		respondEngineError(w, err, "Goal")
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// DeleteGoal deletes a goal
func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	goalID, ok := pathUUID(w, r, "id", "goal")
	if !ok {
		return
	}

	if _, err := h.engine.DeleteGoal(r.Context(), userID, goalID); err != nil {
		respondEngineError(w, err, "Goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TrackProgress adds a progress delta to a goal
func (h *GoalHandler) TrackProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	goalID, ok := pathUUID(w, r, "id", "goal")
	if !ok {
		return
	}
	var req TrackProgressRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Value == nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "value is required")
		return
	}

	goal, err := h.engine.TrackGoalProgress(r.Context(), userID, goalID, *req.Value, req.Note)
	if err != nil {
		respondEngineError(w, err, "Goal")
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// ProgressHistory lists a goal's progress entries, newest first
func (h *GoalHandler) ProgressHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	goalID, ok := pathUUID(w, r, "id", "goal")
	if !ok {
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.engine.GetGoalProgressHistory(r.Context(), userID, goalID, limit)
	if err != nil {
		respondEngineError(w, err, "Goal")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// UpdateMilestone marks a milestone completed or not
func (h *GoalHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	goalID, ok := pathUUID(w, r, "id", "goal")
	if !ok {
		return
	}
	milestoneID := mux.Vars(r)["milestoneId"]

	var req UpdateMilestoneRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Completed == nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "completed is required")
		return
	}

	goal, err := h.engine.UpdateGoalMilestone(r.Context(), userID, goalID, milestoneID, *req.Completed)
	if err != nil {
		respondEngineError(w, err, "Goal or milestone")
		return
	}
	respondJSON(w, http.StatusOK, goal)
}
