// Package memstore is an in-memory implementation of the storage contracts.
// It backs local runs with STORAGE_BACKEND=memory and the tests of the
// packages that consume storage.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/storage"
	"github.com/google/uuid"
)

// Operation names accepted by FailOn
const (
	OpListGoals      = "list_goals"
	OpGetGoal        = "get_goal"
	OpCreateGoal     = "create_goal"
	OpUpdateGoal     = "update_goal"
	OpDeleteGoal     = "delete_goal"
	OpAppendProgress = "append_progress"
	OpListProgress   = "list_progress"
	OpGetProfile     = "get_profile"
)

type goalRecord struct {
	goal *models.Goal
	seq  int64
}

type state struct {
	goals   map[uuid.UUID]goalRecord
	history []*models.GoalProgressEntry
}

func (s state) clone() state {
	c := state{
		goals:   make(map[uuid.UUID]goalRecord, len(s.goals)),
		history: make([]*models.GoalProgressEntry, len(s.history)),
	}
	for id, rec := range s.goals {
		c.goals[id] = rec
	}
	copy(c.history, s.history)
	return c
}

// Store keeps goals, progress history and profiles in memory.
// It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	state    state
	seq      int64
	profiles map[uuid.UUID]*models.Profile
	now      func() time.Time

	faults    map[string]error
	conflicts int
}

var (
	_ storage.TxGoalStore  = (*Store)(nil)
	_ storage.ProfileStore = (*Store)(nil)
)

// New creates an empty store
func New() *Store {
	return &Store{
		state:    state{goals: make(map[uuid.UUID]goalRecord)},
		profiles: make(map[uuid.UUID]*models.Profile),
		now:      time.Now,
		faults:   make(map[string]error),
	}
}

// SetClock overrides the clock used for CreatedAt / UpdatedAt stamps
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailOn makes every call of op return err until cleared with a nil err
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// InjectConflicts makes the next n UpdateGoal calls fail with storage.ErrConflict
func (s *Store) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = n
}

// PutProfile stores or replaces a profile
func (s *Store) PutProfile(p *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	c.Preferences.TrainingPreferences.TrainingGoals = append([]string(nil), p.Preferences.TrainingPreferences.TrainingGoals...)
	s.profiles[p.UserID] = &c
}

// HistoryLen returns the total number of progress entries across all users
func (s *Store) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.history)
}

func (s *Store) ListGoals(ctx context.Context, userID uuid.UUID, filter models.GoalFilter) ([]*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listGoals(ctx, userID, filter)
}

func (s *Store) GetGoal(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getGoal(ctx, userID, goalID)
}

func (s *Store) CreateGoal(ctx context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createGoal(ctx, goal)
}

func (s *Store) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateGoal(ctx, goal)
}

func (s *Store) DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteGoal(ctx, userID, goalID)
}

func (s *Store) AppendProgress(ctx context.Context, entry *models.GoalProgressEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendProgress(ctx, entry)
}

func (s *Store) ListProgress(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listProgress(ctx, userID, goalID, limit)
}

// GetProfile returns a copy of the user's profile
func (s *Store) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpGetProfile); err != nil {
		return nil, err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *p
	c.Preferences.TrainingPreferences.TrainingGoals = append([]string(nil), p.Preferences.TrainingPreferences.TrainingGoals...)
	return &c, nil
}

// InTx runs fn with the store locked. Every write made through the view is
// discarded if fn returns an error.
func (s *Store) InTx(ctx context.Context, fn func(storage.GoalStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	seq := s.seq
	if err := fn(txView{s: s}); err != nil {
		s.state = snapshot
		s.seq = seq
		return err
	}
	return nil
}

// txView exposes the unlocked operations to a transaction body
type txView struct {
	s *Store
}

func (v txView) ListGoals(ctx context.Context, userID uuid.UUID, filter models.GoalFilter) ([]*models.Goal, error) {
	return v.s.listGoals(ctx, userID, filter)
}

func (v txView) GetGoal(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error) {
	return v.s.getGoal(ctx, userID, goalID)
}

func (v txView) CreateGoal(ctx context.Context, goal *models.Goal) error {
	return v.s.createGoal(ctx, goal)
}

func (v txView) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	return v.s.updateGoal(ctx, goal)
}

func (v txView) DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) error {
	return v.s.deleteGoal(ctx, userID, goalID)
}

func (v txView) AppendProgress(ctx context.Context, entry *models.GoalProgressEntry) error {
	return v.s.appendProgress(ctx, entry)
}

func (v txView) ListProgress(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error) {
	return v.s.listProgress(ctx, userID, goalID, limit)
}

// check returns the injected fault for op, or the context error
func (s *Store) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.faults[op]
}

func (s *Store) listGoals(ctx context.Context, userID uuid.UUID, filter models.GoalFilter) ([]*models.Goal, error) {
	if err := s.check(ctx, OpListGoals); err != nil {
		return nil, err
	}
	records := make([]goalRecord, 0)
	for _, rec := range s.state.goals {
		if rec.goal.UserID == userID && filter.Matches(rec.goal) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	out := make([]*models.Goal, len(records))
	for i, rec := range records {
		out[i] = rec.goal.Clone()
	}
	models.SortGoals(out)
	return out, nil
}

func (s *Store) getGoal(ctx context.Context, userID, goalID uuid.UUID) (*models.Goal, error) {
	if err := s.check(ctx, OpGetGoal); err != nil {
		return nil, err
	}
	rec, ok := s.state.goals[goalID]
	if !ok || rec.goal.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return rec.goal.Clone(), nil
}

func (s *Store) createGoal(ctx context.Context, goal *models.Goal) error {
	if err := s.check(ctx, OpCreateGoal); err != nil {
		return err
	}
	if _, exists := s.state.goals[goal.ID]; exists {
		return storage.ErrConflict
	}
	now := s.now()
	goal.Version = 1
	goal.CreatedAt = now
	goal.UpdatedAt = now

	s.seq++
	s.state.goals[goal.ID] = goalRecord{goal: goal.Clone(), seq: s.seq}
	return nil
}

func (s *Store) updateGoal(ctx context.Context, goal *models.Goal) error {
	if err := s.check(ctx, OpUpdateGoal); err != nil {
		return err
	}
	rec, ok := s.state.goals[goal.ID]
	if !ok || rec.goal.UserID != goal.UserID {
		return storage.ErrNotFound
	}
	if s.conflicts > 0 {
		s.conflicts--
		return storage.ErrConflict
	}
	if rec.goal.Version != goal.Version {
		return storage.ErrConflict
	}

	goal.Version++
	goal.UpdatedAt = s.now()
	goal.CreatedAt = rec.goal.CreatedAt
	s.state.goals[goal.ID] = goalRecord{goal: goal.Clone(), seq: rec.seq}
	return nil
}

func (s *Store) deleteGoal(ctx context.Context, userID, goalID uuid.UUID) error {
	if err := s.check(ctx, OpDeleteGoal); err != nil {
		return err
	}
	rec, ok := s.state.goals[goalID]
	if !ok || rec.goal.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.state.goals, goalID)
	return nil
}

func (s *Store) appendProgress(ctx context.Context, entry *models.GoalProgressEntry) error {
	if err := s.check(ctx, OpAppendProgress); err != nil {
		return err
	}
	c := *entry
	if entry.Note != nil {
		note := *entry.Note
		c.Note = &note
	}
	s.state.history = append(s.state.history, &c)
	return nil
}

func (s *Store) listProgress(ctx context.Context, userID, goalID uuid.UUID, limit int) ([]*models.GoalProgressEntry, error) {
	if err := s.check(ctx, OpListProgress); err != nil {
		return nil, err
	}
	out := make([]*models.GoalProgressEntry, 0)
	for i := len(s.state.history) - 1; i >= 0; i-- {
		e := s.state.history[i]
		if e.UserID != userID || e.GoalID != goalID {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
