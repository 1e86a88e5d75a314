package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/internal/repository"
	"github.com/ironlog/pkg/entity"
)

const (
	// Quiet period per field key before an edit is written out
	debounceDelay = 500 * time.Millisecond
	// How long the transient "saved" checkmark stays up
	savedTTL = 2 * time.Second
	// Timeout on the store call behind each write
	writeTimeout = 10 * time.Second

	fieldCompleted = "completed"
	fieldReps      = "reps"
	fieldWeight    = "weight"
)

// SessionController owns the exercise list of one workout session and
// drives the autosave pipeline: optimistic local mutation, per-field
// debounced persistence, saving/saved indicator state.
//
// Field keys have the form "{exerciseID}-{field}" so indicators scope to
// a single editable cell. Per key there is at most one pending debounce
// timer and at most one in-flight write: an edit landing while a write
// is outstanding parks in a single pending slot and is issued when the
// write returns, newest payload winning.
//
// A failed write leaves the optimistic local value in place and raises
// the session-level error message. There is no reconciliation fetch.
type SessionController struct {
	sessionID     uuid.UUID
	sessionsRepo  repository.SessionsRepositoryI
	exercisesRepo repository.SessionExercisesRepositoryI
	debounce      time.Duration
	savedFor      time.Duration

	mu             sync.Mutex
	exercises      []*entity.SessionExercise
	loading        bool
	errMsg         string
	savingFields   map[string]struct{}
	savedFields    map[string]struct{}
	debounceTimers map[string]*time.Timer
	debouncePatch  map[string]*entity.ExercisePatch
	debounceRow    map[string]uuid.UUID
	debounceGen    map[string]uint64
	savedTimers    map[string]*time.Timer
	inflight       map[string]struct{}
	pendingPatch   map[string]*entity.ExercisePatch
	pendingRow     map[string]uuid.UUID
	prevCompleted  int
	justCompleted  bool
	closed         bool
	onComplete     func()
}

func NewSessionController(sessionID uuid.UUID, sessionsRepo repository.SessionsRepositoryI, exercisesRepo repository.SessionExercisesRepositoryI) *SessionController {
	return NewSessionControllerWithTimings(sessionID, sessionsRepo, exercisesRepo, debounceDelay, savedTTL)
}

func NewSessionControllerWithTimings(sessionID uuid.UUID, sessionsRepo repository.SessionsRepositoryI, exercisesRepo repository.SessionExercisesRepositoryI, debounce, savedFor time.Duration) *SessionController {
	if sessionsRepo == nil || exercisesRepo == nil {
		log.Fatal("on session controller provided nil repos")
	}
	return &SessionController{
		sessionID:      sessionID,
		sessionsRepo:   sessionsRepo,
		exercisesRepo:  exercisesRepo,
		debounce:       debounce,
		savedFor:       savedFor,
		exercises:      make([]*entity.SessionExercise, 0),
		savingFields:   make(map[string]struct{}),
		savedFields:    make(map[string]struct{}),
		debounceTimers: make(map[string]*time.Timer),
		debouncePatch:  make(map[string]*entity.ExercisePatch),
		debounceRow:    make(map[string]uuid.UUID),
		debounceGen:    make(map[string]uint64),
		savedTimers:    make(map[string]*time.Timer),
		inflight:       make(map[string]struct{}),
		pendingPatch:   make(map[string]*entity.ExercisePatch),
		pendingRow:     make(map[string]uuid.UUID),
	}
}

func (c *SessionController) SessionID() uuid.UUID {
	return c.sessionID
}

// SetOnComplete registers the one-shot callback fired when the session
// transitions to fully completed.
func (c *SessionController) SetOnComplete(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = f
}

// Load replaces the local list with the session's rows ordered by
// order_index. A failure is kept as controller error state as well as
// returned.
func (c *SessionController) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	exercises, err := c.exercisesRepo.GetBySessionID(ctx, c.sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = "Failed to load exercises"
		return errors.New("session exercises repository error: " + err.Error())
	}
	c.exercises = exercises
	// Remember the completed count so reloading an already finished
	// session does not refire the completion signal
	c.prevCompleted = countCompleted(exercises)
	return nil
}

// ToggleCompleted flips the completed flag and commits immediately,
// checkbox semantics: no debouncing, two toggles mean two writes.
func (c *SessionController) ToggleCompleted(exerciseID uuid.UUID) error {
	c.mu.Lock()
	ex := c.findLocked(exerciseID)
	if ex == nil {
		c.mu.Unlock()
		return errorvalues.ErrExerciseNotFound
	}
	ex.Completed = !ex.Completed
	newVal := ex.Completed
	fire := c.completionTransitionLocked()
	key := fieldKey(exerciseID, fieldCompleted)
	c.cancelDebounceLocked(key)
	c.startWriteLocked(key, exerciseID, &entity.ExercisePatch{Completed: &newVal})
	c.mu.Unlock()

	if fire != nil {
		fire()
	}
	return nil
}

// SetActualReps applies the raw input locally right away and schedules
// a debounced write. Empty input clears the value, unparsable input is
// normalized to a cleared value too.
func (c *SessionController) SetActualReps(exerciseID uuid.UUID, raw string) error {
	reps := parseReps(raw)
	c.mu.Lock()
	defer c.mu.Unlock()
	ex := c.findLocked(exerciseID)
	if ex == nil {
		return errorvalues.ErrExerciseNotFound
	}
	ex.ActualReps = reps
	c.scheduleLocked(fieldKey(exerciseID, fieldReps), exerciseID, &entity.ExercisePatch{
		ActualReps:    reps,
		ActualRepsSet: true,
	})
	return nil
}

// SetActualWeight mirrors SetActualReps for the weight field, decimals
// allowed.
func (c *SessionController) SetActualWeight(exerciseID uuid.UUID, raw string) error {
	weight := parseWeight(raw)
	c.mu.Lock()
	defer c.mu.Unlock()
	ex := c.findLocked(exerciseID)
	if ex == nil {
		return errorvalues.ErrExerciseNotFound
	}
	ex.ActualWeight = weight
	c.scheduleLocked(fieldKey(exerciseID, fieldWeight), exerciseID, &entity.ExercisePatch{
		ActualWeight:    weight,
		ActualWeightSet: true,
	})
	return nil
}

// AdjustReps bumps the actual reps by delta, starting from the target
// (or zero) when no actual value is set yet, floored at zero. Each tap
// is a deliberate action, so the write is immediate.
func (c *SessionController) AdjustReps(exerciseID uuid.UUID, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ex := c.findLocked(exerciseID)
	if ex == nil {
		return errorvalues.ErrExerciseNotFound
	}
	base := 0
	if ex.ActualReps != nil {
		base = *ex.ActualReps
	} else if ex.TargetReps != nil {
		base = *ex.TargetReps
	}
	v := base + delta
	if v < 0 {
		v = 0
	}
	ex.ActualReps = &v
	key := fieldKey(exerciseID, fieldReps)
	c.cancelDebounceLocked(key)
	c.startWriteLocked(key, exerciseID, &entity.ExercisePatch{
		ActualReps:    &v,
		ActualRepsSet: true,
	})
	return nil
}

// AdjustWeight is AdjustReps for the weight field.
func (c *SessionController) AdjustWeight(exerciseID uuid.UUID, delta float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ex := c.findLocked(exerciseID)
	if ex == nil {
		return errorvalues.ErrExerciseNotFound
	}
	base := 0.0
	if ex.ActualWeight != nil {
		base = *ex.ActualWeight
	} else if ex.TargetWeight != nil {
		base = *ex.TargetWeight
	}
	v := base + delta
	if v < 0 {
		v = 0
	}
	ex.ActualWeight = &v
	key := fieldKey(exerciseID, fieldWeight)
	c.cancelDebounceLocked(key)
	c.startWriteLocked(key, exerciseID, &entity.ExercisePatch{
		ActualWeight:    &v,
		ActualWeightSet: true,
	})
	return nil
}

// Delete tears the controller down and removes the session. Exercise
// rows cascade in the store.
func (c *SessionController) Delete(ctx context.Context) error {
	c.Close()
	err := c.sessionsRepo.Delete(ctx, c.sessionID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrSessionNotFound) {
			return err
		}
		return errors.New("sessions repository error: " + err.Error())
	}
	return nil
}

// Close cancels all pending timers so nothing fires against a torn-down
// session. Safe to call more than once.
func (c *SessionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for key, timer := range c.debounceTimers {
		timer.Stop()
		delete(c.debounceTimers, key)
		delete(c.debouncePatch, key)
		delete(c.debounceRow, key)
	}
	for key, timer := range c.savedTimers {
		timer.Stop()
		delete(c.savedTimers, key)
	}
	for key := range c.pendingPatch {
		delete(c.pendingPatch, key)
		delete(c.pendingRow, key)
	}
}

// Exercises returns a copy of the current list in order.
func (c *SessionController) Exercises() []entity.SessionExercise {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entity.SessionExercise, 0, len(c.exercises))
	for _, ex := range c.exercises {
		out = append(out, *ex)
	}
	return out
}

// Progress reports completedCount, totalCount and the percentage, zero
// percent for an empty session.
func (c *SessionController) Progress() (int, int, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	completed := countCompleted(c.exercises)
	total := len(c.exercises)
	if total == 0 {
		return 0, 0, 0
	}
	return completed, total, float64(completed) / float64(total) * 100
}

func (c *SessionController) SavingFields() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.savingFields)
}

func (c *SessionController) SavedFields() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.savedFields)
}

func (c *SessionController) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *SessionController) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *SessionController) findLocked(exerciseID uuid.UUID) *entity.SessionExercise {
	for _, ex := range c.exercises {
		if ex.ID == exerciseID {
			return ex
		}
	}
	return nil
}

// scheduleLocked arms the trailing-edge debounce for a field key. A new
// edit replaces the prior timer and payload entirely.
func (c *SessionController) scheduleLocked(key string, exerciseID uuid.UUID, patch *entity.ExercisePatch) {
	if c.closed {
		return
	}
	if timer, ok := c.debounceTimers[key]; ok {
		timer.Stop()
	}
	c.debouncePatch[key] = patch
	c.debounceRow[key] = exerciseID
	c.debounceGen[key]++
	gen := c.debounceGen[key]
	c.debounceTimers[key] = time.AfterFunc(c.debounce, func() {
		c.flushDebounced(key, gen)
	})
}

func (c *SessionController) cancelDebounceLocked(key string) {
	if timer, ok := c.debounceTimers[key]; ok {
		timer.Stop()
		delete(c.debounceTimers, key)
		delete(c.debouncePatch, key)
		delete(c.debounceRow, key)
	}
}

func (c *SessionController) flushDebounced(key string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// A newer edit rearmed the key while this timer was firing, its own
	// timer flushes the newer payload later
	if c.debounceGen[key] != gen {
		return
	}
	patch, ok := c.debouncePatch[key]
	if !ok || c.closed {
		return
	}
	exerciseID := c.debounceRow[key]
	delete(c.debounceTimers, key)
	delete(c.debouncePatch, key)
	delete(c.debounceRow, key)
	c.startWriteLocked(key, exerciseID, patch)
}

// startWriteLocked begins the write lifecycle for a key: mark saving,
// clear saved, issue the store call off the lock. While a write for the
// key is outstanding a newer payload parks in the pending slot instead
// of racing it.
func (c *SessionController) startWriteLocked(key string, exerciseID uuid.UUID, patch *entity.ExercisePatch) {
	if c.closed {
		return
	}
	if _, busy := c.inflight[key]; busy {
		c.pendingPatch[key] = patch
		c.pendingRow[key] = exerciseID
		return
	}
	c.inflight[key] = struct{}{}
	c.savingFields[key] = struct{}{}
	delete(c.savedFields, key)
	if timer, ok := c.savedTimers[key]; ok {
		timer.Stop()
		delete(c.savedTimers, key)
	}
	c.errMsg = ""

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		err := c.exercisesRepo.UpdateFields(ctx, exerciseID, patch)
		c.finishWrite(key, err)
	}()
}

func (c *SessionController) finishWrite(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
	delete(c.savingFields, key)
	if err != nil {
		// Optimistic local value stays, the user sees the error and
		// can re-trigger the edit
		c.errMsg = "Failed to update exercise"
	}

	// A parked edit supersedes the finished one, issue it before any
	// saved indicator shows
	if patch, ok := c.pendingPatch[key]; ok {
		exerciseID := c.pendingRow[key]
		delete(c.pendingPatch, key)
		delete(c.pendingRow, key)
		c.startWriteLocked(key, exerciseID, patch)
		return
	}
	if err != nil || c.closed {
		return
	}
	c.savedFields[key] = struct{}{}
	c.savedTimers[key] = time.AfterFunc(c.savedFor, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.savedFields, key)
		delete(c.savedTimers, key)
	})
}

// completionTransitionLocked returns the callback to fire when the
// session just became fully completed, nil otherwise. Only the
// transition fires, a completed session staying completed does not.
func (c *SessionController) completionTransitionLocked() func() {
	completed := countCompleted(c.exercises)
	total := len(c.exercises)
	fire := completed == total && total > 0 && completed > c.prevCompleted
	c.prevCompleted = completed
	if fire {
		c.justCompleted = true
		if c.onComplete != nil {
			return c.onComplete
		}
	}
	return nil
}

// ConsumeCompletion reports whether the session transitioned to fully
// completed since the last call, clearing the flag. The transition is
// observed once per trigger, matching the celebration toast.
func (c *SessionController) ConsumeCompletion() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	fired := c.justCompleted
	c.justCompleted = false
	return fired
}

func countCompleted(exercises []*entity.SessionExercise) int {
	count := 0
	for _, ex := range exercises {
		if ex.Completed {
			count++
		}
	}
	return count
}

func fieldKey(exerciseID uuid.UUID, field string) string {
	return exerciseID.String() + "-" + field
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseReps(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func parseWeight(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
