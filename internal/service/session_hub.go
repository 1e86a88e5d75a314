package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/internal/repository"
)

// SessionHub keeps one live SessionController per session id so edits
// arriving in quick succession hit the same debounce state. Controllers
// are created lazily on first touch and torn down on session deletion
// or shutdown.
type SessionHub struct {
	sessionsRepo  repository.SessionsRepositoryI
	exercisesRepo repository.SessionExercisesRepositoryI
	debounce      time.Duration
	savedFor      time.Duration

	mu          sync.Mutex
	controllers map[uuid.UUID]*SessionController
}

func NewSessionHub(sessionsRepo repository.SessionsRepositoryI, exercisesRepo repository.SessionExercisesRepositoryI) *SessionHub {
	return NewSessionHubWithTimings(sessionsRepo, exercisesRepo, debounceDelay, savedTTL)
}

func NewSessionHubWithTimings(sessionsRepo repository.SessionsRepositoryI, exercisesRepo repository.SessionExercisesRepositoryI, debounce, savedFor time.Duration) *SessionHub {
	if sessionsRepo == nil || exercisesRepo == nil {
		log.Fatal("on session hub provided nil repos")
	}
	return &SessionHub{
		sessionsRepo:  sessionsRepo,
		exercisesRepo: exercisesRepo,
		debounce:      debounce,
		savedFor:      savedFor,
		controllers:   make(map[uuid.UUID]*SessionController),
	}
}

// Controller returns the live controller for the session, creating and
// loading one if needed. A missing session yields ErrSessionNotFound.
func (h *SessionHub) Controller(ctx context.Context, sessionID uuid.UUID) (*SessionController, error) {
	h.mu.Lock()
	if c, ok := h.controllers[sessionID]; ok {
		h.mu.Unlock()
		return c, nil
	}
	h.mu.Unlock()

	if _, err := h.sessionsRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, errorvalues.ErrSessionNotFound) {
			return nil, err
		}
		return nil, errors.New("sessions repository error: " + err.Error())
	}
	c := NewSessionControllerWithTimings(sessionID, h.sessionsRepo, h.exercisesRepo, h.debounce, h.savedFor)
	if err := c.Load(ctx); err != nil {
		c.Close()
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	// Another request may have won the race while we were loading
	if existing, ok := h.controllers[sessionID]; ok {
		c.Close()
		return existing, nil
	}
	h.controllers[sessionID] = c
	return c, nil
}

// DeleteSession tears down the controller (if any) and removes the
// session from the store.
func (h *SessionHub) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	h.mu.Lock()
	c, ok := h.controllers[sessionID]
	delete(h.controllers, sessionID)
	h.mu.Unlock()

	if ok {
		return c.Delete(ctx)
	}
	err := h.sessionsRepo.Delete(ctx, sessionID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrSessionNotFound) {
			return err
		}
		return errors.New("sessions repository error: " + err.Error())
	}
	return nil
}

// CloseAll cancels the timers of every live controller, used on
// shutdown.
func (h *SessionHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.controllers {
		c.Close()
		delete(h.controllers, id)
	}
}
