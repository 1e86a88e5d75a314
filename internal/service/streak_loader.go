package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/ironlog/internal/repository"
	"github.com/ironlog/pkg/entity"
	"github.com/ironlog/pkg/streak"
)

// StreakLoader fetches workout dates from both sources, dedupes them
// and keeps the last computed StreakData. Overlapping Refetch calls
// resolve last-write-wins via a generation counter: an older fetch that
// finishes late can never overwrite a newer result.
type StreakLoader struct {
	workoutsRepo repository.WorkoutsRepositoryI
	sessionsRepo repository.SessionsRepositoryI
	now          func() time.Time

	mu      sync.Mutex
	data    entity.StreakData
	loading bool
	gen     uint64
}

func NewStreakLoader(workoutsRepo repository.WorkoutsRepositoryI, sessionsRepo repository.SessionsRepositoryI) *StreakLoader {
	return NewStreakLoaderWithClock(workoutsRepo, sessionsRepo, time.Now)
}

func NewStreakLoaderWithClock(workoutsRepo repository.WorkoutsRepositoryI, sessionsRepo repository.SessionsRepositoryI, now func() time.Time) *StreakLoader {
	if workoutsRepo == nil || sessionsRepo == nil {
		log.Fatal("on streak loader provided nil repos")
	}
	return &StreakLoader{
		workoutsRepo: workoutsRepo,
		sessionsRepo: sessionsRepo,
		now:          now,
	}
}

func (sl *StreakLoader) Refetch(ctx context.Context) error {
	sl.mu.Lock()
	sl.gen++
	gen := sl.gen
	sl.loading = true
	sl.mu.Unlock()
	defer func() {
		sl.mu.Lock()
		if gen == sl.gen {
			sl.loading = false
		}
		sl.mu.Unlock()
	}()

	// A failure on either source aborts the whole computation, the
	// previous snapshot stays in place.
	workoutDates, err := sl.workoutsRepo.ListDates(ctx)
	if err != nil {
		slog.Error("refetching streak data failed", slog.String("error", err.Error()))
		return errors.New("workouts repository error: " + err.Error())
	}
	sessionDates, err := sl.sessionsRepo.ListDates(ctx)
	if err != nil {
		slog.Error("refetching streak data failed", slog.String("error", err.Error()))
		return errors.New("sessions repository error: " + err.Error())
	}
	data := computeStreakData(workoutDates, sessionDates, sl.now())

	sl.mu.Lock()
	if gen == sl.gen {
		sl.data = data
	}
	sl.mu.Unlock()
	return nil
}

func (sl *StreakLoader) Snapshot() (entity.StreakData, bool) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.data, sl.loading
}

func computeStreakData(workoutDates, sessionDates []string, now time.Time) entity.StreakData {
	seen := make(map[string]struct{}, len(workoutDates)+len(sessionDates))
	distinct := make([]string, 0, len(workoutDates)+len(sessionDates))
	last := ""
	for _, d := range append(append([]string{}, workoutDates...), sessionDates...) {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		distinct = append(distinct, d)
		if d > last {
			last = d
		}
	}
	return entity.StreakData{
		CurrentStreak:   streak.CurrentStreak(distinct, now),
		LongestStreak:   streak.LongestStreak(distinct),
		WeeklyCount:     streak.WeeklyCount(distinct, now),
		TotalWorkouts:   len(distinct),
		LastWorkoutDate: last,
		IsStreakActive:  last != "" && streak.IsActive(last, now),
	}
}
