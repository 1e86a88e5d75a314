package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/internal/repository"
	"github.com/ironlog/pkg/entity"
	"github.com/ironlog/pkg/streak"
)

type WorkoutService struct {
	workoutsRepo repository.WorkoutsRepositoryI
	sessionsRepo repository.SessionsRepositoryI
}

func NewWorkoutService(workoutsRepo repository.WorkoutsRepositoryI, sessionsRepo repository.SessionsRepositoryI) *WorkoutService {
	if workoutsRepo == nil || sessionsRepo == nil {
		log.Fatal("on workout service provided nil repos")
	}
	return &WorkoutService{
		workoutsRepo: workoutsRepo,
		sessionsRepo: sessionsRepo,
	}
}

func (ws *WorkoutService) LogWorkout(ctx context.Context, req *LogWorkoutRequest) (uuid.UUID, error) {
	if err := validateStruct(*req); err != nil {
		return uuid.Nil, err
	}
	id, err := ws.workoutsRepo.Create(ctx, &entity.Workout{
		WorkoutDate: req.WorkoutDate,
		Name:        req.Name,
		Reps:        req.Reps,
		WeightLbs:   req.WeightLbs,
	})
	if err != nil {
		return uuid.Nil, errors.New("workouts repository error: " + err.Error())
	}
	return id, nil
}

func (ws *WorkoutService) GetDay(ctx context.Context, date string) ([]*entity.Workout, []*entity.WorkoutSession, error) {
	if _, err := streak.ParseLocal(date); err != nil {
		return nil, nil, errorvalues.ErrInvalidDate
	}
	workouts, err := ws.workoutsRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, nil, errors.New("workouts repository error: " + err.Error())
	}
	sessions, err := ws.sessionsRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, nil, errors.New("sessions repository error: " + err.Error())
	}
	return workouts, sessions, nil
}

func (ws *WorkoutService) DeleteWorkout(ctx context.Context, id uuid.UUID) error {
	err := ws.workoutsRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrWorkoutNotFound) {
			return err
		}
		return errors.New("workouts repository error: " + err.Error())
	}
	return nil
}

func (ws *WorkoutService) CalendarCounts(ctx context.Context) (map[string]int, error) {
	workoutDates, err := ws.workoutsRepo.ListDates(ctx)
	if err != nil {
		return nil, errors.New("workouts repository error: " + err.Error())
	}
	sessionDates, err := ws.sessionsRepo.ListDates(ctx)
	if err != nil {
		return nil, errors.New("sessions repository error: " + err.Error())
	}
	return streak.MergeCounts(workoutDates, sessionDates), nil
}
