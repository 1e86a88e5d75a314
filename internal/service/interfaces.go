package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/ironlog/pkg/entity"
)

type LogWorkoutRequest struct {
	WorkoutDate string   `validate:"required,workout_date"`
	Name        string   `validate:"required,max=200"`
	Reps        *int     `validate:"omitempty,min=0"`
	WeightLbs   *float64 `validate:"omitempty,min=0"`
}

type SaveTemplateExercise struct {
	ExerciseName string   `validate:"required,max=200"`
	TargetReps   *int     `validate:"omitempty,min=0"`
	TargetWeight *float64 `validate:"omitempty,min=0"`
	Sets         int      `validate:"required,min=1"`
}

type SaveTemplateRequest struct {
	Name        string                 `validate:"required,max=200"`
	Description string                 `validate:"max=2000"`
	Exercises   []SaveTemplateExercise `validate:"required,min=1,dive"`
}

type WorkoutServiceI interface {
	// Validates and stores a standalone workout entry
	LogWorkout(ctx context.Context, req *LogWorkoutRequest) (uuid.UUID, error)
	// Lists workouts and sessions logged on a local date
	GetDay(ctx context.Context, date string) ([]*entity.Workout, []*entity.WorkoutSession, error)
	// Deletes a workout entry
	DeleteWorkout(ctx context.Context, id uuid.UUID) error
	// Per-date workout counts across workouts and sessions, for the
	// calendar heat map
	CalendarCounts(ctx context.Context) (map[string]int, error)
}

type TemplateServiceI interface {
	// Validates and stores a template with its exercises
	CreateTemplate(ctx context.Context, req *SaveTemplateRequest) (uuid.UUID, error)
	// Validates and replaces a template's fields and exercises
	UpdateTemplate(ctx context.Context, id uuid.UUID, req *SaveTemplateRequest) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*entity.WorkoutTemplate, error)
	ListTemplates(ctx context.Context) ([]*entity.WorkoutTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	// Copies a template under a " (Copy)" name
	DuplicateTemplate(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	// Counts sessions instantiated from the template
	TemplateUsage(ctx context.Context, id uuid.UUID) (int, error)
	// The most recently used templates with usage metadata
	RecentTemplates(ctx context.Context) ([]*entity.RecentTemplate, error)
	// Instantiates the template as a session on the given date
	Apply(ctx context.Context, templateID uuid.UUID, date string) (uuid.UUID, error)
	// Instantiates the template for today with smart-default prefill
	QuickStart(ctx context.Context, templateID uuid.UUID) (uuid.UUID, error)
}

type StreakLoaderI interface {
	// Recomputes streak data from the store. Overlapping calls resolve
	// last-write-wins
	Refetch(ctx context.Context) error
	// Last computed snapshot plus the loading flag
	Snapshot() (entity.StreakData, bool)
}

type SessionHubI interface {
	// Returns the controller owning the session, creating and loading
	// it on first touch
	Controller(ctx context.Context, sessionID uuid.UUID) (*SessionController, error)
	// Deletes the session and tears its controller down
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	// Cancels every controller's pending timers
	CloseAll()
}
