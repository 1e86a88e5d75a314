package entity

import (
	"time"

	"github.com/google/uuid"
)

// Workout is a standalone logged exercise entry. Workouts are only
// created and deleted, never updated in place.
type Workout struct {
	ID          uuid.UUID `json:"id"`
	WorkoutDate string    `json:"workout_date"`
	Name        string    `json:"workout_name"`
	Reps        *int      `json:"reps"`
	WeightLbs   *float64  `json:"weight_lbs"`
	CreatedAt   time.Time `json:"created_at"`
}

type WorkoutTemplate struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Exercises   []*TemplateExercise `json:"exercises,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

type TemplateExercise struct {
	ID           uuid.UUID `json:"id"`
	TemplateID   uuid.UUID `json:"template_id"`
	ExerciseName string    `json:"exercise_name"`
	TargetReps   *int      `json:"target_reps"`
	TargetWeight *float64  `json:"target_weight"`
	Sets         int       `json:"sets"`
	OrderIndex   int       `json:"order_index"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkoutSession is a dated instantiation of a template. TemplateName is
// a snapshot taken at apply time: renaming the template later must not
// rename past sessions.
type WorkoutSession struct {
	ID           uuid.UUID  `json:"id"`
	WorkoutDate  string     `json:"workout_date"`
	TemplateID   *uuid.UUID `json:"template_id"`
	TemplateName string     `json:"template_name"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SessionExercise is one set of one exercise within a session. Target
// values are an immutable snapshot from the template, actual values are
// user-entered and mutable.
type SessionExercise struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	ExerciseName string    `json:"exercise_name"`
	TargetReps   *int      `json:"target_reps"`
	TargetWeight *float64  `json:"target_weight"`
	ActualReps   *int      `json:"actual_reps"`
	ActualWeight *float64  `json:"actual_weight"`
	Completed    bool      `json:"completed"`
	SetNumber    int       `json:"set_number"`
	TotalSets    int       `json:"total_sets"`
	OrderIndex   int       `json:"order_index"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExercisePatch carries the mutable fields of a SessionExercise. A nil
// pointer with its Set flag raised means "clear the value".
type ExercisePatch struct {
	ActualReps      *int
	ActualRepsSet   bool
	ActualWeight    *float64
	ActualWeightSet bool
	Completed       *bool
}

// StreakData is derived on demand from the distinct workout dates across
// workouts and sessions. Never persisted.
type StreakData struct {
	CurrentStreak   int    `json:"current_streak"`
	LongestStreak   int    `json:"longest_streak"`
	WeeklyCount     int    `json:"weekly_count"`
	TotalWorkouts   int    `json:"total_workouts"`
	LastWorkoutDate string `json:"last_workout_date,omitempty"`
	IsStreakActive  bool   `json:"is_streak_active"`
}

// RecentTemplate is a template enriched with usage metadata for the
// quick-start list.
type RecentTemplate struct {
	WorkoutTemplate
	LastUsed      time.Time `json:"last_used"`
	ExerciseCount int       `json:"exercise_count"`
}
