package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ironlog/pkg/entity"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type WorkoutsRepositoryI interface {
	// Creates a standalone workout entry, returns its id
	Create(ctx context.Context, workout *entity.Workout) (uuid.UUID, error)
	// Lists workouts logged on the given local date
	GetByDate(ctx context.Context, date string) ([]*entity.Workout, error)
	// Deletes workout with id
	Delete(ctx context.Context, id uuid.UUID) error
	// Lists the workout_date of every workout, duplicates included
	ListDates(ctx context.Context) ([]string, error)
}

type SessionsRepositoryI interface {
	// Creates a workout session row, returns its id
	Create(ctx context.Context, session *entity.WorkoutSession) (uuid.UUID, error)
	// Searches session with given id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkoutSession, error)
	// Lists sessions held on the given local date
	GetByDate(ctx context.Context, date string) ([]*entity.WorkoutSession, error)
	// Deletes session with id. Exercise rows cascade in the database
	Delete(ctx context.Context, id uuid.UUID) error
	// Lists the workout_date of every session, duplicates included
	ListDates(ctx context.Context) ([]string, error)
	// Lists the most recently created sessions, newest first
	ListRecent(ctx context.Context, limit int) ([]*entity.WorkoutSession, error)
	// Counts sessions instantiated from the template
	CountByTemplateID(ctx context.Context, templateID uuid.UUID) (int, error)
}

type SessionExercisesRepositoryI interface {
	// Inserts all rows of a freshly applied template in one statement
	BulkCreate(ctx context.Context, exercises []*entity.SessionExercise) error
	// Lists a session's exercise rows ordered by order_index
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*entity.SessionExercise, error)
	// Patches the mutable fields (actuals, completed) of one row
	UpdateFields(ctx context.Context, id uuid.UUID, patch *entity.ExercisePatch) error
	// Lists completed rows matching any of the names, newest first.
	// Feeds the smart-default prefill
	ListRecentCompleted(ctx context.Context, names []string, limit int) ([]*entity.SessionExercise, error)
}

type TemplatesRepositoryI interface {
	// Creates template and its exercises in one transaction, returns template id
	Create(ctx context.Context, template *entity.WorkoutTemplate) (uuid.UUID, error)
	// Searches template with given id, exercises attached
	GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkoutTemplate, error)
	// Lists all templates by name, exercises attached
	List(ctx context.Context) ([]*entity.WorkoutTemplate, error)
	// Replaces template name, description and exercise rows
	Update(ctx context.Context, template *entity.WorkoutTemplate) error
	// Deletes template and its exercise rows
	Delete(ctx context.Context, id uuid.UUID) error
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
