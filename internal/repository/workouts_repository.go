package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/pkg/cleanup"
	"github.com/ironlog/pkg/entity"
)

type WorkoutsRepository struct {
	conn PgConnection
}

func NewWorkoutsRepo(cfg DBConfig) *WorkoutsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for workoutsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for workoutsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &WorkoutsRepository{
		conn: pool,
	}
}

func NewWorkoutsRepoWithConn(conn PgConnection) *WorkoutsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for workoutsRepo: " + err.Error())
	}
	return &WorkoutsRepository{
		conn: conn,
	}
}

func (wr *WorkoutsRepository) Create(ctx context.Context, workout *entity.Workout) (uuid.UUID, error) {
	if workout == nil {
		return uuid.Nil, errors.New("workout is nil")
	}
	var id uuid.UUID
	row := wr.conn.QueryRow(ctx, `INSERT INTO workouts (workout_date, workout_name, reps, weight_lbs) VALUES ($1, $2, $3, $4) RETURNING id;`,
		workout.WorkoutDate,
		workout.Name,
		workout.Reps,
		workout.WeightLbs,
	)
	if err := row.Scan(&id); err != nil {
		return uuid.Nil, errors.New("creating workout db error: " + err.Error())
	}
	return id, nil
}

func (wr *WorkoutsRepository) GetByDate(ctx context.Context, date string) ([]*entity.Workout, error) {
	workouts := make([]*entity.Workout, 0)
	rows, err := wr.conn.Query(ctx, `SELECT id, to_char(workout_date, 'YYYY-MM-DD'), workout_name, reps, weight_lbs, created_at
		FROM workouts WHERE workout_date = $1 ORDER BY created_at;`, date)
	if err != nil {
		return nil, errors.New("getting workouts by date error: " + err.Error())
	}
	defer rows.Close()
	for rows.Next() {
		w := entity.Workout{}
		err = rows.Scan(&w.ID, &w.WorkoutDate, &w.Name, &w.Reps, &w.WeightLbs, &w.CreatedAt)
		if err != nil {
			return nil, errors.New("unmarshalling workout error: " + err.Error())
		}
		workouts = append(workouts, &w)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return workouts, nil
}

func (wr *WorkoutsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := wr.conn.Exec(ctx, `DELETE FROM workouts WHERE id = $1;`, id)
	if err != nil {
		return errors.New("error deleting workout: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrWorkoutNotFound
	}
	return nil
}

func (wr *WorkoutsRepository) ListDates(ctx context.Context) ([]string, error) {
	rows, err := wr.conn.Query(ctx, `SELECT to_char(workout_date, 'YYYY-MM-DD') FROM workouts;`)
	if err != nil {
		return nil, errors.New("listing workout dates error: " + err.Error())
	}
	defer rows.Close()
	dates := make([]string, 0)
	for rows.Next() {
		var d string
		if err = rows.Scan(&d); err != nil {
			return nil, errors.New("workout date row parsing error: " + err.Error())
		}
		dates = append(dates, d)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected workout dates rows error: " + rows.Err().Error())
	}
	return dates, nil
}
