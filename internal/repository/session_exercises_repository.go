package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/pkg/cleanup"
	"github.com/ironlog/pkg/entity"
)

type SessionExercisesRepository struct {
	conn PgConnection
}

func NewSessionExercisesRepo(cfg DBConfig) *SessionExercisesRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for sessionExercisesRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for sessionExercisesRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &SessionExercisesRepository{
		conn: pool,
	}
}

func NewSessionExercisesRepoWithConn(conn PgConnection) *SessionExercisesRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for sessionExercisesRepo: " + err.Error())
	}
	return &SessionExercisesRepository{
		conn: conn,
	}
}

func (ser *SessionExercisesRepository) BulkCreate(ctx context.Context, exercises []*entity.SessionExercise) error {
	if len(exercises) == 0 {
		return errors.New("no exercises to insert")
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO session_exercises (session_id, exercise_name, target_reps, target_weight, actual_reps, actual_weight, completed, set_number, total_sets, order_index) VALUES `)
	args := make([]any, 0, len(exercises)*10)
	for i, ex := range exercises {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 10
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
		args = append(args,
			ex.SessionID,
			ex.ExerciseName,
			ex.TargetReps,
			ex.TargetWeight,
			ex.ActualReps,
			ex.ActualWeight,
			ex.Completed,
			ex.SetNumber,
			ex.TotalSets,
			ex.OrderIndex,
		)
	}
	sb.WriteString(";")
	_, err := ser.conn.Exec(ctx, sb.String(), args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return errorvalues.ErrSessionNotFound
			}
		}
		return errors.New("bulk creating session exercises error: " + err.Error())
	}
	return nil
}

func (ser *SessionExercisesRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*entity.SessionExercise, error) {
	exercises := make([]*entity.SessionExercise, 0)
	rows, err := ser.conn.Query(ctx, `SELECT id, session_id, exercise_name, target_reps, target_weight, actual_reps, actual_weight, completed, set_number, total_sets, order_index, created_at
		FROM session_exercises WHERE session_id = $1 ORDER BY order_index;`, sessionID)
	if err != nil {
		return nil, errors.New("getting session exercises error: " + err.Error())
	}
	defer rows.Close()
	for rows.Next() {
		ex := entity.SessionExercise{}
		err = rows.Scan(&ex.ID, &ex.SessionID, &ex.ExerciseName, &ex.TargetReps, &ex.TargetWeight,
			&ex.ActualReps, &ex.ActualWeight, &ex.Completed, &ex.SetNumber, &ex.TotalSets, &ex.OrderIndex, &ex.CreatedAt)
		if err != nil {
			return nil, errors.New("unmarshalling session exercise error: " + err.Error())
		}
		exercises = append(exercises, &ex)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return exercises, nil
}

func (ser *SessionExercisesRepository) UpdateFields(ctx context.Context, id uuid.UUID, patch *entity.ExercisePatch) error {
	if patch == nil {
		return errors.New("patch is nil")
	}
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if patch.ActualRepsSet {
		args = append(args, patch.ActualReps)
		sets = append(sets, fmt.Sprintf("actual_reps = $%d", len(args)))
	}
	if patch.ActualWeightSet {
		args = append(args, patch.ActualWeight)
		sets = append(sets, fmt.Sprintf("actual_weight = $%d", len(args)))
	}
	if patch.Completed != nil {
		args = append(args, *patch.Completed)
		sets = append(sets, fmt.Sprintf("completed = $%d", len(args)))
	}
	if len(sets) == 0 {
		return errors.New("patch has no fields")
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE session_exercises SET %s WHERE id = $%d;", strings.Join(sets, ", "), len(args))
	ct, err := ser.conn.Exec(ctx, query, args...)
	if err != nil {
		return errors.New("error updating session exercise: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrExerciseNotFound
	}
	return nil
}

func (ser *SessionExercisesRepository) ListRecentCompleted(ctx context.Context, names []string, limit int) ([]*entity.SessionExercise, error) {
	if len(names) == 0 {
		return []*entity.SessionExercise{}, nil
	}
	rows, err := ser.conn.Query(ctx, `SELECT exercise_name, actual_reps, actual_weight, created_at
		FROM session_exercises WHERE completed = TRUE AND exercise_name = ANY($1) ORDER BY created_at DESC LIMIT $2;`, names, limit)
	if err != nil {
		return nil, errors.New("listing recent completed exercises error: " + err.Error())
	}
	defer rows.Close()
	exercises := make([]*entity.SessionExercise, 0)
	for rows.Next() {
		ex := entity.SessionExercise{}
		err = rows.Scan(&ex.ExerciseName, &ex.ActualReps, &ex.ActualWeight, &ex.CreatedAt)
		if err != nil {
			return nil, errors.New("unmarshalling completed exercise error: " + err.Error())
		}
		exercises = append(exercises, &ex)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return exercises, nil
}
