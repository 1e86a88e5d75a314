package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/pkg/cleanup"
	"github.com/ironlog/pkg/entity"
)

type SessionsRepository struct {
	conn PgConnection
}

func NewSessionsRepo(cfg DBConfig) *SessionsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for sessionsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for sessionsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &SessionsRepository{
		conn: pool,
	}
}

func NewSessionsRepoWithConn(conn PgConnection) *SessionsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for sessionsRepo: " + err.Error())
	}
	return &SessionsRepository{
		conn: conn,
	}
}

func (sr *SessionsRepository) Create(ctx context.Context, session *entity.WorkoutSession) (uuid.UUID, error) {
	if session == nil {
		return uuid.Nil, errors.New("session is nil")
	}
	var id uuid.UUID
	row := sr.conn.QueryRow(ctx, `INSERT INTO workout_sessions (workout_date, template_id, template_name) VALUES ($1, $2, $3) RETURNING id;`,
		session.WorkoutDate,
		session.TemplateID,
		session.TemplateName,
	)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return uuid.Nil, errorvalues.ErrTemplateNotFound
			}
		}
		return uuid.Nil, errors.New("creating session db error: " + err.Error())
	}
	return id, nil
}

func (sr *SessionsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkoutSession, error) {
	var session entity.WorkoutSession
	session.ID = id
	row := sr.conn.QueryRow(ctx, `SELECT to_char(workout_date, 'YYYY-MM-DD'), template_id, template_name, created_at FROM workout_sessions WHERE id = $1;`, id)
	if err := row.Scan(&session.WorkoutDate, &session.TemplateID, &session.TemplateName, &session.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrSessionNotFound
		}
		return nil, errors.New("getting session by id error: " + err.Error())
	}
	return &session, nil
}

func (sr *SessionsRepository) GetByDate(ctx context.Context, date string) ([]*entity.WorkoutSession, error) {
	sessions := make([]*entity.WorkoutSession, 0)
	rows, err := sr.conn.Query(ctx, `SELECT id, to_char(workout_date, 'YYYY-MM-DD'), template_id, template_name, created_at
		FROM workout_sessions WHERE workout_date = $1 ORDER BY created_at;`, date)
	if err != nil {
		return nil, errors.New("getting sessions by date error: " + err.Error())
	}
	defer rows.Close()
	for rows.Next() {
		s := entity.WorkoutSession{}
		err = rows.Scan(&s.ID, &s.WorkoutDate, &s.TemplateID, &s.TemplateName, &s.CreatedAt)
		if err != nil {
			return nil, errors.New("unmarshalling session error: " + err.Error())
		}
		sessions = append(sessions, &s)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return sessions, nil
}

func (sr *SessionsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := sr.conn.Exec(ctx, `DELETE FROM workout_sessions WHERE id = $1;`, id)
	if err != nil {
		return errors.New("error deleting session: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrSessionNotFound
	}
	return nil
}

func (sr *SessionsRepository) ListDates(ctx context.Context) ([]string, error) {
	rows, err := sr.conn.Query(ctx, `SELECT to_char(workout_date, 'YYYY-MM-DD') FROM workout_sessions;`)
	if err != nil {
		return nil, errors.New("listing session dates error: " + err.Error())
	}
	defer rows.Close()
	dates := make([]string, 0)
	for rows.Next() {
		var d string
		if err = rows.Scan(&d); err != nil {
			return nil, errors.New("session date row parsing error: " + err.Error())
		}
		dates = append(dates, d)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected session dates rows error: " + rows.Err().Error())
	}
	return dates, nil
}

func (sr *SessionsRepository) ListRecent(ctx context.Context, limit int) ([]*entity.WorkoutSession, error) {
	sessions := make([]*entity.WorkoutSession, 0, limit)
	rows, err := sr.conn.Query(ctx, `SELECT id, to_char(workout_date, 'YYYY-MM-DD'), template_id, template_name, created_at
		FROM workout_sessions WHERE template_id IS NOT NULL ORDER BY created_at DESC LIMIT $1;`, limit)
	if err != nil {
		return nil, errors.New("listing recent sessions error: " + err.Error())
	}
	defer rows.Close()
	for rows.Next() {
		s := entity.WorkoutSession{}
		err = rows.Scan(&s.ID, &s.WorkoutDate, &s.TemplateID, &s.TemplateName, &s.CreatedAt)
		if err != nil {
			return nil, errors.New("unmarshalling session error: " + err.Error())
		}
		sessions = append(sessions, &s)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return sessions, nil
}

func (sr *SessionsRepository) CountByTemplateID(ctx context.Context, templateID uuid.UUID) (int, error) {
	row := sr.conn.QueryRow(ctx, `SELECT COUNT(*) FROM workout_sessions WHERE template_id = $1;`, templateID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, errors.New("error counting sessions: " + err.Error())
	}
	return count, nil
}
