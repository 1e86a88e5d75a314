package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/pkg/cleanup"
	"github.com/ironlog/pkg/entity"
)

type TemplatesRepository struct {
	conn PgConnection
}

func NewTemplatesRepo(cfg DBConfig) *TemplatesRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for templatesRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for templatesRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &TemplatesRepository{
		conn: pool,
	}
}

func NewTemplatesRepoWithConn(conn PgConnection) *TemplatesRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for templatesRepo: " + err.Error())
	}
	return &TemplatesRepository{
		conn: conn,
	}
}

func (tr *TemplatesRepository) Create(ctx context.Context, template *entity.WorkoutTemplate) (uuid.UUID, error) {
	if template == nil {
		return uuid.Nil, errors.New("template is nil")
	}
	tx, err := tr.conn.Begin(ctx)
	if err != nil {
		return uuid.Nil, errors.New("starting template tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	row := tx.QueryRow(ctx, `INSERT INTO workout_templates (name, description) VALUES ($1, $2) RETURNING id;`,
		template.Name, template.Description)
	if err = row.Scan(&id); err != nil {
		return uuid.Nil, errors.New("creating template db error: " + err.Error())
	}
	for _, ex := range template.Exercises {
		_, err = tx.Exec(ctx, `INSERT INTO template_exercises (template_id, exercise_name, target_reps, target_weight, sets, order_index) VALUES ($1, $2, $3, $4, $5, $6);`,
			id, ex.ExerciseName, ex.TargetReps, ex.TargetWeight, ex.Sets, ex.OrderIndex)
		if err != nil {
			return uuid.Nil, errors.New("creating template exercise db error: " + err.Error())
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, errors.New("committing template tx error: " + err.Error())
	}
	return id, nil
}

func (tr *TemplatesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkoutTemplate, error) {
	var template entity.WorkoutTemplate
	template.ID = id
	row := tr.conn.QueryRow(ctx, `SELECT name, description, created_at FROM workout_templates WHERE id = $1;`, id)
	if err := row.Scan(&template.Name, &template.Description, &template.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrTemplateNotFound
		}
		return nil, errors.New("getting template by id error: " + err.Error())
	}

	rows, err := tr.conn.Query(ctx, `SELECT id, template_id, exercise_name, target_reps, target_weight, sets, order_index, created_at
		FROM template_exercises WHERE template_id = $1 ORDER BY order_index;`, id)
	if err != nil {
		return nil, errors.New("getting template exercises error: " + err.Error())
	}
	defer rows.Close()
	template.Exercises = make([]*entity.TemplateExercise, 0)
	for rows.Next() {
		ex := entity.TemplateExercise{}
		err = rows.Scan(&ex.ID, &ex.TemplateID, &ex.ExerciseName, &ex.TargetReps, &ex.TargetWeight, &ex.Sets, &ex.OrderIndex, &ex.CreatedAt)
		if err != nil {
			return nil, errors.New("unmarshalling template exercise error: " + err.Error())
		}
		template.Exercises = append(template.Exercises, &ex)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return &template, nil
}

func (tr *TemplatesRepository) List(ctx context.Context) ([]*entity.WorkoutTemplate, error) {
	templates := make([]*entity.WorkoutTemplate, 0)
	rows, err := tr.conn.Query(ctx, `SELECT id, name, description, created_at FROM workout_templates ORDER BY name;`)
	if err != nil {
		return nil, errors.New("listing templates error: " + err.Error())
	}
	defer rows.Close()
	byID := make(map[uuid.UUID]*entity.WorkoutTemplate)
	for rows.Next() {
		t := entity.WorkoutTemplate{Exercises: make([]*entity.TemplateExercise, 0)}
		err = rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt)
		if err != nil {
			return nil, errors.New("unmarshalling template error: " + err.Error())
		}
		templates = append(templates, &t)
		byID[t.ID] = &t
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}

	exRows, err := tr.conn.Query(ctx, `SELECT id, template_id, exercise_name, target_reps, target_weight, sets, order_index, created_at
		FROM template_exercises ORDER BY order_index;`)
	if err != nil {
		return nil, errors.New("listing template exercises error: " + err.Error())
	}
	defer exRows.Close()
	for exRows.Next() {
		ex := entity.TemplateExercise{}
		err = exRows.Scan(&ex.ID, &ex.TemplateID, &ex.ExerciseName, &ex.TargetReps, &ex.TargetWeight, &ex.Sets, &ex.OrderIndex, &ex.CreatedAt)
		if err != nil {
			return nil, errors.New("unmarshalling template exercise error: " + err.Error())
		}
		if t, ok := byID[ex.TemplateID]; ok {
			t.Exercises = append(t.Exercises, &ex)
		}
	}
	if exRows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + exRows.Err().Error())
	}
	return templates, nil
}

func (tr *TemplatesRepository) Update(ctx context.Context, template *entity.WorkoutTemplate) error {
	if template == nil {
		return errors.New("template is nil")
	}
	tx, err := tr.conn.Begin(ctx)
	if err != nil {
		return errors.New("starting template tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `UPDATE workout_templates SET name = $1, description = $2 WHERE id = $3;`,
		template.Name, template.Description, template.ID)
	if err != nil {
		return errors.New("error updating template: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrTemplateNotFound
	}
	// Replace the exercise rows wholesale, the service reindexes
	// order_index before calling
	_, err = tx.Exec(ctx, `DELETE FROM template_exercises WHERE template_id = $1;`, template.ID)
	if err != nil {
		return errors.New("error clearing template exercises: " + err.Error())
	}
	for _, ex := range template.Exercises {
		_, err = tx.Exec(ctx, `INSERT INTO template_exercises (template_id, exercise_name, target_reps, target_weight, sets, order_index) VALUES ($1, $2, $3, $4, $5, $6);`,
			template.ID, ex.ExerciseName, ex.TargetReps, ex.TargetWeight, ex.Sets, ex.OrderIndex)
		if err != nil {
			return errors.New("error inserting template exercise: " + err.Error())
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return errors.New("committing template tx error: " + err.Error())
	}
	return nil
}

func (tr *TemplatesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := tr.conn.Begin(ctx)
	if err != nil {
		return errors.New("starting template tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)

	// Exercises first, FK constraint
	_, err = tx.Exec(ctx, `DELETE FROM template_exercises WHERE template_id = $1;`, id)
	if err != nil {
		return errors.New("error deleting template exercises: " + err.Error())
	}
	// Sessions keep their snapshot, their template_id nulls out via
	// ON DELETE SET NULL
	ct, err := tx.Exec(ctx, `DELETE FROM workout_templates WHERE id = $1;`, id)
	if err != nil {
		return errors.New("error deleting template: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrTemplateNotFound
	}
	if err = tx.Commit(ctx); err != nil {
		return errors.New("committing template tx error: " + err.Error())
	}
	return nil
}
