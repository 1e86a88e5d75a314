package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/internal/repository"
	"github.com/ironlog/pkg/entity"
	"github.com/ironlog/pkg/streak"
)

// smartDefaultLimit bounds the prefill lookup to the most recent
// completed sets, mirrors the quick-start flow's query window.
const smartDefaultLimit = 100

// recentSessionsWindow and recentTemplatesLimit shape the "recent
// templates" list: distinct templates of the last 10 sessions, top 3.
const (
	recentSessionsWindow = 10
	recentTemplatesLimit = 3
)

type TemplateService struct {
	templatesRepo repository.TemplatesRepositoryI
	sessionsRepo  repository.SessionsRepositoryI
	exercisesRepo repository.SessionExercisesRepositoryI
	now           func() time.Time
}

func NewTemplateService(templatesRepo repository.TemplatesRepositoryI, sessionsRepo repository.SessionsRepositoryI, exercisesRepo repository.SessionExercisesRepositoryI) *TemplateService {
	return NewTemplateServiceWithClock(templatesRepo, sessionsRepo, exercisesRepo, time.Now)
}

func NewTemplateServiceWithClock(templatesRepo repository.TemplatesRepositoryI, sessionsRepo repository.SessionsRepositoryI, exercisesRepo repository.SessionExercisesRepositoryI, now func() time.Time) *TemplateService {
	if templatesRepo == nil || sessionsRepo == nil || exercisesRepo == nil {
		log.Fatal("on template service provided nil repos")
	}
	return &TemplateService{
		templatesRepo: templatesRepo,
		sessionsRepo:  sessionsRepo,
		exercisesRepo: exercisesRepo,
		now:           now,
	}
}

func (ts *TemplateService) CreateTemplate(ctx context.Context, req *SaveTemplateRequest) (uuid.UUID, error) {
	if err := validateStruct(*req); err != nil {
		return uuid.Nil, err
	}
	id, err := ts.templatesRepo.Create(ctx, templateFromRequest(req))
	if err != nil {
		return uuid.Nil, errors.New("templates repository error: " + err.Error())
	}
	return id, nil
}

func (ts *TemplateService) UpdateTemplate(ctx context.Context, id uuid.UUID, req *SaveTemplateRequest) error {
	if err := validateStruct(*req); err != nil {
		return err
	}
	template := templateFromRequest(req)
	template.ID = id
	err := ts.templatesRepo.Update(ctx, template)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTemplateNotFound) {
			return err
		}
		return errors.New("templates repository error: " + err.Error())
	}
	return nil
}

func (ts *TemplateService) GetTemplate(ctx context.Context, id uuid.UUID) (*entity.WorkoutTemplate, error) {
	template, err := ts.templatesRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTemplateNotFound) {
			return nil, err
		}
		return nil, errors.New("templates repository error: " + err.Error())
	}
	return template, nil
}

func (ts *TemplateService) ListTemplates(ctx context.Context) ([]*entity.WorkoutTemplate, error) {
	templates, err := ts.templatesRepo.List(ctx)
	if err != nil {
		return nil, errors.New("templates repository error: " + err.Error())
	}
	return templates, nil
}

func (ts *TemplateService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	err := ts.templatesRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTemplateNotFound) {
			return err
		}
		return errors.New("templates repository error: " + err.Error())
	}
	return nil
}

func (ts *TemplateService) DuplicateTemplate(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	template, err := ts.templatesRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTemplateNotFound) {
			return uuid.Nil, err
		}
		return uuid.Nil, errors.New("templates repository error: " + err.Error())
	}
	copyTemplate := &entity.WorkoutTemplate{
		Name:        template.Name + " (Copy)",
		Description: template.Description,
		Exercises:   template.Exercises,
	}
	copyID, err := ts.templatesRepo.Create(ctx, copyTemplate)
	if err != nil {
		return uuid.Nil, errors.New("templates repository error: " + err.Error())
	}
	return copyID, nil
}

func (ts *TemplateService) TemplateUsage(ctx context.Context, id uuid.UUID) (int, error) {
	count, err := ts.sessionsRepo.CountByTemplateID(ctx, id)
	if err != nil {
		return 0, errors.New("sessions repository error: " + err.Error())
	}
	return count, nil
}

func (ts *TemplateService) RecentTemplates(ctx context.Context) ([]*entity.RecentTemplate, error) {
	sessions, err := ts.sessionsRepo.ListRecent(ctx, recentSessionsWindow)
	if err != nil {
		return nil, errors.New("sessions repository error: " + err.Error())
	}
	recent := make([]*entity.RecentTemplate, 0, recentTemplatesLimit)
	seen := make(map[uuid.UUID]struct{})
	for _, session := range sessions {
		if session.TemplateID == nil {
			continue
		}
		if _, ok := seen[*session.TemplateID]; ok {
			continue
		}
		seen[*session.TemplateID] = struct{}{}
		template, err := ts.templatesRepo.GetByID(ctx, *session.TemplateID)
		if err != nil {
			// Template deleted since the session was logged
			if errors.Is(err, errorvalues.ErrTemplateNotFound) {
				continue
			}
			return nil, errors.New("templates repository error: " + err.Error())
		}
		recent = append(recent, &entity.RecentTemplate{
			WorkoutTemplate: *template,
			LastUsed:        session.CreatedAt,
			ExerciseCount:   len(template.Exercises),
		})
		if len(recent) == recentTemplatesLimit {
			break
		}
	}
	return recent, nil
}

func (ts *TemplateService) Apply(ctx context.Context, templateID uuid.UUID, date string) (uuid.UUID, error) {
	if _, err := streak.ParseLocal(date); err != nil {
		return uuid.Nil, errorvalues.ErrInvalidDate
	}
	return ts.instantiate(ctx, templateID, date, nil)
}

func (ts *TemplateService) QuickStart(ctx context.Context, templateID uuid.UUID) (uuid.UUID, error) {
	template, err := ts.templatesRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTemplateNotFound) {
			return uuid.Nil, err
		}
		return uuid.Nil, errors.New("templates repository error: " + err.Error())
	}
	names := make([]string, 0, len(template.Exercises))
	for _, ex := range template.Exercises {
		names = append(names, ex.ExerciseName)
	}
	defaults := make(map[string]*entity.SessionExercise)
	previous, err := ts.exercisesRepo.ListRecentCompleted(ctx, names, smartDefaultLimit)
	if err != nil {
		// Prefill is best effort, the session still starts without it
		slog.Warn("smart default lookup failed", slog.String("error", err.Error()))
	} else {
		for _, ex := range previous {
			// Rows come newest first, the first match per name wins
			if _, ok := defaults[ex.ExerciseName]; !ok {
				defaults[ex.ExerciseName] = ex
			}
		}
	}
	return ts.instantiate(ctx, templateID, streak.FormatLocal(ts.now()), defaults)
}

func (ts *TemplateService) instantiate(ctx context.Context, templateID uuid.UUID, date string, defaults map[string]*entity.SessionExercise) (uuid.UUID, error) {
	template, err := ts.templatesRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTemplateNotFound) {
			return uuid.Nil, err
		}
		return uuid.Nil, errors.New("templates repository error: " + err.Error())
	}
	if len(template.Exercises) == 0 {
		return uuid.Nil, errorvalues.ErrEmptyTemplate
	}
	sessionID, err := ts.sessionsRepo.Create(ctx, &entity.WorkoutSession{
		WorkoutDate:  date,
		TemplateID:   &templateID,
		TemplateName: template.Name,
	})
	if err != nil {
		return uuid.Nil, errors.New("sessions repository error: " + err.Error())
	}
	rows := flattenTemplate(sessionID, template.Exercises, defaults)
	if err = ts.exercisesRepo.BulkCreate(ctx, rows); err != nil {
		return uuid.Nil, errors.New("session exercises repository error: " + err.Error())
	}
	return sessionID, nil
}

// flattenTemplate expands template exercises into per-set session rows:
// for an exercise with sets=s it emits set_number 1..s with total_sets=s,
// order_index running contiguously across all exercises in template
// order. Targets are copied as a snapshot, actuals come from the
// smart-default map when present.
func flattenTemplate(sessionID uuid.UUID, exercises []*entity.TemplateExercise, defaults map[string]*entity.SessionExercise) []*entity.SessionExercise {
	rows := make([]*entity.SessionExercise, 0, len(exercises))
	orderIndex := 0
	for _, ex := range exercises {
		previous := defaults[ex.ExerciseName]
		for setNum := 1; setNum <= ex.Sets; setNum++ {
			row := &entity.SessionExercise{
				SessionID:    sessionID,
				ExerciseName: ex.ExerciseName,
				TargetReps:   ex.TargetReps,
				TargetWeight: ex.TargetWeight,
				SetNumber:    setNum,
				TotalSets:    ex.Sets,
				OrderIndex:   orderIndex,
				Completed:    false,
			}
			if previous != nil {
				row.ActualReps = previous.ActualReps
				row.ActualWeight = previous.ActualWeight
			}
			rows = append(rows, row)
			orderIndex++
		}
	}
	return rows
}

// templateFromRequest reindexes exercises zero-based in request order so
// order_index stays contiguous after client-side reorders and deletes.
func templateFromRequest(req *SaveTemplateRequest) *entity.WorkoutTemplate {
	exercises := make([]*entity.TemplateExercise, 0, len(req.Exercises))
	for i, ex := range req.Exercises {
		exercises = append(exercises, &entity.TemplateExercise{
			ExerciseName: ex.ExerciseName,
			TargetReps:   ex.TargetReps,
			TargetWeight: ex.TargetWeight,
			Sets:         ex.Sets,
			OrderIndex:   i,
		})
	}
	return &entity.WorkoutTemplate{
		Name:        req.Name,
		Description: req.Description,
		Exercises:   exercises,
	}
}
