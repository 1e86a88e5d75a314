package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/internal/repository/mocks"
	"github.com/ironlog/internal/service"
	"github.com/ironlog/pkg/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func templateMocks(ctrl *gomock.Controller) (*mocks.MockTemplatesRepositoryI, *mocks.MockSessionsRepositoryI, *mocks.MockSessionExercisesRepositoryI) {
	return mocks.NewMockTemplatesRepositoryI(ctrl),
		mocks.NewMockSessionsRepositoryI(ctrl),
		mocks.NewMockSessionExercisesRepositoryI(ctrl)
}

func pushPullTemplate(id uuid.UUID) *entity.WorkoutTemplate {
	return &entity.WorkoutTemplate{
		ID:   id,
		Name: "Push Day",
		Exercises: []*entity.TemplateExercise{
			{ExerciseName: "Bench Press", Sets: 3, TargetReps: intPtr(8), TargetWeight: floatPtr(135), OrderIndex: 0},
			{ExerciseName: "Overhead Press", Sets: 2, TargetReps: intPtr(10), OrderIndex: 1},
		},
	}
}

func TestTemplateServiceApplyFlattens(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templatesRepo, sessionsRepo, exercisesRepo := templateMocks(ctrl)
	templateID := uuid.New()
	sessionID := uuid.New()

	templatesRepo.EXPECT().GetByID(gomock.Any(), templateID).Return(pushPullTemplate(templateID), nil)
	var createdSession *entity.WorkoutSession
	sessionsRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, session *entity.WorkoutSession) (uuid.UUID, error) {
			createdSession = session
			return sessionID, nil
		})
	var rows []*entity.SessionExercise
	exercisesRepo.EXPECT().BulkCreate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, exercises []*entity.SessionExercise) error {
			rows = exercises
			return nil
		})

	ts := service.NewTemplateService(templatesRepo, sessionsRepo, exercisesRepo)
	gotID, err := ts.Apply(context.Background(), templateID, "2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, sessionID, gotID)

	require.NotNil(t, createdSession)
	assert.Equal(t, "2026-08-28", createdSession.WorkoutDate)
	assert.Equal(t, "Push Day", createdSession.TemplateName)
	require.NotNil(t, createdSession.TemplateID)
	assert.Equal(t, templateID, *createdSession.TemplateID)

	// 3 sets + 2 sets flatten to 5 rows with a contiguous order index
	require.Len(t, rows, 5)
	for i, row := range rows {
		assert.Equal(t, i, row.OrderIndex)
		assert.Equal(t, sessionID, row.SessionID)
		assert.False(t, row.Completed)
	}
	assert.Equal(t, []int{1, 2, 3, 1, 2}, []int{rows[0].SetNumber, rows[1].SetNumber, rows[2].SetNumber, rows[3].SetNumber, rows[4].SetNumber})
	assert.Equal(t, 3, rows[0].TotalSets)
	assert.Equal(t, 2, rows[4].TotalSets)
	assert.Equal(t, "Bench Press", rows[2].ExerciseName)
	assert.Equal(t, "Overhead Press", rows[3].ExerciseName)
	assert.Equal(t, 8, *rows[0].TargetReps)
	assert.Nil(t, rows[0].ActualReps)
}

func TestTemplateServiceApplyInvalidDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templatesRepo, sessionsRepo, exercisesRepo := templateMocks(ctrl)
	ts := service.NewTemplateService(templatesRepo, sessionsRepo, exercisesRepo)

	_, err := ts.Apply(context.Background(), uuid.New(), "2026-02-31")
	assert.ErrorIs(t, err, errorvalues.ErrInvalidDate)
}

func TestTemplateServiceApplyEmptyTemplate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templatesRepo, sessionsRepo, exercisesRepo := templateMocks(ctrl)
	templateID := uuid.New()
	templatesRepo.EXPECT().GetByID(gomock.Any(), templateID).
		Return(&entity.WorkoutTemplate{ID: templateID, Name: "Empty"}, nil)

	ts := service.NewTemplateService(templatesRepo, sessionsRepo, exercisesRepo)
	_, err := ts.Apply(context.Background(), templateID, "2026-08-28")
	assert.ErrorIs(t, err, errorvalues.ErrEmptyTemplate)
}

func TestTemplateServiceQuickStartSmartDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templatesRepo, sessionsRepo, exercisesRepo := templateMocks(ctrl)
	templateID := uuid.New()
	sessionID := uuid.New()

	templatesRepo.EXPECT().GetByID(gomock.Any(), templateID).Return(pushPullTemplate(templateID), nil).Times(2)
	// Rows arrive newest first, the first row per name supplies the prefill
	exercisesRepo.EXPECT().ListRecentCompleted(gomock.Any(), []string{"Bench Press", "Overhead Press"}, 100).
		Return([]*entity.SessionExercise{
			{ExerciseName: "Bench Press", ActualReps: intPtr(9), ActualWeight: floatPtr(140)},
			{ExerciseName: "Bench Press", ActualReps: intPtr(7), ActualWeight: floatPtr(130)},
		}, nil)
	var createdSession *entity.WorkoutSession
	sessionsRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, session *entity.WorkoutSession) (uuid.UUID, error) {
			createdSession = session
			return sessionID, nil
		})
	var rows []*entity.SessionExercise
	exercisesRepo.EXPECT().BulkCreate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, exercises []*entity.SessionExercise) error {
			rows = exercises
			return nil
		})

	ts := service.NewTemplateServiceWithClock(templatesRepo, sessionsRepo, exercisesRepo, fixedClock("2026-08-28"))
	_, err := ts.QuickStart(context.Background(), templateID)
	require.NoError(t, err)

	assert.Equal(t, "2026-08-28", createdSession.WorkoutDate)
	require.Len(t, rows, 5)
	// Every Bench Press set is prefilled from the newest completed row
	for _, row := range rows[:3] {
		require.NotNil(t, row.ActualReps)
		assert.Equal(t, 9, *row.ActualReps)
		assert.Equal(t, 140.0, *row.ActualWeight)
	}
	// No history for Overhead Press, no prefill
	assert.Nil(t, rows[3].ActualReps)
	assert.Nil(t, rows[4].ActualWeight)
}

func TestTemplateServiceQuickStartPrefillBestEffort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templatesRepo, sessionsRepo, exercisesRepo := templateMocks(ctrl)
	templateID := uuid.New()

	templatesRepo.EXPECT().GetByID(gomock.Any(), templateID).Return(pushPullTemplate(templateID), nil).Times(2)
	exercisesRepo.EXPECT().ListRecentCompleted(gomock.Any(), gomock.Any(), 100).
		Return(nil, errors.New("conn refused"))
	sessionsRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(uuid.New(), nil)
	var rows []*entity.SessionExercise
	exercisesRepo.EXPECT().BulkCreate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, exercises []*entity.SessionExercise) error {
			rows = exercises
			return nil
		})

	ts := service.NewTemplateServiceWithClock(templatesRepo, sessionsRepo, exercisesRepo, fixedClock("2026-08-28"))
	_, err := ts.QuickStart(context.Background(), templateID)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Nil(t, rows[0].ActualReps)
}

func TestTemplateServiceCreateValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templatesRepo, sessionsRepo, exercisesRepo := templateMocks(ctrl)
	ts := service.NewTemplateService(templatesRepo, sessionsRepo, exercisesRepo)

	cases := []struct {
		name string
		req  *service.SaveTemplateRequest
	}{
		{
			name: "empty name",
			req: &service.SaveTemplateRequest{
				Exercises: []service.SaveTemplateExercise{{ExerciseName: "Bench Press", Sets: 3}},
			},
		},
		{
			name: "no exercises",
			req:  &service.SaveTemplateRequest{Name: "Push Day"},
		},
		{
			name: "zero sets",
			req: &service.SaveTemplateRequest{
				Name:      "Push Day",
				Exercises: []service.SaveTemplateExercise{{ExerciseName: "Bench Press", Sets: 0}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ts.CreateTemplate(context.Background(), tc.req)
			assert.ErrorIs(t, err, errorvalues.ErrValidation)
		})
	}
}

func TestTemplateServiceCreateReindexesOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templatesRepo, sessionsRepo, exercisesRepo := templateMocks(ctrl)
	var created *entity.WorkoutTemplate
	templatesRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, template *entity.WorkoutTemplate) (uuid.UUID, error) {
			created = template
			return uuid.New(), nil
		})

	ts := service.NewTemplateService(templatesRepo, sessionsRepo, exercisesRepo)
	_, err := ts.CreateTemplate(context.Background(), &service.SaveTemplateRequest{
		Name: "Push Day",
		Exercises: []service.SaveTemplateExercise{
			{ExerciseName: "Bench Press", Sets: 3},
			{ExerciseName: "Dips", Sets: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Exercises, 2)
	assert.Equal(t, 0, created.Exercises[0].OrderIndex)
	assert.Equal(t, 1, created.Exercises[1].OrderIndex)
}

func TestTemplateServiceDuplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templatesRepo, sessionsRepo, exercisesRepo := templateMocks(ctrl)
	templateID := uuid.New()
	templatesRepo.EXPECT().GetByID(gomock.Any(), templateID).Return(pushPullTemplate(templateID), nil)
	var created *entity.WorkoutTemplate
	templatesRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, template *entity.WorkoutTemplate) (uuid.UUID, error) {
			created = template
			return uuid.New(), nil
		})

	ts := service.NewTemplateService(templatesRepo, sessionsRepo, exercisesRepo)
	_, err := ts.DuplicateTemplate(context.Background(), templateID)
	require.NoError(t, err)
	assert.Equal(t, "Push Day (Copy)", created.Name)
	assert.Len(t, created.Exercises, 2)
}

func TestTemplateServiceRecentTemplates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	templatesRepo, sessionsRepo, exercisesRepo := templateMocks(ctrl)
	keptID, deletedID := uuid.New(), uuid.New()
	now := time.Now()

	sessionsRepo.EXPECT().ListRecent(gomock.Any(), 10).Return([]*entity.WorkoutSession{
		{ID: uuid.New(), TemplateID: &keptID, CreatedAt: now},
		{ID: uuid.New(), TemplateID: &keptID, CreatedAt: now.Add(-time.Hour)},
		{ID: uuid.New(), TemplateID: nil, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: uuid.New(), TemplateID: &deletedID, CreatedAt: now.Add(-3 * time.Hour)},
	}, nil)
	templatesRepo.EXPECT().GetByID(gomock.Any(), keptID).Return(pushPullTemplate(keptID), nil)
	templatesRepo.EXPECT().GetByID(gomock.Any(), deletedID).Return(nil, errorvalues.ErrTemplateNotFound)

	ts := service.NewTemplateService(templatesRepo, sessionsRepo, exercisesRepo)
	recent, err := ts.RecentTemplates(context.Background())
	require.NoError(t, err)
	// Duplicate, snapshot-only and deleted templates all drop out
	require.Len(t, recent, 1)
	assert.Equal(t, keptID, recent[0].ID)
	assert.Equal(t, now, recent[0].LastUsed)
	assert.Equal(t, 2, recent[0].ExerciseCount)
}
