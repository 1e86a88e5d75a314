package api_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/ironlog/internal/api"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/internal/repository/mocks"
	"github.com/ironlog/internal/service"
	"github.com/ironlog/pkg/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	service.InitValidator()
	os.Exit(m.Run())
}

var (
	workoutID  = uuid.New()
	templateID = uuid.New()
	sessionID  = uuid.New()
)

type WorkoutServiceMock struct {
	err error
}

func (m *WorkoutServiceMock) LogWorkout(ctx context.Context, req *service.LogWorkoutRequest) (uuid.UUID, error) {
	if m.err != nil {
		return uuid.Nil, m.err
	}
	return workoutID, nil
}

func (m *WorkoutServiceMock) GetDay(ctx context.Context, date string) ([]*entity.Workout, []*entity.WorkoutSession, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return []*entity.Workout{{ID: workoutID, WorkoutDate: date, Name: "Pull-ups"}},
		[]*entity.WorkoutSession{{ID: sessionID, WorkoutDate: date, TemplateName: "Push Day"}}, nil
}

func (m *WorkoutServiceMock) DeleteWorkout(ctx context.Context, id uuid.UUID) error {
	return m.err
}

func (m *WorkoutServiceMock) CalendarCounts(ctx context.Context) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return map[string]int{"2026-08-28": 2}, nil
}

type TemplateServiceMock struct {
	err error
}

func (m *TemplateServiceMock) CreateTemplate(ctx context.Context, req *service.SaveTemplateRequest) (uuid.UUID, error) {
	if m.err != nil {
		return uuid.Nil, m.err
	}
	return templateID, nil
}

func (m *TemplateServiceMock) UpdateTemplate(ctx context.Context, id uuid.UUID, req *service.SaveTemplateRequest) error {
	return m.err
}

func (m *TemplateServiceMock) GetTemplate(ctx context.Context, id uuid.UUID) (*entity.WorkoutTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entity.WorkoutTemplate{ID: id, Name: "Push Day"}, nil
}

func (m *TemplateServiceMock) ListTemplates(ctx context.Context) ([]*entity.WorkoutTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*entity.WorkoutTemplate{{ID: templateID, Name: "Push Day"}}, nil
}

func (m *TemplateServiceMock) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return m.err
}

func (m *TemplateServiceMock) DuplicateTemplate(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if m.err != nil {
		return uuid.Nil, m.err
	}
	return uuid.New(), nil
}

func (m *TemplateServiceMock) TemplateUsage(ctx context.Context, id uuid.UUID) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return 4, nil
}

func (m *TemplateServiceMock) RecentTemplates(ctx context.Context) ([]*entity.RecentTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*entity.RecentTemplate{}, nil
}

func (m *TemplateServiceMock) Apply(ctx context.Context, id uuid.UUID, date string) (uuid.UUID, error) {
	if m.err != nil {
		return uuid.Nil, m.err
	}
	return sessionID, nil
}

func (m *TemplateServiceMock) QuickStart(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if m.err != nil {
		return uuid.Nil, m.err
	}
	return sessionID, nil
}

type StreakLoaderMock struct {
	err error
}

func (m *StreakLoaderMock) Refetch(ctx context.Context) error {
	return m.err
}

func (m *StreakLoaderMock) Snapshot() (entity.StreakData, bool) {
	return entity.StreakData{
		CurrentStreak:   3,
		LongestStreak:   5,
		WeeklyCount:     2,
		TotalWorkouts:   40,
		LastWorkoutDate: "2026-08-28",
		IsStreakActive:  true,
	}, false
}

func newTestServer(workoutErr, templateErr, streakErr error, hub service.SessionHubI) *httptest.Server {
	serv := api.New(&api.ServicesList{
		WorkoutService:  &WorkoutServiceMock{err: workoutErr},
		TemplateService: &TemplateServiceMock{err: templateErr},
		StreakLoader:    &StreakLoaderMock{err: streakErr},
		SessionHub:      hub,
	})
	serv.MountHandlers()
	return httptest.NewServer(serv.Handler())
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestLogWorkoutHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ts := newTestServer(nil, nil, nil, nil)
		defer ts.Close()
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/workouts", map[string]any{
			"workout_date": "2026-08-28",
			"workout_name": "Pull-ups",
			"reps":         12,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var got map[string]string
		require.NoError(t, sonic.Unmarshal(body, &got))
		assert.Equal(t, workoutID.String(), got["workout_id"])
	})
	t.Run("validation error", func(t *testing.T) {
		ts := newTestServer(errorvalues.ErrValidation, nil, nil, nil)
		defer ts.Close()
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/workouts", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
	t.Run("invalid body", func(t *testing.T) {
		ts := newTestServer(nil, nil, nil, nil)
		defer ts.Close()
		resp, err := http.Post(ts.URL+"/api/v1/workouts", "application/json", bytes.NewBufferString("{"))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetDayHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		ts := newTestServer(nil, nil, nil, nil)
		defer ts.Close()
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/workouts/day/2026-08-28", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got api.GetDayResponse
		require.NoError(t, sonic.Unmarshal(body, &got))
		assert.Equal(t, "2026-08-28", got.Date)
		assert.Len(t, got.Workouts, 1)
		assert.Len(t, got.Sessions, 1)
	})
	t.Run("invalid date", func(t *testing.T) {
		ts := newTestServer(errorvalues.ErrInvalidDate, nil, nil, nil)
		defer ts.Close()
		resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/v1/workouts/day/28-08-2026", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeleteWorkoutHandler(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		ts := newTestServer(nil, nil, nil, nil)
		defer ts.Close()
		resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/workouts/"+workoutID.String(), nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
	t.Run("not found", func(t *testing.T) {
		ts := newTestServer(errorvalues.ErrWorkoutNotFound, nil, nil, nil)
		defer ts.Close()
		resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/workouts/"+workoutID.String(), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
	t.Run("invalid id", func(t *testing.T) {
		ts := newTestServer(nil, nil, nil, nil)
		defer ts.Close()
		resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/workouts/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetStreakHandler(t *testing.T) {
	t.Run("provided", func(t *testing.T) {
		ts := newTestServer(nil, nil, nil, nil)
		defer ts.Close()
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/streaks", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got api.StreakResponse
		require.NoError(t, sonic.Unmarshal(body, &got))
		assert.Equal(t, 3, got.CurrentStreak)
		assert.True(t, got.IsStreakActive)
		assert.Empty(t, got.Error)
	})
	t.Run("refetch failed serves stale snapshot", func(t *testing.T) {
		ts := newTestServer(nil, nil, errors.New("conn refused"), nil)
		defer ts.Close()
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/streaks", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got api.StreakResponse
		require.NoError(t, sonic.Unmarshal(body, &got))
		assert.Equal(t, 3, got.CurrentStreak)
		assert.NotEmpty(t, got.Error)
	})
}

func TestGetCalendarHandler(t *testing.T) {
	ts := newTestServer(nil, nil, nil, nil)
	defer ts.Close()
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/calendar", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Days map[string]api.CalendarDay `json:"days"`
	}
	require.NoError(t, sonic.Unmarshal(body, &got))
	require.Contains(t, got.Days, "2026-08-28")
	assert.Equal(t, 2, got.Days["2026-08-28"].Count)
	assert.Equal(t, 0.6, got.Days["2026-08-28"].Intensity)
}

func TestApplyTemplateHandler(t *testing.T) {
	t.Run("applied", func(t *testing.T) {
		ts := newTestServer(nil, nil, nil, nil)
		defer ts.Close()
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/templates/"+templateID.String()+"/apply",
			map[string]any{"workout_date": "2026-08-28"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var got map[string]string
		require.NoError(t, sonic.Unmarshal(body, &got))
		assert.Equal(t, sessionID.String(), got["session_id"])
	})
	t.Run("empty template", func(t *testing.T) {
		ts := newTestServer(nil, errorvalues.ErrEmptyTemplate, nil, nil)
		defer ts.Close()
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/templates/"+templateID.String()+"/apply",
			map[string]any{"workout_date": "2026-08-28"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
	t.Run("template not found", func(t *testing.T) {
		ts := newTestServer(nil, errorvalues.ErrTemplateNotFound, nil, nil)
		defer ts.Close()
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/templates/"+templateID.String()+"/quick-start", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSessionHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exerciseID := uuid.New()
	sessionsRepo := mocks.NewMockSessionsRepositoryI(ctrl)
	exercisesRepo := mocks.NewMockSessionExercisesRepositoryI(ctrl)
	sessionsRepo.EXPECT().GetByID(gomock.Any(), sessionID).
		Return(&entity.WorkoutSession{ID: sessionID, TemplateName: "Push Day"}, nil)
	exercisesRepo.EXPECT().GetBySessionID(gomock.Any(), sessionID).
		Return([]*entity.SessionExercise{{
			ID:           exerciseID,
			SessionID:    sessionID,
			ExerciseName: "Bench Press",
			SetNumber:    1,
			TotalSets:    1,
		}}, nil)
	exercisesRepo.EXPECT().UpdateFields(gomock.Any(), exerciseID, gomock.Any()).Return(nil).AnyTimes()
	sessionsRepo.EXPECT().Delete(gomock.Any(), sessionID).Return(nil)

	hub := service.NewSessionHubWithTimings(sessionsRepo, exercisesRepo, 10*time.Millisecond, 20*time.Millisecond)
	defer hub.CloseAll()
	ts := newTestServer(nil, nil, nil, hub)
	defer ts.Close()
	base := ts.URL + "/api/v1/sessions/" + sessionID.String()

	resp, body := doJSON(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state api.SessionStateResponse
	require.NoError(t, sonic.Unmarshal(body, &state))
	require.Len(t, state.Exercises, 1)
	assert.Equal(t, 0, state.CompletedCount)

	// Typing into the reps field marks the key as saving right away
	resp, body = doJSON(t, http.MethodPatch, base+"/exercises/"+exerciseID.String()+"/reps",
		map[string]any{"value": "9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, sonic.Unmarshal(body, &state))
	require.NotNil(t, state.Exercises[0].ActualReps)
	assert.Equal(t, 9, *state.Exercises[0].ActualReps)

	// Completing the only exercise flips the session to done
	resp, body = doJSON(t, http.MethodPost, base+"/exercises/"+exerciseID.String()+"/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, sonic.Unmarshal(body, &state))
	assert.Equal(t, 1, state.CompletedCount)
	assert.Equal(t, 100.0, state.ProgressPct)
	assert.True(t, state.JustCompleted)

	resp, _ = doJSON(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSessionHandlersNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessionsRepo := mocks.NewMockSessionsRepositoryI(ctrl)
	exercisesRepo := mocks.NewMockSessionExercisesRepositoryI(ctrl)
	missingID := uuid.New()
	sessionsRepo.EXPECT().GetByID(gomock.Any(), missingID).
		Return(nil, errorvalues.ErrSessionNotFound)

	hub := service.NewSessionHub(sessionsRepo, exercisesRepo)
	ts := newTestServer(nil, nil, nil, hub)
	defer ts.Close()

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+missingID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
