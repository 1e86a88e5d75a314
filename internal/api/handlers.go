package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/internal/service"
	"github.com/ironlog/pkg/entity"
	"github.com/ironlog/pkg/httputil"
	"github.com/ironlog/pkg/streak"
)

type LogWorkoutRequest struct {
	WorkoutDate string   `json:"workout_date"`
	Name        string   `json:"workout_name"`
	Reps        *int     `json:"reps"`
	WeightLbs   *float64 `json:"weight_lbs"`
}

type SaveTemplateExercise struct {
	ExerciseName string   `json:"exercise_name"`
	TargetReps   *int     `json:"target_reps"`
	TargetWeight *float64 `json:"target_weight"`
	Sets         int      `json:"sets"`
}

type SaveTemplateRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Exercises   []SaveTemplateExercise `json:"exercises"`
}

type ApplyTemplateRequest struct {
	WorkoutDate string `json:"workout_date"`
}

type SetFieldRequest struct {
	Value string `json:"value"`
}

type AdjustRepsRequest struct {
	Delta int `json:"delta"`
}

type AdjustWeightRequest struct {
	Delta float64 `json:"delta"`
}

type GetDayResponse struct {
	Date     string                   `json:"date"`
	Workouts []*entity.Workout        `json:"workouts"`
	Sessions []*entity.WorkoutSession `json:"sessions"`
}

type StreakResponse struct {
	entity.StreakData
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

type CalendarDay struct {
	Count     int     `json:"count"`
	Intensity float64 `json:"intensity"`
}

type SessionStateResponse struct {
	SessionID      string                   `json:"session_id"`
	Exercises      []entity.SessionExercise `json:"exercises"`
	CompletedCount int                      `json:"completed_count"`
	TotalCount     int                      `json:"total_count"`
	ProgressPct    float64                  `json:"progress_pct"`
	SavingFields   []string                 `json:"saving_fields"`
	SavedFields    []string                 `json:"saved_fields"`
	JustCompleted  bool                     `json:"just_completed,omitempty"`
	Error          string                   `json:"error,omitempty"`
}

func (s *Server) LogWorkout(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req LogWorkoutRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("log workout error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	id, err := s.workoutService.LogWorkout(ctx, &service.LogWorkoutRequest{
		WorkoutDate: req.WorkoutDate,
		Name:        req.Name,
		Reps:        req.Reps,
		WeightLbs:   req.WeightLbs,
	})
	if err != nil {
		if errors.Is(err, errorvalues.ErrValidation) {
			logger.Error("log workout error: validation failed")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "validation failed", err)
			return
		}
		logger.Error("log workout error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while logging workout", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, map[string]any{"workout_id": id.String()})
	logger.Info("workout logged")
}

func (s *Server) GetDay(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	date := r.PathValue("date")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	workouts, sessions, err := s.workoutService.GetDay(ctx, date)
	if err != nil {
		if errors.Is(err, errorvalues.ErrInvalidDate) {
			logger.Error("get day error: invalid date in path value")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
			return
		}
		logger.Error("get day error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting day", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, GetDayResponse{
		Date:     date,
		Workouts: workouts,
		Sessions: sessions,
	})
	logger.Info("day provided")
}

func (s *Server) DeleteWorkout(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("workout deletion error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid workout id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.workoutService.DeleteWorkout(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrWorkoutNotFound) {
			logger.Error("workout deletion error: unexist workout")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "workout doesn't exist", nil)
			return
		}
		logger.Error("workout deletion error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while deleting workout", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("workout deleted")
}

func (s *Server) GetCalendar(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	counts, err := s.workoutService.CalendarCounts(ctx)
	if err != nil {
		logger.Error("get calendar error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting calendar", nil)
		return
	}
	days := make(map[string]CalendarDay, len(counts))
	for date, count := range counts {
		days[date] = CalendarDay{
			Count:     count,
			Intensity: streak.Intensity(count),
		}
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"days": days})
	logger.Info("calendar provided")
}

func (s *Server) GetStreak(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	resp := StreakResponse{}
	err := s.streakLoader.Refetch(ctx)
	if err != nil {
		// The stale snapshot still serves, the client shows the error
		// with a retry affordance
		logger.Error("get streak error: refetch failed", slog.String("error", err.Error()))
		resp.Error = "failed to refresh streak data"
	}
	resp.StreakData, resp.Loading = s.streakLoader.Snapshot()
	httputil.WriteJSONResponse(w, http.StatusOK, resp)
	logger.Info("streak provided")
}

func (s *Server) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req SaveTemplateRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create template error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	id, err := s.templateService.CreateTemplate(ctx, saveTemplateRequest(&req))
	if err != nil {
		if errors.Is(err, errorvalues.ErrValidation) {
			logger.Error("create template error: validation failed")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "validation failed", err)
			return
		}
		logger.Error("create template error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while creating template", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, map[string]any{"template_id": id.String()})
	logger.Info("template created")
}

func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	templates, err := s.templateService.ListTemplates(ctx)
	if err != nil {
		logger.Error("list templates error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing templates", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"templates": templates})
	logger.Info("templates provided")
}

func (s *Server) GetRecentTemplates(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	recent, err := s.templateService.RecentTemplates(ctx)
	if err != nil {
		logger.Error("recent templates error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing recent templates", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"templates": recent})
	logger.Info("recent templates provided")
}

func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("get template error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid template id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	template, err := s.templateService.GetTemplate(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTemplateNotFound) {
			logger.Error("get template error: unexist template")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "template doesn't exist", nil)
			return
		}
		logger.Error("get template error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting template", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, template)
	logger.Info("template provided")
}

func (s *Server) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("update template error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid template id in path value", nil)
		return
	}
	var req SaveTemplateRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("update template error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.templateService.UpdateTemplate(ctx, id, saveTemplateRequest(&req))
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation):
			logger.Error("update template error: validation failed")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "validation failed", err)
		case errors.Is(err, errorvalues.ErrTemplateNotFound):
			logger.Error("update template error: unexist template")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "template doesn't exist", nil)
		default:
			logger.Error("update template error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while updating template", nil)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("template updated")
}

func (s *Server) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("template deletion error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid template id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.templateService.DeleteTemplate(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTemplateNotFound) {
			logger.Error("template deletion error: unexist template")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "template doesn't exist", nil)
			return
		}
		logger.Error("template deletion error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while deleting template", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("template deleted")
}

func (s *Server) DuplicateTemplate(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("template duplication error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid template id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	copyID, err := s.templateService.DuplicateTemplate(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrTemplateNotFound) {
			logger.Error("template duplication error: unexist template")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "template doesn't exist", nil)
			return
		}
		logger.Error("template duplication error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while duplicating template", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, map[string]any{"template_id": copyID.String()})
	logger.Info("template duplicated")
}

func (s *Server) GetTemplateUsage(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("template usage error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid template id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	count, err := s.templateService.TemplateUsage(ctx, id)
	if err != nil {
		logger.Error("template usage error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while counting template usage", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"session_count": count})
	logger.Info("template usage provided")
}

func (s *Server) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("apply template error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid template id in path value", nil)
		return
	}
	var req ApplyTemplateRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("apply template error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	sessionID, err := s.templateService.Apply(ctx, id, req.WorkoutDate)
	if err != nil {
		s.writeApplyError(w, logger, err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, map[string]any{"session_id": sessionID.String()})
	logger.Info("template applied")
}

func (s *Server) QuickStartTemplate(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("quick start error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid template id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	sessionID, err := s.templateService.QuickStart(ctx, id)
	if err != nil {
		s.writeApplyError(w, logger, err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, map[string]any{"session_id": sessionID.String()})
	logger.Info("template quick-started")
}

func (s *Server) writeApplyError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, errorvalues.ErrInvalidDate):
		logger.Error("apply template error: invalid date")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
	case errors.Is(err, errorvalues.ErrTemplateNotFound):
		logger.Error("apply template error: unexist template")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "template doesn't exist", nil)
	case errors.Is(err, errorvalues.ErrEmptyTemplate):
		logger.Error("apply template error: template has no exercises")
		httputil.WriteErrorResponse(w, http.StatusConflict, "template has no exercises", nil)
	default:
		logger.Error("apply template error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while applying template", nil)
	}
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	controller, ok := s.sessionController(w, r, logger)
	if !ok {
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, sessionState(controller))
	logger.Info("session provided")
}

func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("session deletion error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid session id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.sessionHub.DeleteSession(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrSessionNotFound) {
			logger.Error("session deletion error: unexist session")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "session doesn't exist", nil)
			return
		}
		logger.Error("session deletion error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while deleting session", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("session deleted")
}

func (s *Server) ToggleSessionExercise(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	controller, exerciseID, ok := s.sessionExercise(w, r, logger)
	if !ok {
		return
	}
	if err := controller.ToggleCompleted(exerciseID); err != nil {
		s.writeExerciseError(w, logger, err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, sessionState(controller))
	logger.Info("exercise toggled")
}

func (s *Server) SetExerciseReps(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	controller, exerciseID, ok := s.sessionExercise(w, r, logger)
	if !ok {
		return
	}
	var req SetFieldRequest
	defer r.Body.Close()
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("set reps error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := controller.SetActualReps(exerciseID, req.Value); err != nil {
		s.writeExerciseError(w, logger, err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, sessionState(controller))
	logger.Info("reps updated")
}

func (s *Server) SetExerciseWeight(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	controller, exerciseID, ok := s.sessionExercise(w, r, logger)
	if !ok {
		return
	}
	var req SetFieldRequest
	defer r.Body.Close()
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("set weight error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := controller.SetActualWeight(exerciseID, req.Value); err != nil {
		s.writeExerciseError(w, logger, err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, sessionState(controller))
	logger.Info("weight updated")
}

func (s *Server) AdjustExerciseReps(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	controller, exerciseID, ok := s.sessionExercise(w, r, logger)
	if !ok {
		return
	}
	var req AdjustRepsRequest
	defer r.Body.Close()
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("adjust reps error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := controller.AdjustReps(exerciseID, req.Delta); err != nil {
		s.writeExerciseError(w, logger, err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, sessionState(controller))
	logger.Info("reps adjusted")
}

func (s *Server) AdjustExerciseWeight(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	controller, exerciseID, ok := s.sessionExercise(w, r, logger)
	if !ok {
		return
	}
	var req AdjustWeightRequest
	defer r.Body.Close()
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("adjust weight error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := controller.AdjustWeight(exerciseID, req.Delta); err != nil {
		s.writeExerciseError(w, logger, err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, sessionState(controller))
	logger.Info("weight adjusted")
}

// sessionController resolves the live controller for the session id in
// the path, writing the error response itself on failure.
func (s *Server) sessionController(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*service.SessionController, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("session lookup error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid session id in path value", nil)
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	controller, err := s.sessionHub.Controller(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrSessionNotFound) {
			logger.Error("session lookup error: unexist session")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "session doesn't exist", nil)
			return nil, false
		}
		logger.Error("session lookup error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while loading session", nil)
		return nil, false
	}
	return controller, true
}

func (s *Server) sessionExercise(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*service.SessionController, uuid.UUID, bool) {
	controller, ok := s.sessionController(w, r, logger)
	if !ok {
		return nil, uuid.Nil, false
	}
	exerciseID, err := uuid.Parse(r.PathValue("exerciseID"))
	if err != nil {
		logger.Error("exercise lookup error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid exercise id in path value", nil)
		return nil, uuid.Nil, false
	}
	return controller, exerciseID, true
}

func (s *Server) writeExerciseError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if errors.Is(err, errorvalues.ErrExerciseNotFound) {
		logger.Error("exercise update error: unexist exercise")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "exercise doesn't exist", nil)
		return
	}
	logger.Error("exercise update error: service error", slog.String("error", err.Error()))
	httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while updating exercise", nil)
}

func sessionState(controller *service.SessionController) SessionStateResponse {
	completed, total, pct := controller.Progress()
	return SessionStateResponse{
		SessionID:      controller.SessionID().String(),
		Exercises:      controller.Exercises(),
		CompletedCount: completed,
		TotalCount:     total,
		ProgressPct:    pct,
		SavingFields:   controller.SavingFields(),
		SavedFields:    controller.SavedFields(),
		JustCompleted:  controller.ConsumeCompletion(),
		Error:          controller.Err(),
	}
}

func saveTemplateRequest(req *SaveTemplateRequest) *service.SaveTemplateRequest {
	exercises := make([]service.SaveTemplateExercise, 0, len(req.Exercises))
	for _, ex := range req.Exercises {
		exercises = append(exercises, service.SaveTemplateExercise{
			ExerciseName: ex.ExerciseName,
			TargetReps:   ex.TargetReps,
			TargetWeight: ex.TargetWeight,
			Sets:         ex.Sets,
		})
	}
	return &service.SaveTemplateRequest{
		Name:        req.Name,
		Description: req.Description,
		Exercises:   exercises,
	}
}
