package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ironlog/internal/service"
)

type Server struct {
	mx              *chi.Mux
	workoutService  service.WorkoutServiceI
	templateService service.TemplateServiceI
	streakLoader    service.StreakLoaderI
	sessionHub      service.SessionHubI
}

type ServicesList struct {
	WorkoutService  service.WorkoutServiceI
	TemplateService service.TemplateServiceI
	StreakLoader    service.StreakLoaderI
	SessionHub      service.SessionHubI
}

func New(servicesOptions *ServicesList) *Server {
	return &Server{
		mx:              chi.NewMux(),
		workoutService:  servicesOptions.WorkoutService,
		templateService: servicesOptions.TemplateService,
		streakLoader:    servicesOptions.StreakLoader,
		sessionHub:      servicesOptions.SessionHub,
	}
}

func (s *Server) MountHandlers() {
	s.mx.Use(s.RequestIDMiddleware)
	s.mx.Use(s.SettingUpLoggerMiddleware)
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Route("/workouts", func(r chi.Router) {
			r.Post("/", s.LogWorkout)
			r.Get("/day/{date}", s.GetDay)
			r.Delete("/{id}", s.DeleteWorkout)
		})
		r.Get("/calendar", s.GetCalendar)
		r.Get("/streaks", s.GetStreak)
		r.Route("/templates", func(r chi.Router) {
			r.Post("/", s.CreateTemplate)
			r.Get("/", s.ListTemplates)
			r.Get("/recent", s.GetRecentTemplates)
			r.Get("/{id}", s.GetTemplate)
			r.Put("/{id}", s.UpdateTemplate)
			r.Delete("/{id}", s.DeleteTemplate)
			r.Post("/{id}/duplicate", s.DuplicateTemplate)
			r.Get("/{id}/usage", s.GetTemplateUsage)
			r.Post("/{id}/apply", s.ApplyTemplate)
			r.Post("/{id}/quick-start", s.QuickStartTemplate)
		})
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Route("/exercises/{exerciseID}", func(r chi.Router) {
				r.Post("/toggle", s.ToggleSessionExercise)
				r.Patch("/reps", s.SetExerciseReps)
				r.Patch("/weight", s.SetExerciseWeight)
				r.Post("/adjust-reps", s.AdjustExerciseReps)
				r.Post("/adjust-weight", s.AdjustExerciseWeight)
			})
		})
	})
}

func (s *Server) Run(address string) error {
	s.MountHandlers()
	return http.ListenAndServe(address, s.mx)
}

// Handler exposes the mounted mux, used by the HTTP tests.
func (s *Server) Handler() http.Handler {
	return s.mx
}
