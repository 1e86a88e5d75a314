package main

import (
	"log"

	"github.com/ironlog/internal/api"
	"github.com/ironlog/internal/repository"
	"github.com/ironlog/internal/service"
	"github.com/ironlog/pkg/cleanup"
	"github.com/ironlog/pkg/config"
)

func init() {
	service.InitValidator()
}

func main() {
	defer cleanup.CleanUp()
	cfg := config.New()
	dbCfg := repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
	workoutsRepo := repository.NewWorkoutsRepo(&dbCfg)
	sessionsRepo := repository.NewSessionsRepo(&dbCfg)
	exercisesRepo := repository.NewSessionExercisesRepo(&dbCfg)
	templatesRepo := repository.NewTemplatesRepo(&dbCfg)

	sessionHub := service.NewSessionHub(sessionsRepo, exercisesRepo)
	cleanup.Register(&cleanup.Job{
		Name: "closing session controllers",
		F: func() error {
			sessionHub.CloseAll()
			return nil
		},
	})
	serv := api.New(&api.ServicesList{
		WorkoutService:  service.NewWorkoutService(workoutsRepo, sessionsRepo),
		TemplateService: service.NewTemplateService(templatesRepo, sessionsRepo, exercisesRepo),
		StreakLoader:    service.NewStreakLoader(workoutsRepo, sessionsRepo),
		SessionHub:      sessionHub,
	})
	err := serv.Run(cfg.GetString("API_ADDRESS"))
	if err != nil {
		log.Println("Server error: " + err.Error())
	}
}
