package service

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	errorvalues "github.com/ironlog/internal/error_values"
	"github.com/ironlog/pkg/streak"
)

// Package-wide validator with custom validations
var (
	validate *validator.Validate
	once     sync.Once
)

func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("workout_date", func(fl validator.FieldLevel) bool {
			_, err := streak.ParseLocal(fl.Field().String())
			return err == nil
		})
	})
}

// validateStruct runs the request through the validator and folds field
// errors into errorvalues.ErrValidation so callers can errors.Is on it.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	if validationError, ok := err.(validator.ValidationErrors); ok {
		err = errorvalues.ErrValidation
		for _, fieldErr := range validationError {
			err = errors.Join(err, fieldErr)
		}
		return err
	}
	return errors.New("validation unexpected error: " + err.Error())
}
