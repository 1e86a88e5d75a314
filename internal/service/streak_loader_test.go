package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/ironlog/internal/repository/mocks"
	"github.com/ironlog/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(date string) func() time.Time {
	t, _ := time.ParseInLocation("2006-01-02", date, time.Local)
	return func() time.Time { return t }
}

func TestStreakLoaderRefetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workoutsRepo := mocks.NewMockWorkoutsRepositoryI(ctrl)
	sessionsRepo := mocks.NewMockSessionsRepositoryI(ctrl)
	workoutsRepo.EXPECT().ListDates(gomock.Any()).
		Return([]string{"2026-08-27", "2026-08-28", "2026-08-27"}, nil)
	sessionsRepo.EXPECT().ListDates(gomock.Any()).
		Return([]string{"2026-08-28", "2026-08-26"}, nil)

	sl := service.NewStreakLoaderWithClock(workoutsRepo, sessionsRepo, fixedClock("2026-08-28"))
	require.NoError(t, sl.Refetch(context.Background()))

	data, loading := sl.Snapshot()
	assert.False(t, loading)
	// A date logged in both sources counts once
	assert.Equal(t, 3, data.TotalWorkouts)
	assert.Equal(t, 3, data.CurrentStreak)
	assert.Equal(t, 3, data.LongestStreak)
	assert.Equal(t, "2026-08-28", data.LastWorkoutDate)
	assert.True(t, data.IsStreakActive)
}

func TestStreakLoaderFailureKeepsSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workoutsRepo := mocks.NewMockWorkoutsRepositoryI(ctrl)
	sessionsRepo := mocks.NewMockSessionsRepositoryI(ctrl)
	sl := service.NewStreakLoaderWithClock(workoutsRepo, sessionsRepo, fixedClock("2026-08-28"))

	workoutsRepo.EXPECT().ListDates(gomock.Any()).Return([]string{"2026-08-28"}, nil)
	sessionsRepo.EXPECT().ListDates(gomock.Any()).Return([]string{}, nil)
	require.NoError(t, sl.Refetch(context.Background()))

	// Either source failing aborts the recompute wholesale
	workoutsRepo.EXPECT().ListDates(gomock.Any()).Return([]string{"2026-08-28", "2026-08-27"}, nil)
	sessionsRepo.EXPECT().ListDates(gomock.Any()).Return(nil, errors.New("conn refused"))
	assert.Error(t, sl.Refetch(context.Background()))

	data, loading := sl.Snapshot()
	assert.False(t, loading)
	assert.Equal(t, 1, data.TotalWorkouts)
	assert.Equal(t, "2026-08-28", data.LastWorkoutDate)
}

func TestStreakLoaderLastWriteWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workoutsRepo := mocks.NewMockWorkoutsRepositoryI(ctrl)
	sessionsRepo := mocks.NewMockSessionsRepositoryI(ctrl)
	sl := service.NewStreakLoaderWithClock(workoutsRepo, sessionsRepo, fixedClock("2026-08-28"))

	staleStarted := make(chan struct{})
	release := make(chan struct{})
	workoutsRepo.EXPECT().ListDates(gomock.Any()).
		DoAndReturn(func(context.Context) ([]string, error) {
			close(staleStarted)
			<-release
			return []string{"2020-01-01"}, nil
		})
	workoutsRepo.EXPECT().ListDates(gomock.Any()).Return([]string{"2026-08-28"}, nil)
	sessionsRepo.EXPECT().ListDates(gomock.Any()).Return([]string{}, nil).Times(2)

	staleDone := make(chan struct{})
	go func() {
		defer close(staleDone)
		_ = sl.Refetch(context.Background())
	}()
	<-staleStarted

	require.NoError(t, sl.Refetch(context.Background()))
	close(release)
	<-staleDone

	// The older fetch finished last but must not clobber the newer result
	data, loading := sl.Snapshot()
	assert.False(t, loading)
	assert.Equal(t, "2026-08-28", data.LastWorkoutDate)
	assert.Equal(t, 1, data.TotalWorkouts)
}
