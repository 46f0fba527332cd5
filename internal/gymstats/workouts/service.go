package workouts

import (
	"context"
	"fmt"
	"time"

	"github.com/empowerfit/backend/internal/telemetry/metrics"
	"github.com/empowerfit/backend/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	Add(ctx context.Context, workout WorkoutLog) (*WorkoutLog, error)
	ListAll(ctx context.Context, userID string) ([]WorkoutLog, error)
}

type Service struct {
	repo           workoutsRepo
	metricsManager *metrics.Manager
}

func NewService(repo workoutsRepo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (s *Service) AddWorkout(ctx context.Context, userID string, workout WorkoutLog) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := workout.Validate(); err != nil {
		return nil, err
	}
	workout.UserID = userID

	added, err := s.repo.Add(ctx, workout)
	if err != nil {
		return nil, fmt.Errorf("add workout: %w", err)
	}
	s.metricsManager.CounterWorkouts.Inc()
	log.Debugf("workout [%d] %s added for [%s]", added.ID, added.Name, userID)

	return added, nil
}

// LogQuickExercise stores a single exercise as its own workout named "Quick <exercise>".
func (s *Service) LogQuickExercise(ctx context.Context, userID string, quick QuickExercise) (*WorkoutLog, error) {
	return s.AddWorkout(ctx, userID, quick.toWorkout())
}

func (s *Service) List(ctx context.Context, userID string) ([]WorkoutLog, error) {
	return s.repo.ListAll(ctx, userID)
}

func (s *Service) Stats(ctx context.Context, userID string, now time.Time) (_ Stats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.stats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	logs, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("list workouts: %w", err)
	}
	return ComputeStats(logs, now), nil
}
