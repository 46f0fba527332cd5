package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/empowerfit/backend/internal/auth"
	"github.com/empowerfit/backend/internal/telemetry/tracing"
	"github.com/empowerfit/backend/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type workoutsService interface {
	AddWorkout(ctx context.Context, userID string, workout WorkoutLog) (*WorkoutLog, error)
	LogQuickExercise(ctx context.Context, userID string, quick QuickExercise) (*WorkoutLog, error)
	List(ctx context.Context, userID string) ([]WorkoutLog, error)
	Stats(ctx context.Context, userID string, now time.Time) (Stats, error)
}

type Handler struct {
	service workoutsService
	now     func() time.Time
}

func NewHandler(service workoutsService, now func() time.Time) *Handler {
	return &Handler{
		service: service,
		now:     now,
	}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal workouts response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, b, status)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	logs, err := h.service.List(ctx, userID)
	if err != nil {
		log.Errorf("list workouts for [%s]: %s", userID, err)
		http.Error(w, "error, failed to list workouts", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []WorkoutLog{}
	}

	writeJSON(w, logs, http.StatusOK)
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var workout WorkoutLog
	if err := json.NewDecoder(r.Body).Decode(&workout); err != nil {
		log.Tracef("new workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}
	if workout.Date.IsZero() {
		workout.Date = h.now()
	}

	added, err := h.service.AddWorkout(ctx, userID, workout)
	if err != nil {
		if errors.Is(err, ErrInvalidWorkout) {
			http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("add workout for [%s]: %s", userID, err)
		http.Error(w, "error, failed to add workout", http.StatusInternalServerError)
		return
	}

	writeJSON(w, added, http.StatusCreated)
}

func (h *Handler) HandleQuickLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.quick")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var quick QuickExercise
	if err := json.NewDecoder(r.Body).Decode(&quick); err != nil {
		log.Tracef("quick log, unmarshal json params: %s", err)
		http.Error(w, "quick log failed", http.StatusBadRequest)
		return
	}
	if quick.Date.IsZero() {
		quick.Date = h.now()
	}

	added, err := h.service.LogQuickExercise(ctx, userID, quick)
	if err != nil {
		if errors.Is(err, ErrInvalidWorkout) {
			http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("quick log for [%s]: %s", userID, err)
		http.Error(w, "error, failed to log exercise", http.StatusInternalServerError)
		return
	}

	writeJSON(w, added, http.StatusCreated)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.stats")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	stats, err := h.service.Stats(ctx, userID, h.now())
	if err != nil {
		log.Errorf("workout stats for [%s]: %s", userID, err)
		http.Error(w, "error, failed to get workout stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, stats, http.StatusOK)
}
