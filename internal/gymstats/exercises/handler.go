package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/empowerfit/backend/internal/cache"
	"github.com/empowerfit/backend/internal/telemetry/tracing"
	"github.com/empowerfit/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=exercises_test

type exercisesRepo interface {
	Add(ctx context.Context, exercise Exercise) (*Exercise, error)
	Get(ctx context.Context, id int) (*Exercise, error)
	List(ctx context.Context, params ListParams) ([]Exercise, error)
}

type Handler struct {
	repo  exercisesRepo
	cache cache.Cache
}

func NewHandler(repo exercisesRepo, listCache cache.Cache) *Handler {
	return &Handler{
		repo:  repo,
		cache: listCache,
	}
}

func listCacheKey(params ListParams) string {
	return fmt.Sprintf("exercises::%s::%s", strings.ToLower(params.Target), strings.ToLower(params.Category))
}

func (h *Handler) list(ctx context.Context, params ListParams) ([]Exercise, error) {
	key := listCacheKey(params)

	var cached []Exercise
	if h.cache.Get(key, &cached) {
		log.Tracef("exercises list [%s] found in cache", key)
		return cached, nil
	}

	exercises, err := h.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	h.cache.Set(key, exercises)
	return exercises, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	q := r.URL.Query()
	params := ListParams{
		Target:   q.Get("target"),
		Category: q.Get("category"),
	}
	if !filterEnabled(params.Target) {
		params.Target = ""
	}
	if !filterEnabled(params.Category) {
		params.Category = ""
	}

	exercises, err := h.list(ctx, params)
	if err != nil {
		log.Errorf("list exercises: %s", err)
		http.Error(w, "error, failed to list exercises", http.StatusInternalServerError)
		return
	}

	filtered := Filter(exercises, FilterParams{
		Search:     q.Get("search"),
		Equipment:  q.Get("equipment"),
		Difficulty: q.Get("difficulty"),
	})

	exercisesJson, err := json.Marshal(filtered)
	if err != nil {
		log.Errorf("failed to marshal exercises: %s", err)
		http.Error(w, "failed to marshal exercises", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, exercisesJson)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	e, err := h.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExerciseNotFound) {
			http.Error(w, "exercise not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get exercise %d: %s", id, err)
		http.Error(w, "error, failed to get exercise", http.StatusInternalServerError)
		return
	}

	exJson, err := json.Marshal(e)
	if err != nil {
		log.Errorf("failed to marshal exercise: %s", err)
		http.Error(w, "failed to marshal exercise", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, exJson)
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.add")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var exercise Exercise
	if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
		log.Tracef("new exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	exercise.Name = strings.TrimSpace(exercise.Name)
	exercise.Target = strings.TrimSpace(exercise.Target)
	if exercise.Name == "" || exercise.Target == "" {
		http.Error(w, "error, exercise name or target empty", http.StatusBadRequest)
		return
	}

	added, err := h.repo.Add(ctx, exercise)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			http.Error(w, "error, exercise already exists", http.StatusConflict)
			return
		}
		log.Errorf("failed to add new exercise [%s]: %s", exercise.Name, err)
		http.Error(w, "error, failed to add new exercise", http.StatusInternalServerError)
		return
	}
	h.cache.Clear()

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("failed to marshal new exercise: %s", err)
		http.Error(w, "error, failed to add new exercise", http.StatusInternalServerError)
		return
	}

	log.Debugf("new exercise added: %s", addedJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}
