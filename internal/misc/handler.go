package misc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/empowerfit/backend/internal/telemetry/tracing"
	"github.com/empowerfit/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=misc_test

// pinger is satisfied by *pgxpool.Pool.
type pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type Handler struct {
	versionInfo string
	db          pinger
	redisPing   PingFunc
}

func NewHandler(versionInfo string, db pinger, redisPing PingFunc) *Handler {
	return &Handler{
		versionInfo: versionInfo,
		db:          db,
		redisPing:   redisPing,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/health", handler.handleHealth).Methods("GET").Name("health")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.health")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status: "ok",
		Checks: map[string]string{},
	}
	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			log.Errorf("health check [%s]: %s", name, err)
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			return
		}
		resp.Checks[name] = "ok"
	}
	if handler.db != nil {
		check("postgres", handler.db.Ping)
	}
	if handler.redisPing != nil {
		check("redis", handler.redisPing)
	}

	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal health response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, status)
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}
