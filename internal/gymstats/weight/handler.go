package weight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/empowerfit/backend/internal/auth"
	"github.com/empowerfit/backend/internal/telemetry/metrics"
	"github.com/empowerfit/backend/internal/telemetry/tracing"
	"github.com/empowerfit/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=weight_test

const (
	defaultChartPeriod = 30
	maxImportBodyBytes = 2 << 20
	emptyChartMessage  = "Not enough data to display chart. Log your weight to see progress."
)

type entriesRepo interface {
	Add(ctx context.Context, entry Entry) (*Entry, error)
	AddBatch(ctx context.Context, userID string, entries []Entry) (int, error)
	Update(ctx context.Context, userID string, id int, patch Patch) (*Entry, error)
	Delete(ctx context.Context, userID string, id int) error
	ListAll(ctx context.Context, userID string, params ListParams) ([]Entry, error)
}

// Source returns the full, already resolved measurement history of a user.
type Source func(ctx context.Context, userID string) ([]Entry, error)

var exportFormats = map[string]bool{
	"csv":  true,
	"xlsx": true,
	"pdf":  true,
}

type AddEntryRequest struct {
	// Date is YYYY-MM-DD, today when empty
	Date      string    `json:"date"`
	Weight    float64   `json:"weight"`
	BodyFat   *float64  `json:"bodyFat,omitempty"`
	TimeOfDay TimeOfDay `json:"timeOfDay"`
	Notes     *string   `json:"notes,omitempty"`
}

type ChartResponse struct {
	Summary
	Period int    `json:"period"`
	Unit   string `json:"unit"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type DeleteEntryResponse struct {
	DeletedID int `json:"deletedId"`
}

type Handler struct {
	repo           entriesRepo
	source         Source
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewHandler(repo entriesRepo, metricsManager *metrics.Manager, now func() time.Time) *Handler {
	return &Handler{
		repo: repo,
		source: func(ctx context.Context, userID string) ([]Entry, error) {
			return repo.ListAll(ctx, userID, ListParams{Ascending: true})
		},
		metricsManager: metricsManager,
		now:            now,
	}
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
	}
	return id, ok
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal weight response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, b, status)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateValues(weight *float64, bodyFat *float64, timeOfDay *TimeOfDay) error {
	if weight != nil && (!isFinite(*weight) || !(*weight > 0)) {
		return errors.New("weight must be greater than 0")
	}
	if bodyFat != nil && (!isFinite(*bodyFat) || *bodyFat < 0 || *bodyFat > 100) {
		return errors.New("body fat must be between 0 and 100")
	}
	if timeOfDay != nil && !timeOfDay.IsValid() {
		return fmt.Errorf("invalid time of day [%s]", *timeOfDay)
	}
	return nil
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weight.add")
	defer span.End()

	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new weight entry, unmarshal json params: %s", err)
		http.Error(w, "add weight entry failed", http.StatusBadRequest)
		return
	}

	if req.TimeOfDay == "" {
		req.TimeOfDay = TimeOfDayMorning
	}
	if err := validateValues(&req.Weight, req.BodyFat, &req.TimeOfDay); err != nil {
		http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
		return
	}

	now := h.now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.Date != "" {
		parsed, err := time.Parse(csvDateLayout, req.Date)
		if err != nil {
			http.Error(w, "error, date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	added, err := h.repo.Add(ctx, Entry{
		UserID:    uid,
		Date:      date,
		Weight:    req.Weight,
		BodyFat:   req.BodyFat,
		TimeOfDay: req.TimeOfDay,
		Notes:     req.Notes,
		CreatedAt: now,
	})
	if err != nil {
		log.Errorf("failed to add weight entry for [%s]: %s", uid, err)
		http.Error(w, "error, failed to add weight entry", http.StatusInternalServerError)
		return
	}
	h.metricsManager.CounterWeightEntries.Inc()

	writeJSON(w, added, http.StatusCreated)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weight.list")
	defer span.End()

	uid, ok := userID(w, r)
	if !ok {
		return
	}

	params := ListParams{}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			http.Error(w, "error, invalid limit", http.StatusBadRequest)
			return
		}
		params.Limit = limit
	}

	entries, err := h.repo.ListAll(ctx, uid, params)
	if err != nil {
		log.Errorf("failed to list weight entries for [%s]: %s", uid, err)
		http.Error(w, "error, failed to list weight entries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	writeJSON(w, entries, http.StatusOK)
}

func entryID(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weight.update")
	defer span.End()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Tracef("update weight entry, unmarshal json params: %s", err)
		http.Error(w, "update weight entry failed", http.StatusBadRequest)
		return
	}
	if err := validateValues(patch.Weight, patch.BodyFat, patch.TimeOfDay); err != nil {
		http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.repo.Update(ctx, uid, id, patch)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "weight entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update weight entry %d: %s", id, err)
		http.Error(w, "error, failed to update weight entry", http.StatusInternalServerError)
		return
	}

	writeJSON(w, updated, http.StatusOK)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weight.delete")
	defer span.End()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(ctx, uid, id); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "weight entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete weight entry %d: %s", id, err)
		http.Error(w, "error, failed to delete weight entry", http.StatusInternalServerError)
		return
	}

	writeJSON(w, DeleteEntryResponse{DeletedID: id}, http.StatusOK)
}

// chartParams reads ?period=7|30|90 (30 when missing) and ?unit=kg|lb.
func chartParams(r *http.Request) (int, UnitSystem, error) {
	period := defaultChartPeriod
	if periodStr := r.URL.Query().Get("period"); periodStr != "" {
		p, err := strconv.Atoi(periodStr)
		if err != nil {
			return 0, "", fmt.Errorf("%w: period NaN", ErrInvalidParameter)
		}
		period = p
	}
	if !IsValidWindow(period) {
		return 0, "", fmt.Errorf("%w: period must be 7, 30 or 90", ErrInvalidParameter)
	}
	return period, ParseUnit(r.URL.Query().Get("unit")), nil
}

func (h *Handler) summary(ctx context.Context, r *http.Request, uid string) (Summary, int, UnitSystem, error) {
	period, unit, err := chartParams(r)
	if err != nil {
		return Summary{}, 0, "", err
	}
	history, err := h.source(ctx, uid)
	if err != nil {
		return Summary{}, 0, "", fmt.Errorf("load history: %w", err)
	}
	summary, err := Chart(history, period, h.now(), unit)
	return summary, period, unit, err
}

func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weight.chart")
	defer span.End()

	uid, ok := userID(w, r)
	if !ok {
		return
	}

	summary, period, unit, err := h.summary(ctx, r, uid)
	if err != nil {
		if errors.Is(err, ErrInvalidParameter) {
			http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("weight chart for [%s]: %s", uid, err)
		http.Error(w, "error, failed to get weight chart", http.StatusInternalServerError)
		return
	}

	writeJSON(w, ChartResponse{
		Summary: summary,
		Period:  period,
		Unit:    unit.Label(),
	}, http.StatusOK)
}

func (h *Handler) HandleChartPNG(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weight.chart.png")
	defer span.End()

	uid, ok := userID(w, r)
	if !ok {
		return
	}

	summary, _, unit, err := h.summary(ctx, r, uid)
	if err != nil {
		if errors.Is(err, ErrInvalidParameter) {
			http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("weight chart png for [%s]: %s", uid, err)
		http.Error(w, "error, failed to get weight chart", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := RenderChartPNG(&buf, summary, unit); err != nil {
		if errors.Is(err, ErrNotEnoughData) {
			http.Error(w, emptyChartMessage, http.StatusNotFound)
			return
		}
		log.Errorf("render weight chart png for [%s]: %s", uid, err)
		http.Error(w, "error, failed to render weight chart", http.StatusInternalServerError)
		return
	}

	h.metricsManager.CounterWeightExports.WithLabelValues("png").Inc()
	pkg.WriteResponseBytesOK(w, pkg.ContentType.PNG, buf.Bytes())
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weight.export")
	defer span.End()

	uid, ok := userID(w, r)
	if !ok {
		return
	}

	format := mux.Vars(r)["format"]
	if format == "" {
		format = "csv"
	}
	if !exportFormats[format] {
		http.Error(w, "error, unknown export format", http.StatusBadRequest)
		return
	}

	history, err := h.source(ctx, uid)
	if err != nil {
		log.Errorf("weight export for [%s]: %s", uid, err)
		http.Error(w, "error, failed to export weight data", http.StatusInternalServerError)
		return
	}
	history = SortByDate(history)

	now := h.now()
	unit := ParseUnit(r.URL.Query().Get("unit"))
	baseName := ExportFileName(now)
	baseName = baseName[:len(baseName)-len(".csv")]

	var (
		content     []byte
		contentType string
		fileName    string
	)
	switch format {
	case "csv":
		content, contentType, fileName = []byte(ToCSV(history)), pkg.ContentType.CSV, ExportFileName(now)
	case "xlsx":
		content, err = BuildXLSX(history, Summarize(history, history, unit), unit)
		contentType, fileName = pkg.ContentType.XLSX, baseName+".xlsx"
	case "pdf":
		// the report table lists the latest entries first
		newestFirst := make([]Entry, len(history))
		for i, e := range history {
			newestFirst[len(history)-1-i] = e
		}
		content, err = BuildPDF(newestFirst, Summarize(history, history, unit), unit, now)
		contentType, fileName = pkg.ContentType.PDF, baseName+".pdf"
	default:
		http.Error(w, "error, unknown export format", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("weight export [%s] for [%s]: %s", format, uid, err)
		http.Error(w, "error, failed to export weight data", http.StatusInternalServerError)
		return
	}

	h.metricsManager.CounterWeightExports.WithLabelValues(format).Inc()
	pkg.WriteAttachment(w, contentType, fileName, content)
}

func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weight.import")
	defer span.End()

	uid, ok := userID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	if err != nil {
		http.Error(w, "error, failed to read csv", http.StatusBadRequest)
		return
	}

	entries, err := ParseCSV(string(body))
	if err != nil {
		http.Error(w, "error, "+err.Error(), http.StatusBadRequest)
		return
	}
	for i := range entries {
		if err := validateValues(&entries[i].Weight, entries[i].BodyFat, &entries[i].TimeOfDay); err != nil {
			http.Error(w, fmt.Sprintf("error, entry %d: %s", i+1, err), http.StatusBadRequest)
			return
		}
	}
	if len(entries) == 0 {
		writeJSON(w, ImportResponse{}, http.StatusOK)
		return
	}

	imported, err := h.repo.AddBatch(ctx, uid, entries)
	if err != nil {
		log.Errorf("weight import for [%s], %d entries: %s", uid, len(entries), err)
		http.Error(w, "error, failed to import weight data", http.StatusInternalServerError)
		return
	}
	h.metricsManager.CounterWeightImported.Add(float64(imported))

	writeJSON(w, ImportResponse{Imported: imported}, http.StatusCreated)
}
