package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/empowerfit/backend/internal/auth"
	"github.com/empowerfit/backend/internal/gymstats/exercises"
	"github.com/empowerfit/backend/internal/gymstats/weight"
	"github.com/empowerfit/backend/internal/gymstats/workouts"
)

func (s *IntegrationTestSuite) token(userID string) string {
	token, err := auth.SignToken([]byte(testJWTSecret), testIssuer, userID, time.Hour, time.Now())
	s.Require().NoError(err)
	return token
}

func (s *IntegrationTestSuite) do(method, path, token, contentType string, body []byte) (int, []byte) {
	req, err := http.NewRequest(method, s.serverEndpoint+path, bytes.NewReader(body))
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, respBody
}

func (s *IntegrationTestSuite) postJSON(path, token string, v any) (int, []byte) {
	body, err := json.Marshal(v)
	s.Require().NoError(err)
	return s.do(http.MethodPost, path, token, "application/json", body)
}

func (s *IntegrationTestSuite) TestHealth() {
	status, body := s.do(http.MethodGet, "/health", "", "", nil)
	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"status":"ok","checks":{"postgres":"ok","redis":"ok"}}`, string(body))
}

func (s *IntegrationTestSuite) TestWeight_AddChartExportImport() {
	token := s.token("weight-user")
	today := time.Now().UTC()

	for i, w := range []float64{81.2, 80.9, 80.4} {
		status, body := s.postJSON("/weight/entries", token, weight.AddEntryRequest{
			Date:      today.AddDate(0, 0, -i).Format("2006-01-02"),
			Weight:    w,
			TimeOfDay: weight.TimeOfDayMorning,
		})
		s.Require().Equal(http.StatusCreated, status, string(body))
	}

	status, _ := s.postJSON("/weight/entries", token, weight.AddEntryRequest{Weight: -1, TimeOfDay: weight.TimeOfDayMorning})
	s.Equal(http.StatusBadRequest, status)

	status, body := s.do(http.MethodGet, "/weight/entries?limit=2", token, "", nil)
	s.Require().Equal(http.StatusOK, status)
	var recent []weight.Entry
	s.Require().NoError(json.Unmarshal(body, &recent))
	s.Require().Len(recent, 2)
	s.Equal(81.2, recent[0].Weight)

	status, body = s.do(http.MethodGet, "/weight/chart?period=7&unit=kg", token, "", nil)
	s.Require().Equal(http.StatusOK, status)
	var chart weight.ChartResponse
	s.Require().NoError(json.Unmarshal(body, &chart))
	s.Len(chart.Points, 3)
	s.Require().NotNil(chart.Goal)
	s.Equal(76.0, *chart.Goal)
	s.InDelta(78.4, chart.YAxisMin, 1e-9)
	s.InDelta(83.2, chart.YAxisMax, 1e-9)

	status, _ = s.do(http.MethodGet, "/weight/chart?period=14", token, "", nil)
	s.Equal(http.StatusBadRequest, status)

	status, body = s.do(http.MethodGet, "/weight/export/csv", token, "", nil)
	s.Require().Equal(http.StatusOK, status)
	lines := strings.Split(string(body), "\n")
	s.Require().Len(lines, 4)
	s.Equal("Date,Weight,Body Fat %,Time of Day,Notes", lines[0])

	// the exported csv imports back for another user
	other := s.token("import-user")
	status, body = s.do(http.MethodPost, "/weight/import", other, "text/csv", body)
	s.Require().Equal(http.StatusCreated, status, string(body))
	s.JSONEq(`{"imported":3}`, string(body))

	status, body = s.do(http.MethodGet, "/weight/entries", other, "", nil)
	s.Require().Equal(http.StatusOK, status)
	var imported []weight.Entry
	s.Require().NoError(json.Unmarshal(body, &imported))
	s.Len(imported, 3)

	status, body = s.do(http.MethodGet, "/weight/export/xlsx", token, "", nil)
	s.Equal(http.StatusOK, status)
	s.True(bytes.HasPrefix(body, []byte("PK")))

	status, body = s.do(http.MethodGet, "/weight/export/pdf", token, "", nil)
	s.Equal(http.StatusOK, status)
	s.True(bytes.HasPrefix(body, []byte("%PDF")))
}

func (s *IntegrationTestSuite) TestExercises_AddAndList() {
	token := s.token("exercises-user")

	status, body := s.postJSON("/exercises", token, exercises.Exercise{
		Name:       "Bench Press",
		Target:     "Chest",
		Equipment:  "Barbell",
		Difficulty: "Intermediate",
	})
	s.Require().Equal(http.StatusCreated, status, string(body))

	status, _ = s.postJSON("/exercises", token, exercises.Exercise{Name: "Bench Press", Target: "Chest"})
	s.Equal(http.StatusConflict, status)

	status, body = s.do(http.MethodGet, "/exercises?target=Chest&search=bench", token, "", nil)
	s.Require().Equal(http.StatusOK, status)
	var list []exercises.Exercise
	s.Require().NoError(json.Unmarshal(body, &list))
	s.Require().Len(list, 1)
	s.Equal("Bench Press", list[0].Name)
}

func (s *IntegrationTestSuite) TestWorkouts_QuickLogAndStats() {
	token := s.token("workouts-user")

	status, body := s.postJSON("/workouts/quick", token, workouts.QuickExercise{
		ExerciseID:   1,
		ExerciseName: "Squat",
		Date:         time.Now().UTC(),
		Sets: []workouts.Set{
			{Weight: 100, Reps: 5},
			{Weight: 100, Reps: 5},
		},
	})
	s.Require().Equal(http.StatusCreated, status, string(body))

	var added workouts.WorkoutLog
	s.Require().NoError(json.Unmarshal(body, &added))
	s.Equal("Quick Squat", added.Name)
	s.Require().Len(added.Exercises, 1)
	s.Require().Len(added.Exercises[0].Sets, 2)
	s.Equal(2, added.Exercises[0].Sets[1].SetNumber)

	status, body = s.do(http.MethodGet, "/workouts", token, "", nil)
	s.Require().Equal(http.StatusOK, status)
	var logs []workouts.WorkoutLog
	s.Require().NoError(json.Unmarshal(body, &logs))
	s.Len(logs, 1)

	status, body = s.do(http.MethodGet, "/workouts/stats", token, "", nil)
	s.Require().Equal(http.StatusOK, status)
	var stats workouts.Stats
	s.Require().NoError(json.Unmarshal(body, &stats))
	s.Equal(1000.0, stats.TotalWeightLifted)
	s.Equal(1, stats.ActiveDaysLast7)
}

func (s *IntegrationTestSuite) TestAuth_Logout() {
	token := s.token("logout-user")

	status, _ := s.do(http.MethodGet, "/weight/entries", token, "", nil)
	s.Require().Equal(http.StatusOK, status)

	status, _ = s.do(http.MethodPost, "/auth/logout", token, "", nil)
	s.Require().Equal(http.StatusOK, status)

	status, _ = s.do(http.MethodGet, "/weight/entries", token, "", nil)
	s.Equal(http.StatusUnauthorized, status)
}
