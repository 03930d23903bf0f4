package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/config"
	"github.com/Capstone-E1/aquahealth_backend/internal/ml"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/predictor"
	"github.com/Capstone-E1/aquahealth_backend/internal/repository"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	handler http.Handler
	sensors *repository.SensorRepository
	regions *repository.Regions
}

// newTestEnv wires the API over an in-memory store. predictorURL may point at a
// closed server to simulate an unreachable predictor.
func newTestEnv(t *testing.T, predictorURL string) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	ds := store.NewStore()

	sensors := repository.NewSensors(ds, logger)
	predictions := repository.NewPredictions(ds, logger)
	regions := repository.NewRegions(ds, logger)
	client := predictor.NewClient(config.PredictorConfig{
		BaseURL:       predictorURL,
		Timeout:       2 * time.Second,
		HealthTimeout: time.Second,
	}, logger)

	srv := NewServer(Dependencies{
		Regions:     regions,
		Users:       repository.NewUsers(ds, logger),
		Sensors:     sensors,
		Predictions: predictions,
		Disease:     ml.NewDiseaseService(client, sensors, predictions, nil, logger),
		Logger:      logger,
	})
	return &testEnv{handler: srv.Routes(), sensors: sensors, regions: regions}
}

func closedServerURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	Count          *int            `json:"count"`
	Interval       string          `json:"interval"`
	PredictionType string          `json:"predictionType"`
	HealthMetrics  json.RawMessage `json:"healthMetrics"`
	Data           json.RawMessage `json:"data"`
	Error          string          `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func TestServerHealth(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	rr := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var health ServerHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.True(t, health.Success)
	assert.Equal(t, "Server is running", health.Message)
}

func TestRouteNotFound(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	rr := env.do(t, http.MethodGet, "/api/unknown?x=1", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	body := decode(t, rr)
	assert.False(t, body.Success)
	assert.Equal(t, "Route /api/unknown?x=1 not found", body.Message)
}

func TestAddAndFetchLatestReading(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	rr := env.do(t, http.MethodPost, "/api/sensors", map[string]any{
		"temperature": 26, "pH": 7.1, "EC": 1.2, "device_id": "d1",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created models.SensorReading
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Timestamp.IsZero())

	rr = env.do(t, http.MethodGet, "/api/sensors/latest", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var latest models.SensorReading
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &latest))
	assert.Equal(t, created.ID, latest.ID)
	assert.Equal(t, "d1", latest.DeviceID)
	assert.InDelta(t, 26.0, latest.Temperature, 1e-9)
	assert.InDelta(t, 7.1, latest.PH, 1e-9)
	assert.InDelta(t, 1.2, latest.EC, 1e-9)
}

func TestAddReadingRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	rr := env.do(t, http.MethodPost, "/api/sensors", map[string]any{"temperature": 26, "device_id": "d1"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing required fields: temperature, pH, EC, device_id", decode(t, rr).Message)

	rr = env.do(t, http.MethodPost, "/api/sensors", "{not json")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request body", decode(t, rr).Message)
}

func TestEmptySensorQueriesReturnNotFound(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	for _, path := range []string{"/api/sensors", "/api/sensors/latest", "/api/sensors/stats", "/api/ml/data"} {
		rr := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		assert.False(t, decode(t, rr).Success, path)
	}

	rr := env.do(t, http.MethodGet, "/api/sensors/range", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Start date and end date are required", decode(t, rr).Message)
}

func TestPredictWithUnreachablePredictorFallsBack(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	rr := env.do(t, http.MethodPost, "/api/disease/predict", map[string]any{
		"sensorData":  map[string]any{"temperature": 25, "pH": 7, "EC": 1},
		"symptoms":    map[string]any{"symptoms": []string{"fever"}},
		"diseaseType": "all",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decode(t, rr)
	assert.Equal(t, "Disease prediction completed successfully", body.Message)

	var resp ml.PredictResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.NotEmpty(t, resp.PredictionID)
	require.Len(t, resp.Prediction.Predictions, 3)
	for _, p := range resp.Prediction.Predictions {
		assert.InDelta(t, 0.1, p.Probability, 1e-9)
		assert.Equal(t, models.RiskLow, p.RiskLevel)
		assert.Equal(t, "Prediction service unavailable", p.Error)
	}
	assert.Empty(t, resp.Prediction.Recommendations)

	rr = env.do(t, http.MethodGet, "/api/disease/prediction/"+resp.PredictionID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Prediction retrieved successfully", decode(t, rr).Message)

	rr = env.do(t, http.MethodGet, "/api/disease/history", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body = decode(t, rr)
	require.NotNil(t, body.Count)
	assert.Equal(t, 1, *body.Count)
}

func TestPredictUsesPredictorScores(t *testing.T) {
	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/predict_cholera":
			w.Write([]byte(`{"probability":0.85,"confidence":0.9}`))
		case "/health":
			w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer fake.Close()
	env := newTestEnv(t, fake.URL)

	rr := env.do(t, http.MethodPost, "/api/disease/predict", map[string]any{
		"sensorData":  map[string]any{},
		"symptoms":    map[string]any{},
		"diseaseType": "cholera",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp ml.PredictResponse
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &resp))
	require.Len(t, resp.Prediction.Predictions, 1)
	assert.Equal(t, models.RiskCritical, resp.Prediction.OverallRisk)
	require.Len(t, resp.Prediction.Recommendations, 1)
	assert.Equal(t, models.DiseaseCholera, resp.Prediction.Recommendations[0].Disease)

	rr = env.do(t, http.MethodGet, "/api/disease/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var health ml.PredictorHealth
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &health))
	assert.Equal(t, "healthy", health.Status)
}

func TestPredictValidation(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	rr := env.do(t, http.MethodPost, "/api/disease/predict", map[string]any{"diseaseType": "all"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Sensor data and symptoms are required", decode(t, rr).Message)

	rr = env.do(t, http.MethodPost, "/api/disease/predict", map[string]any{
		"sensorData": map[string]any{}, "symptoms": map[string]any{}, "diseaseType": "malaria",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Unknown disease type: malaria", decode(t, rr).Message)
}

func TestPredictionLookupsWhenEmpty(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	rr := env.do(t, http.MethodGet, "/api/disease/prediction/missing", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Prediction not found", decode(t, rr).Message)

	rr = env.do(t, http.MethodGet, "/api/disease/history", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/disease/statistics", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecommendations(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	rr := env.do(t, http.MethodGet, "/api/disease/recommendations/cholera", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "Recommendations for cholera", body.Message)

	var guidance ml.Guidance
	require.NoError(t, json.Unmarshal(body.Data, &guidance))
	assert.NotEmpty(t, guidance.ImmediateActions)

	rr = env.do(t, http.MethodGet, "/api/disease/recommendations/flu", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var general ml.GeneralGuidance
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &general))
	assert.NotEmpty(t, general.GeneralAdvice)
}

func TestDistrictCRUD(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	rr := env.do(t, http.MethodPost, "/api/districts", map[string]any{"name": ""})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode(t, rr).Message, "District name is required")

	rr = env.do(t, http.MethodPost, "/api/districts", map[string]any{"name": "Mysuru", "district_id": 21})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decode(t, rr)
	assert.Equal(t, "District created successfully", body.Message)

	var district models.District
	require.NoError(t, json.Unmarshal(body.Data, &district))
	require.NotEmpty(t, district.ID)
	assert.True(t, district.IsActive)

	rr = env.do(t, http.MethodGet, "/api/districts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, decode(t, rr).Count)

	rr = env.do(t, http.MethodPut, "/api/districts/"+district.ID, map[string]any{"k_name": "ಮೈಸೂರು"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "District updated successfully", decode(t, rr).Message)

	rr = env.do(t, http.MethodPatch, "/api/districts/"+district.ID+"/deactivate", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "District deactivated successfully", decode(t, rr).Message)

	rr = env.do(t, http.MethodGet, "/api/districts?is_active=false", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body = decode(t, rr)
	require.NotNil(t, body.Count)
	assert.Equal(t, 1, *body.Count)

	rr = env.do(t, http.MethodDelete, "/api/districts/"+district.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/districts/"+district.ID, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "District not found", decode(t, rr).Message)
}

func TestTalukRequiresExistingDistrict(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	rr := env.do(t, http.MethodPost, "/api/taluks", map[string]any{"name": "Hunsur", "district": "nope"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
}

func TestTrendDataBucketsByHour(t *testing.T) {
	env := newTestEnv(t, closedServerURL())
	ctx := context.Background()

	base := time.Now().Add(-2 * time.Hour).Truncate(time.Hour).Add(10 * time.Minute)
	for i, temp := range []float64{20, 22, 30} {
		ts := base
		if i == 2 {
			ts = base.Add(time.Hour)
		}
		_, err := env.sensors.Create(ctx, &models.SensorReading{
			DeviceID: "d1", Temperature: temp, PH: 7, EC: 1, Timestamp: ts.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	rr := env.do(t, http.MethodGet, "/api/ml/trend-data", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)
	assert.Equal(t, "hour", body.Interval)

	var buckets []ml.Bucket
	require.NoError(t, json.Unmarshal(body.Data, &buckets))
	require.Len(t, buckets, 2)
	assert.InDelta(t, 21.0, buckets[0].Temperature, 1e-9)
	assert.InDelta(t, 30.0, buckets[1].Temperature, 1e-9)

	rr = env.do(t, http.MethodGet, "/api/ml/trend-data?interval=raw", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body = decode(t, rr)
	require.NotNil(t, body.Count)
	assert.Equal(t, 3, *body.Count)
}

func TestHealthAssessmentCarriesMetrics(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	_, err := env.sensors.Create(context.Background(), &models.SensorReading{DeviceID: "d1", Temperature: 25, PH: 7, EC: 1})
	require.NoError(t, err)

	rr := env.do(t, http.MethodGet, "/api/ml/health-assessment", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)

	var metrics ml.HealthMetrics
	require.NoError(t, json.Unmarshal(body.HealthMetrics, &metrics))
	assert.Equal(t, 1, metrics.TotalReadings)

	var points []scoredPoint
	require.NoError(t, json.Unmarshal(body.Data, &points))
	require.Len(t, points, 1)
	assert.Equal(t, ml.HealthScore(25, 7, 1), points[0].HealthScore)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t, closedServerURL())

	_, err := env.sensors.Create(context.Background(), &models.SensorReading{DeviceID: "d1", Temperature: 25, PH: 7, EC: 1})
	require.NoError(t, err)

	rr := env.do(t, http.MethodGet, "/api/sensors/export.csv?deviceId=d1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "_d1.csv")

	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Device ID", rows[0][1])
	assert.Equal(t, "d1", rows[1][1])
}

func TestRecovererAnswersWithEnvelope(t *testing.T) {
	srv := NewServer(Dependencies{Logger: zap.NewNop()})
	h := srv.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", decode(t, rr).Message)
}

func TestHierarchyRoutes(t *testing.T) {
	env := newTestEnv(t, closedServerURL())
	ctx := context.Background()

	d := models.NewDistrict()
	d.Name = "Mysuru"
	d, err := env.regions.Districts.Create(ctx, d)
	require.NoError(t, err)

	tk := models.NewTaluk()
	tk.Name, tk.District = "Hunsur", d.ID
	tk, err = env.regions.Taluks.Create(ctx, tk)
	require.NoError(t, err)

	h := models.NewHobli()
	h.Name, h.District, h.Taluk = "Bilikere", d.ID, tk.ID
	h, err = env.regions.Hoblis.Create(ctx, h)
	require.NoError(t, err)

	v := models.NewVillage()
	v.Name, v.VillageCode, v.District, v.Taluk, v.Hobli = "Gavadagere", "612345", d.ID, tk.ID, h.ID
	v, err = env.regions.Villages.Create(ctx, v)
	require.NoError(t, err)

	countIs := func(n int) func(*testing.T, envelope) {
		return func(t *testing.T, body envelope) {
			require.NotNil(t, body.Count)
			assert.Equal(t, n, *body.Count)
		}
	}
	dataMap := func(t *testing.T, body envelope) map[string]any {
		var m map[string]any
		require.NoError(t, json.Unmarshal(body.Data, &m))
		return m
	}

	tests := []struct {
		name   string
		method string
		path   string
		check  func(*testing.T, envelope)
	}{
		{"taluks by district", http.MethodGet, "/api/taluks/district/" + d.ID, countIs(1)},
		{"hoblis by district", http.MethodGet, "/api/hoblis/district/" + d.ID, countIs(1)},
		{"hoblis by taluk", http.MethodGet, "/api/hoblis/taluk/" + tk.ID, countIs(1)},
		{"villages by district", http.MethodGet, "/api/villages/district/" + d.ID, countIs(1)},
		{"villages by taluk", http.MethodGet, "/api/villages/taluk/" + tk.ID, countIs(1)},
		{"villages by hobli", http.MethodGet, "/api/villages/hobli/" + h.ID, countIs(1)},
		{"villages by unknown hobli", http.MethodGet, "/api/villages/hobli/nope", countIs(0)},
		{"village by code", http.MethodGet, "/api/villages/code/612345", func(t *testing.T, body envelope) {
			assert.Equal(t, v.ID, dataMap(t, body)["id"])
		}},
		{"village keeps raw references", http.MethodGet, "/api/villages/" + v.ID, func(t *testing.T, body envelope) {
			m := dataMap(t, body)
			assert.Equal(t, d.ID, m["district"])
			assert.Equal(t, h.ID, m["hobli"])
		}},
		{"village populated", http.MethodGet, "/api/villages/" + v.ID + "?populate=true", func(t *testing.T, body envelope) {
			m := dataMap(t, body)
			for field, name := range map[string]string{"district": "Mysuru", "taluk": "Hunsur", "hobli": "Bilikere"} {
				parent, ok := m[field].(map[string]any)
				require.True(t, ok, field)
				assert.Equal(t, name, parent["name"], field)
			}
		}},
		{"taluk populated", http.MethodGet, "/api/taluks/" + tk.ID + "?populate=true", func(t *testing.T, body envelope) {
			parent, ok := dataMap(t, body)["district"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, d.ID, parent["id"])
		}},
		{"district search prefix", http.MethodGet, "/api/districts/search/Mys", countIs(1)},
		{"district search miss", http.MethodGet, "/api/districts/search/Zz", countIs(0)},
		{"taluk stats", http.MethodGet, "/api/taluks/stats", func(t *testing.T, body envelope) {
			m := dataMap(t, body)
			assert.EqualValues(t, 1, m["totalTaluks"])
			assert.Equal(t, map[string]any{d.ID: float64(1)}, m["districtStats"])
		}},
		{"village archive", http.MethodPatch, "/api/villages/" + v.ID + "/archive", func(t *testing.T, body envelope) {
			assert.Equal(t, "Village archived successfully", body.Message)
		}},
		{"village stats after archive", http.MethodGet, "/api/villages/stats", func(t *testing.T, body envelope) {
			m := dataMap(t, body)
			assert.EqualValues(t, 1, m["totalVillages"])
			assert.EqualValues(t, 1, m["archivedVillages"])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			body := decode(t, rr)
			assert.True(t, body.Success)
			tt.check(t, body)
		})
	}
}
