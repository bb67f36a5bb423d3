package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wattshift/wattshift/pkg/devices/devicesmock"
	"github.com/wattshift/wattshift/pkg/optimizer"
	"github.com/wattshift/wattshift/pkg/storage"
	"github.com/wattshift/wattshift/pkg/storage/storagemock"
	"github.com/wattshift/wattshift/pkg/tariff"
	"github.com/wattshift/wattshift/pkg/types"
)

func newTestServer(t *testing.T, db *storagemock.MockDatabase, reg *devicesmock.MockRegistry, cfg optimizer.Config) *Server {
	t.Helper()
	if cfg.NarrativeTimeout == 0 {
		cfg.NarrativeTimeout = time.Second
	}
	if cfg.DeviceUpdateTimeout == 0 {
		cfg.DeviceUpdateTimeout = time.Second
	}
	tariffs := tariff.NewMap()
	tariffs.SetTable(tariff.Default())
	return &Server{
		tariffs:    tariffs,
		optimizer:  optimizer.New(tariffs, db, reg, nil, nil, nil, cfg),
		registry:   reg,
		bypassAuth: true,
		serverName: "wattshift-test",
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func testDevices() []types.Device {
	return []types.Device{
		{ID: "ev1", Name: "EV Charger", Type: types.DeviceTypeEVCharger, PowerW: 7000, Flexible: true, RequiredHours: 4},
		{ID: "dish1", Name: "Dishwasher", Type: types.DeviceTypeDishwasher, PowerW: 1800, Flexible: true, RequiredHours: 2},
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
	w := doJSON(t, s.setupHandler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "wattshift-test", w.Header().Get("Server"))
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("BypassDefaultsOwner", func(t *testing.T) {
		reg := &devicesmock.MockRegistry{}
		reg.On("ListDevices", mock.Anything, types.OwnerIDNone).Return([]types.Device{}, nil)

		s := newTestServer(t, &storagemock.MockDatabase{}, reg, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodGet, "/api/devices", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		reg.AssertExpectations(t)
	})

	t.Run("BypassHeaderOwner", func(t *testing.T) {
		reg := &devicesmock.MockRegistry{}
		reg.On("ListDevices", mock.Anything, "alice").Return([]types.Device{}, nil)

		s := newTestServer(t, &storagemock.MockDatabase{}, reg, optimizer.Config{})
		req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
		req.Header.Set("X-Owner-ID", "alice")
		w := httptest.NewRecorder()
		s.setupHandler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		reg.AssertExpectations(t)
	})

	t.Run("MissingBearerRejected", func(t *testing.T) {
		s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
		s.bypassAuth = false

		w := doJSON(t, s.setupHandler(), http.MethodGet, "/api/devices", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MalformedAuthHeader", func(t *testing.T) {
		s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
		s.bypassAuth = false

		req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		s.setupHandler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleOptimize(t *testing.T) {
	t.Run("WithDevicesInBody", func(t *testing.T) {
		s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/optimize", map[string]any{
			"devices": testDevices(),
			"mode":    "off_peak",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var res types.OptimizationResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, types.ModeOffPeak, res.Mode)
		require.Len(t, res.OptimizedSchedule, 2)
		assert.Equal(t, 0, res.OptimizedSchedule[0].StartHour)
		assert.Equal(t, 4, res.OptimizedSchedule[0].EndHour)
		assert.Greater(t, res.Savings.DailySavings, 0.0)
		assert.True(t, res.Validation.IsValid)
	})

	t.Run("DevicesFromRegistry", func(t *testing.T) {
		reg := &devicesmock.MockRegistry{}
		reg.On("ListDevices", mock.Anything, types.OwnerIDNone).Return(testDevices(), nil)

		s := newTestServer(t, &storagemock.MockDatabase{}, reg, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/optimize", map[string]any{"mode": "off_peak"})
		assert.Equal(t, http.StatusOK, w.Code)
		reg.AssertExpectations(t)
	})

	t.Run("NoDevices", func(t *testing.T) {
		reg := &devicesmock.MockRegistry{}
		reg.On("ListDevices", mock.Anything, types.OwnerIDNone).Return([]types.Device{}, nil)

		s := newTestServer(t, &storagemock.MockDatabase{}, reg, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/optimize", map[string]any{"mode": "off_peak"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "no devices")
	})

	t.Run("UnknownTariff", func(t *testing.T) {
		s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/optimize", map[string]any{
			"devices": testDevices(),
			"mode":    "off_peak",
			"tariff":  "nope",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown tariff")
	})

	t.Run("InvalidBody", func(t *testing.T) {
		s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
		req := httptest.NewRequest(http.MethodPost, "/api/optimize", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		s.setupHandler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleExplain(t *testing.T) {
	s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})

	t.Run("Fallback", func(t *testing.T) {
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/explain", map[string]any{
			"mode": "off_peak",
			"schedule": []map[string]any{
				{"deviceID": "ev1", "deviceName": "EV Charger", "powerW": 7000.0, "startHour": 0, "endHour": 4},
			},
			"savings": map[string]any{"dailySavings": 2.74},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var exp types.Explanation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exp))
		assert.Contains(t, exp.Summary, "off-peak")
		assert.NotEmpty(t, exp.Steps)
	})

	t.Run("EmptySchedule", func(t *testing.T) {
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/explain", map[string]any{"mode": "off_peak"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func acceptBody() map[string]any {
	return map[string]any{
		"mode": "off_peak",
		"schedule": []map[string]any{
			{"deviceID": "ev1", "deviceName": "EV Charger", "powerW": 7000.0, "startHour": 0, "endHour": 4},
		},
		"expectedSavings": map[string]any{"dailySavings": 2.74},
	}
}

func TestHandleAcceptPlan(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("CreatePlan", mock.Anything, types.OwnerIDNone, mock.Anything).Return(nil)
		reg := &devicesmock.MockRegistry{}
		reg.On("UpdateDeviceSchedule", mock.Anything, types.OwnerIDNone, "ev1", 0, 4, true).Return(nil)

		s := newTestServer(t, db, reg, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/accept", acceptBody())
		require.Equal(t, http.StatusOK, w.Code)

		var res optimizer.AcceptResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.False(t, res.Partial)
		assert.Equal(t, types.PlanStatusActive, res.Plan.Status)
	})

	t.Run("EmptySchedule", func(t *testing.T) {
		s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/accept", map[string]any{"mode": "off_peak"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("InvalidScheduleRejected", func(t *testing.T) {
		body := map[string]any{
			"mode": "off_peak",
			"schedule": []map[string]any{
				{"deviceID": "a", "deviceName": "A", "powerW": 6000.0, "startHour": 0, "endHour": 4},
				{"deviceID": "b", "deviceName": "B", "powerW": 6000.0, "startHour": 0, "endHour": 4},
			},
		}
		s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{AcceptRequiresValid: true})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/accept", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("PlanWriteFailure", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("CreatePlan", mock.Anything, types.OwnerIDNone, mock.Anything).Return(errors.New("firestore down"))

		s := newTestServer(t, db, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/accept", acceptBody())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("PartialStillOK", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("CreatePlan", mock.Anything, types.OwnerIDNone, mock.Anything).Return(nil)
		reg := &devicesmock.MockRegistry{}
		reg.On("UpdateDeviceSchedule", mock.Anything, types.OwnerIDNone, "ev1", 0, 4, true).Return(errors.New("device offline"))

		s := newTestServer(t, db, reg, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/accept", acceptBody())
		require.Equal(t, http.StatusOK, w.Code)

		var res optimizer.AcceptResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.Partial)
		assert.Contains(t, res.DeviceResults[0].Err, "device offline")
	})
}

func TestHandlePlans(t *testing.T) {
	t.Run("Active", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("GetActivePlan", mock.Anything, types.OwnerIDNone).Return(types.Plan{ID: "p1", Status: types.PlanStatusActive}, nil)

		s := newTestServer(t, db, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodGet, "/api/plans/active", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var p types.Plan
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Equal(t, "p1", p.ID)
	})

	t.Run("ActiveNotFound", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("GetActivePlan", mock.Anything, types.OwnerIDNone).Return(types.Plan{}, storage.ErrPlanNotFound)

		s := newTestServer(t, db, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodGet, "/api/plans/active", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("List", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("ListPlans", mock.Anything, types.OwnerIDNone, mock.Anything, mock.Anything).Return([]types.Plan{{ID: "p1"}}, nil)

		s := newTestServer(t, db, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodGet, "/api/plans", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var plans []types.Plan
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
		assert.Len(t, plans, 1)
	})

	t.Run("ListEmptyIsArray", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("ListPlans", mock.Anything, types.OwnerIDNone, mock.Anything, mock.Anything).Return([]types.Plan(nil), nil)

		s := newTestServer(t, db, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodGet, "/api/plans", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]\n", w.Body.String())
	})

	t.Run("ListBadRange", func(t *testing.T) {
		s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodGet, "/api/plans?start=2026-01-02T00:00:00Z&end=2026-01-01T00:00:00Z", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Complete", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("UpdatePlanStatus", mock.Anything, types.OwnerIDNone, "p1", types.PlanStatusCompleted).Return(types.Plan{ID: "p1", Status: types.PlanStatusCompleted}, nil)

		s := newTestServer(t, db, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/complete", map[string]any{"planID": "p1"})
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("CancelNotFound", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("UpdatePlanStatus", mock.Anything, types.OwnerIDNone, "missing", types.PlanStatusCancelled).Return(types.Plan{}, storage.ErrPlanNotFound)

		s := newTestServer(t, db, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/cancel", map[string]any{"planID": "missing"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("CompleteInvalidTransition", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("UpdatePlanStatus", mock.Anything, types.OwnerIDNone, "p1", types.PlanStatusCompleted).Return(types.Plan{}, storage.ErrInvalidTransition)

		s := newTestServer(t, db, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/complete", map[string]any{"planID": "p1"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("MissingPlanID", func(t *testing.T) {
		s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/plans/cancel", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleDevices(t *testing.T) {
	t.Run("ListEmptyIsArray", func(t *testing.T) {
		reg := &devicesmock.MockRegistry{}
		reg.On("ListDevices", mock.Anything, types.OwnerIDNone).Return([]types.Device(nil), nil)

		s := newTestServer(t, &storagemock.MockDatabase{}, reg, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodGet, "/api/devices", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]\n", w.Body.String())
	})

	t.Run("Upsert", func(t *testing.T) {
		d := types.Device{ID: "ev1", Name: "EV Charger", Type: types.DeviceTypeEVCharger, PowerW: 7000}
		reg := &devicesmock.MockRegistry{}
		reg.On("UpsertDevice", mock.Anything, types.OwnerIDNone, d).Return(nil)

		s := newTestServer(t, &storagemock.MockDatabase{}, reg, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/devices", d)
		assert.Equal(t, http.StatusOK, w.Code)
		reg.AssertExpectations(t)
	})

	t.Run("UpsertMissingFields", func(t *testing.T) {
		s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
		w := doJSON(t, s.setupHandler(), http.MethodPost, "/api/devices", map[string]any{"name": "no id"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, s.setupHandler(), http.MethodPost, "/api/devices", map[string]any{"id": "x", "name": "X", "powerW": 0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleListTariffs(t *testing.T) {
	s := newTestServer(t, &storagemock.MockDatabase{}, &devicesmock.MockRegistry{}, optimizer.Config{})
	w := doJSON(t, s.setupHandler(), http.MethodGet, "/api/list/tariffs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var infos []types.TariffInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, tariff.DefaultTariffID, infos[0].ID)
}
