package narrative

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wattshift/wattshift/pkg/tariff"
	"github.com/wattshift/wattshift/pkg/types"
)

func explainRequest() types.ExplainRequest {
	return types.ExplainRequest{
		Mode: types.ModeOffPeak,
		Schedule: types.Schedule{
			{DeviceID: "ev", DeviceName: "EV Charger", PowerW: 7000, StartHour: 0, EndHour: 4},
			{DeviceID: "therm", DeviceName: "Thermostat", PowerW: 1200, StartHour: 6, EndHour: 22},
		},
		Savings: types.Savings{DailySavings: 2.74, YearlySavings: 1000.1, PercentSaved: 54.4, CO2ReducedKgPerYear: 350},
	}
}

func TestClientExplain(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer key123", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"summary":"Shift your EV charging overnight.","steps":["Charge 0-4"],"recommendations":[],"improvements":[]}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "key123", 5*time.Second)
		exp, err := c.Explain(context.Background(), explainRequest())
		require.NoError(t, err)
		assert.Equal(t, "Shift your EV charging overnight.", exp.Summary)
		assert.Equal(t, []string{"Charge 0-4"}, exp.Steps)
	})

	t.Run("Non 200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", 5*time.Second)
		_, err := c.Explain(context.Background(), explainRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("Missing Summary", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"steps":["do things"]}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", 5*time.Second)
		_, err := c.Explain(context.Background(), explainRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing summary")
	})

	t.Run("Respects Context Deadline", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", 5*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := c.Explain(ctx, explainRequest())
		require.Error(t, err)
	})
}

func TestFallback(t *testing.T) {
	tb := tariff.Default()

	t.Run("Deterministic", func(t *testing.T) {
		first := Fallback(explainRequest(), tb)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, Fallback(explainRequest(), tb))
		}
	})

	t.Run("References Counts And Savings", func(t *testing.T) {
		exp := Fallback(explainRequest(), tb)
		assert.Contains(t, exp.Summary, "2 devices")
		assert.Contains(t, exp.Summary, "$2.74")
		// thermostat runs 6-22 which covers peak hours
		assert.Contains(t, exp.Summary, "1 of them outside peak")
		require.Len(t, exp.Steps, 2)
		assert.Contains(t, exp.Steps[0], "EV Charger")
		assert.NotEmpty(t, exp.Recommendations)
		assert.NotEmpty(t, exp.Improvements)
	})

	t.Run("No Savings", func(t *testing.T) {
		req := explainRequest()
		req.Savings = types.Savings{}
		exp := Fallback(req, tb)
		assert.Contains(t, exp.Recommendations[len(exp.Recommendations)-1], "does not reduce cost")
	})
}
