package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wattshift/wattshift/pkg/log"
	"github.com/wattshift/wattshift/pkg/optimizer"
	"github.com/wattshift/wattshift/pkg/types"
)

type optimizeRequest struct {
	// Devices may be omitted, in which case the owner's registered
	// devices are used.
	Devices []types.Device `json:"devices"`

	Mode    types.Mode `json:"mode"`
	Tariff  string     `json:"tariff"`
	Weekend bool       `json:"weekend"`

	// Overrides supplies per-device windows for the custom mode.
	Overrides map[string]types.HourRange `json:"overrides"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := s.getOwnerID(r)

	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	devs := req.Devices
	if len(devs) == 0 {
		var err error
		devs, err = s.registry.ListDevices(ctx, ownerID)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to list devices", slog.Any("error", err))
			writeJSONError(w, "failed to list devices", http.StatusInternalServerError)
			return
		}
	}

	result, err := s.optimizer.Compute(ctx, optimizer.ComputeRequest{
		Devices:   devs,
		Mode:      req.Mode,
		Tariff:    req.Tariff,
		Weekend:   req.Weekend,
		Overrides: req.Overrides,
	})
	if err != nil {
		if errors.Is(err, optimizer.ErrNoDevices) {
			writeJSONError(w, "no devices to schedule", http.StatusBadRequest)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "optimization failed", slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, result)
}

type explainRequest struct {
	types.ExplainRequest
	Tariff string `json:"tariff"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(req.Schedule) == 0 {
		writeJSONError(w, "schedule required", http.StatusBadRequest)
		return
	}

	writeJSON(w, s.optimizer.Explain(ctx, req.ExplainRequest, req.Tariff))
}
