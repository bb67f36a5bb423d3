package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wattshift/wattshift/pkg/devices"
	"github.com/wattshift/wattshift/pkg/log"
	"github.com/wattshift/wattshift/pkg/types"
)

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := s.getOwnerID(r)

	ds, err := s.registry.ListDevices(ctx, ownerID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list devices", slog.Any("error", err))
		writeJSONError(w, "failed to list devices", http.StatusInternalServerError)
		return
	}
	if ds == nil {
		ds = []types.Device{}
	}

	writeJSON(w, ds)
}

func (s *Server) handleUpsertDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := s.getOwnerID(r)

	var d types.Device
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if d.ID == "" || d.Name == "" {
		writeJSONError(w, "device id and name required", http.StatusBadRequest)
		return
	}
	if d.PowerW <= 0 {
		writeJSONError(w, "device powerW must be positive", http.StatusBadRequest)
		return
	}

	if err := s.registry.UpsertDevice(ctx, ownerID, d); err != nil {
		if errors.Is(err, devices.ErrDeviceNotFound) {
			writeJSONError(w, "device not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to upsert device", slog.String("deviceID", d.ID), slog.Any("error", err))
		writeJSONError(w, "failed to save device", http.StatusInternalServerError)
		return
	}

	writeJSON(w, d)
}

func (s *Server) handleListTariffs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.tariffs.List())
}
