package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wattshift/wattshift/pkg/log"
	"github.com/wattshift/wattshift/pkg/optimizer"
	"github.com/wattshift/wattshift/pkg/storage"
	"github.com/wattshift/wattshift/pkg/types"
)

type acceptPlanRequest struct {
	Mode            types.Mode     `json:"mode"`
	Schedule        types.Schedule `json:"schedule"`
	ExpectedSavings types.Savings  `json:"expectedSavings"`
	Tariff          string         `json:"tariff"`
}

func (s *Server) handleAcceptPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := s.getOwnerID(r)

	var req acceptPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	res, err := s.optimizer.Accept(ctx, optimizer.AcceptRequest{
		OwnerID:         ownerID,
		Mode:            req.Mode,
		Schedule:        req.Schedule,
		ExpectedSavings: req.ExpectedSavings,
		Tariff:          req.Tariff,
	})
	if err != nil {
		switch {
		case errors.Is(err, optimizer.ErrNoDevices):
			writeJSONError(w, "schedule required", http.StatusBadRequest)
		case errors.Is(err, optimizer.ErrInvalidSchedule):
			writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			log.Ctx(ctx).ErrorContext(ctx, "failed to accept plan", slog.Any("error", err))
			writeJSONError(w, "failed to accept plan", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, res)
}

func (s *Server) handleActivePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := s.getOwnerID(r)

	plan, err := s.optimizer.ActivePlan(ctx, ownerID)
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			writeJSONError(w, "no active plan", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get active plan", slog.Any("error", err))
		writeJSONError(w, "failed to get active plan", http.StatusInternalServerError)
		return
	}

	writeJSON(w, plan)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := s.getOwnerID(r)
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSONError(w, fmt.Sprintf("invalid time range: %v", err), http.StatusBadRequest)
		return
	}

	plans, err := s.optimizer.ListPlans(ctx, ownerID, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list plans", slog.Any("error", err))
		writeJSONError(w, "failed to list plans", http.StatusInternalServerError)
		return
	}
	if plans == nil {
		plans = []types.Plan{}
	}

	writeJSON(w, plans)
}

type planStatusRequest struct {
	PlanID string `json:"planID"`
}

func (s *Server) handleCompletePlan(w http.ResponseWriter, r *http.Request) {
	s.handlePlanTransition(w, r, s.optimizer.CompletePlan)
}

func (s *Server) handleCancelPlan(w http.ResponseWriter, r *http.Request) {
	s.handlePlanTransition(w, r, s.optimizer.CancelPlan)
}

func (s *Server) handlePlanTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ownerID, planID string) (types.Plan, error)) {
	ctx := r.Context()
	ownerID := s.getOwnerID(r)

	var req planStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.PlanID == "" {
		writeJSONError(w, "planID required", http.StatusBadRequest)
		return
	}

	plan, err := fn(ctx, ownerID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPlanNotFound):
			writeJSONError(w, "plan not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrInvalidTransition):
			writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			log.Ctx(ctx).ErrorContext(ctx, "failed to update plan status", slog.String("planID", req.PlanID), slog.Any("error", err))
			writeJSONError(w, "failed to update plan", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, plan)
}
