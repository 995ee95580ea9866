// Package api exposes the vetting pipeline over HTTP for the intake UI.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/session"
	"github.com/sells-group/vetting-cli/internal/store"
	"github.com/sells-group/vetting-cli/internal/vetting"
)

const maxBodySize = 1 << 20 // 1MB

// Deps carries the collaborators the handler needs.
type Deps struct {
	Store        store.Store
	Sessions     *session.Manager
	Orchestrator *vetting.Orchestrator
}

// NewHandler builds the chi router for the vetting API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Post("/sessions/{sessionID}/turns", handleTurn(deps))
	r.Post("/prospects", handleCreateProspect(deps))
	r.Post("/prospects/{prospectID}/vet", handleVet(deps))
	r.Get("/prospects/{prospectID}/snapshot", handleSnapshot(deps))
	r.Get("/prospects/{prospectID}/snapshots", handleHistory(deps))

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TurnRequest is the body of POST /sessions/{sessionID}/turns.
type TurnRequest struct {
	Text string `json:"text"`
}

func handleTurn(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		sessionID := chi.URLParam(r, "sessionID")

		var req TurnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Text == "" {
			httpError(w, http.StatusBadRequest, "text is required")
			return
		}

		result, err := deps.Sessions.StartOrContinueExtraction(r.Context(), sessionID, req.Text)
		if err != nil {
			zap.L().Error("api: turn processing failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			httpError(w, http.StatusInternalServerError, "turn processing failed")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// CreateProspectRequest is the body of POST /prospects.
type CreateProspectRequest struct {
	SessionID string               `json:"session_id"`
	Company   model.CompanyProfile `json:"company"`
}

func handleCreateProspect(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req CreateProspectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.SessionID == "" {
			httpError(w, http.StatusBadRequest, "session_id is required")
			return
		}

		prospect := model.Prospect{
			ID:        uuid.NewString(),
			SessionID: req.SessionID,
			Company:   req.Company,
			CreatedAt: time.Now().UTC(),
		}
		if err := deps.Store.SaveProspect(r.Context(), prospect); err != nil {
			zap.L().Error("api: save prospect failed", zap.Error(err))
			httpError(w, http.StatusInternalServerError, "save prospect failed")
			return
		}

		writeJSON(w, http.StatusCreated, prospect)
	}
}

func handleVet(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prospectID := chi.URLParam(r, "prospectID")
		force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

		snap, err := deps.Orchestrator.Run(r.Context(), prospectID, vetting.Options{ForceRefresh: force})
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, snap)
		case errors.Is(err, vetting.ErrNoConversation):
			httpError(w, http.StatusUnprocessableEntity, "prospect has no conversation; vetting impossible")
		case errors.Is(err, store.ErrNotFound):
			httpError(w, http.StatusNotFound, "prospect not found")
		default:
			zap.L().Error("api: vetting run failed",
				zap.String("prospect_id", prospectID),
				zap.Error(eris.Wrap(err, "api: vet")),
			)
			httpError(w, http.StatusInternalServerError, "vetting run failed")
		}
	}
}

func handleSnapshot(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prospectID := chi.URLParam(r, "prospectID")

		snap, err := deps.Orchestrator.Snapshot(r.Context(), prospectID)
		if err != nil {
			zap.L().Error("api: snapshot lookup failed", zap.Error(err))
			httpError(w, http.StatusInternalServerError, "snapshot lookup failed")
			return
		}
		if snap == nil {
			httpError(w, http.StatusNotFound, "prospect has no snapshot")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prospectID := chi.URLParam(r, "prospectID")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		snaps, err := deps.Orchestrator.History(r.Context(), prospectID, limit)
		if err != nil {
			zap.L().Error("api: history lookup failed", zap.Error(err))
			httpError(w, http.StatusInternalServerError, "history lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, snaps)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
