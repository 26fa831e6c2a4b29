package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/swiss-tournaments/middleware"
	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type reportResultRequest struct {
	services.ReportResultInput
	// Set when a participant (including guests) reports for themselves.
	ParticipantID *string `json:"participant_id,omitempty"`
}

func (h *MatchHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req reportResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	reporter, err := reporterFromRequest(r, req.ParticipantID)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ReportResult(r.Context(), id, req.ReportResultInput, reporter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

func (h *MatchHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req struct {
		ParticipantID *string `json:"participant_id,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &req); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}
	reporter, err := reporterFromRequest(r, req.ParticipantID)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ConfirmResult(r.Context(), id, reporter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

func (h *MatchHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	id, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ReportResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	reporter, err := reporterFromRequest(r, nil)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ResolveDispute(r.Context(), id, input, reporter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

func (h *MatchHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

func (h *MatchHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := matchIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	history, err := h.matchService.History(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"history": history}, nil)
}

func (h *MatchHandler) ListByRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := models.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListByRound(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil)
}

func matchIDParam(r *http.Request) (models.MatchID, error) {
	return models.ParseMatchID(chi.URLParam(r, "matchID"))
}

// reporterFromRequest assembles the acting identity from the JWT claims (when
// present) and the optional participant id from the request body.
func reporterFromRequest(r *http.Request, participantID *string) (services.Reporter, error) {
	var reporter services.Reporter

	if userID, err := middleware.GetUserIDFromContext(r.Context()); err == nil {
		role, err := middleware.GetUserRoleFromContext(r.Context())
		if err != nil {
			return services.Reporter{}, err
		}
		reporter.UserID = &userID
		reporter.Role = role
	}

	if participantID != nil {
		pid, err := models.ParseParticipantID(*participantID)
		if err != nil {
			return services.Reporter{}, err
		}
		reporter.ParticipantID = &pid
	}
	return reporter, nil
}
