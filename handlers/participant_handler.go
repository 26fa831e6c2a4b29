package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/swiss-tournaments/middleware"
	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/services"
)

type ParticipantHandler struct {
	participantService services.ParticipantService
}

func NewParticipantHandler(participantService services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantService: participantService}
}

// Register signs the authenticated user up for the tournament.
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	participant, err := h.participantService.RegisterUser(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil)
}

// RegisterGuest signs an unauthenticated guest up by name and email.
func (h *ParticipantHandler) RegisterGuest(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RegisterGuestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.participantService.RegisterGuest(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil)
}

func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.ParticipantStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.ParticipantStatus(raw)
		if !s.Valid() {
			errorResponse(w, r, http.StatusBadRequest, "unknown status filter")
			return
		}
		status = &s
	}

	participants, err := h.participantService.ListByTournament(r.Context(), tournamentID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil)
}

// ListPlayable returns the participants that would enter the next pairing.
func (h *ParticipantHandler) ListPlayable(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.participantService.ListPlayable(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil)
}

func (h *ParticipantHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id models.ParticipantID) (*models.Participant, error) {
		return h.participantService.Confirm(r.Context(), id)
	})
}

func (h *ParticipantHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	role, err := middleware.GetUserRoleFromContext(r.Context())
	byStaff := err == nil && role.Staff()
	h.act(w, r, func(id models.ParticipantID) (*models.Participant, error) {
		return h.participantService.CheckIn(r.Context(), id, byStaff)
	})
}

func (h *ParticipantHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id models.ParticipantID) (*models.Participant, error) {
		return h.participantService.Withdraw(r.Context(), id)
	})
}

func (h *ParticipantHandler) Disqualify(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}
	h.act(w, r, func(id models.ParticipantID) (*models.Participant, error) {
		return h.participantService.Disqualify(r.Context(), id, input.Reason)
	})
}

// CancelByToken serves the guest cancellation link from the registration
// email. No authentication required; the token is the credential.
func (h *ParticipantHandler) CancelByToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		errorResponse(w, r, http.StatusBadRequest, "missing cancellation token")
		return
	}

	participant, err := h.participantService.WithdrawByToken(r.Context(), token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil)
}

func (h *ParticipantHandler) act(w http.ResponseWriter, r *http.Request, op func(models.ParticipantID) (*models.Participant, error)) {
	id, err := models.ParseParticipantID(chi.URLParam(r, "participantID"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := op(id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil)
}
