package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/services"
)

type RoundHandler struct {
	roundService services.RoundService
}

func NewRoundHandler(roundService services.RoundService) *RoundHandler {
	return &RoundHandler{roundService: roundService}
}

func (h *RoundHandler) Generate(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.GenerateNextRound(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"round": round}, nil)
}

func (h *RoundHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.roundService.StartRound)
}

func (h *RoundHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.roundService.CompleteRound)
}

func (h *RoundHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.roundService.GetByID)
}

func (h *RoundHandler) Current(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.GetCurrent(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil)
}

func (h *RoundHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := tournamentIDParam(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rounds, err := h.roundService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil)
}

func (h *RoundHandler) act(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id models.RoundID) (*models.Round, error)) {
	id, err := models.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := op(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil)
}
