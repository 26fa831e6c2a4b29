package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/services"
)

type GameProfileHandler struct {
	profileService services.GameProfileService
}

func NewGameProfileHandler(profileService services.GameProfileService) *GameProfileHandler {
	return &GameProfileHandler{profileService: profileService}
}

func (h *GameProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateGameProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.profileService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"game_profile": profile}, nil)
}

func (h *GameProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseGameProfileID(chi.URLParam(r, "profileID"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateGameProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.profileService.Update(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game_profile": profile}, nil)
}

func (h *GameProfileHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseGameProfileID(chi.URLParam(r, "profileID"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.profileService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game_profile": profile}, nil)
}

func (h *GameProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profileService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game_profiles": profiles}, nil)
}

func (h *GameProfileHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseGameProfileID(chi.URLParam(r, "profileID"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("banner")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	profile, err := h.profileService.UploadBanner(r.Context(), id, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game_profile": profile}, nil)
}
