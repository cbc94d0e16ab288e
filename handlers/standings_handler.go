package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/prediction-pool/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// GroupStandings обрабатывает GET /tournaments/{tournamentID}/groups/{letter}/standings
func (h *StandingsHandler) GroupStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	letter := strings.ToUpper(chi.URLParam(r, "letter"))
	if letter == "" {
		badRequestResponse(w, r, errors.New("missing group letter in URL path"))
		return
	}

	table, err := h.standingsService.GroupStandings(r.Context(), tournamentID, letter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"group": letter, "standings": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Bracket обрабатывает GET /tournaments/{tournamentID}/bracket
func (h *StandingsHandler) Bracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slots, err := h.standingsService.ResolveBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PredictedBracket обрабатывает GET /tournaments/{tournamentID}/users/{userID}/bracket
func (h *StandingsHandler) PredictedBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slots, err := h.standingsService.PredictedBracket(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user_id": userID, "bracket": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
