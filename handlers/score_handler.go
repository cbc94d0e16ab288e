package handlers

import (
	"net/http"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/services"
)

type ScoreHandler struct {
	scoreService       services.ScoreService
	leaderboardService services.LeaderboardService
}

func NewScoreHandler(ss services.ScoreService, ls services.LeaderboardService) *ScoreHandler {
	return &ScoreHandler{scoreService: ss, leaderboardService: ls}
}

type resultInput struct {
	HomeScore   *int                `json:"home_score"`
	AwayScore   *int                `json:"away_score"`
	HomePenalty *int                `json:"home_penalty"`
	AwayPenalty *int                `json:"away_penalty"`
	Status      models.ResultStatus `json:"status"`
}

// UpdateResult обрабатывает PUT /games/{gameID}/result
func (h *ScoreHandler) UpdateResult(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input resultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.HomeScore == nil || input.AwayScore == nil {
		errorResponse(w, r, http.StatusBadRequest, "home_score and away_score are required")
		return
	}

	result, report, err := h.scoreService.UpdateGameResult(r.Context(), models.ResultUpdate{
		GameID:      gameID,
		HomeScore:   *input.HomeScore,
		AwayScore:   *input.AwayScore,
		HomePenalty: input.HomePenalty,
		AwayPenalty: input.AwayPenalty,
		Status:      input.Status,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result, "report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResumeResult обрабатывает POST /games/{gameID}/result/resume
func (h *ScoreHandler) ResumeResult(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, report, err := h.scoreService.ResumeProtocol(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result, "report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecalculateTournament обрабатывает POST /tournaments/{tournamentID}/recalculate
func (h *ScoreHandler) RecalculateTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.scoreService.RecalculateTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CleanupDrafts обрабатывает POST /results/cleanup
func (h *ScoreHandler) CleanupDrafts(w http.ResponseWriter, r *http.Request) {
	report, err := h.scoreService.CleanupDraftGuesses(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Leaderboard обрабатывает GET /tournaments/{tournamentID}/leaderboard
func (h *ScoreHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rows, err := h.leaderboardService.Leaderboard(r.Context(), tournamentID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UserScore обрабатывает GET /tournaments/{tournamentID}/users/{userID}/score
func (h *ScoreHandler) UserScore(w http.ResponseWriter, r *http.Request) {
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

	score, err := h.leaderboardService.UserScore(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": score}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
