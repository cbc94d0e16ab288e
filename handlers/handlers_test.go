package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/prediction-pool/brackets"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/services"
)

type stubStandings struct {
	table  []models.TeamStats
	slots  map[int]models.SlotAssignment
	err    error
	letter string
	userID int
}

func (s *stubStandings) GroupStandings(ctx context.Context, tournamentID int, letter string) ([]models.TeamStats, error) {
	s.letter = letter
	return s.table, s.err
}

func (s *stubStandings) ResolveBracket(ctx context.Context, tournamentID int) (map[int]models.SlotAssignment, error) {
	return s.slots, s.err
}

func (s *stubStandings) PredictedBracket(ctx context.Context, tournamentID, userID int) (map[int]models.SlotAssignment, error) {
	s.userID = userID
	return s.slots, s.err
}

func (s *stubStandings) ValidateBrackets(ctx context.Context, status *models.TournamentStatus) error {
	return s.err
}

type stubScores struct {
	update models.ResultUpdate
	err    error
}

func (s *stubScores) UpdateGameResult(ctx context.Context, update models.ResultUpdate) (*models.GameResult, *services.RecalculationReport, error) {
	s.update = update
	if s.err != nil {
		return nil, nil, s.err
	}
	return &models.GameResult{GameID: update.GameID, HomeScore: update.HomeScore, AwayScore: update.AwayScore, Status: update.Status, ProtocolState: models.ProtocolPublished},
		&services.RecalculationReport{Trigger: services.TriggerResultUpdate}, nil
}

func (s *stubScores) ResumeProtocol(ctx context.Context, gameID int) (*models.GameResult, *services.RecalculationReport, error) {
	return nil, nil, s.err
}

func (s *stubScores) ResumeInterrupted(ctx context.Context) (int, error) { return 0, s.err }

func (s *stubScores) RecalculateGames(ctx context.Context, gameIDs []int) (*services.RecalculationReport, error) {
	return &services.RecalculationReport{Trigger: services.TriggerGames}, s.err
}

func (s *stubScores) RecalculateTournament(ctx context.Context, tournamentID int) (*services.RecalculationReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.RecalculationReport{Trigger: services.TriggerTournament}, nil
}

func (s *stubScores) CleanupDraftGuesses(ctx context.Context) (*services.RecalculationReport, error) {
	return &services.RecalculationReport{Trigger: services.TriggerCleanup}, s.err
}

func (s *stubScores) Materialize(ctx context.Context, pairs []models.UserTournament) ([]models.UserTournament, error) {
	return pairs, s.err
}

type stubLeaderboard struct {
	limit, offset int
	rows          []models.TournamentScore
	err           error
}

func (s *stubLeaderboard) Leaderboard(ctx context.Context, tournamentID, limit, offset int) ([]models.TournamentScore, error) {
	s.limit, s.offset = limit, offset
	return s.rows, s.err
}

func (s *stubLeaderboard) UserScore(ctx context.Context, tournamentID, userID int) (*models.TournamentScore, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.TournamentScore{UserID: userID, TournamentID: tournamentID, Total: 12}, nil
}

func newRouter(st *stubStandings, sc *stubScores, lb *stubLeaderboard) http.Handler {
	sh := NewStandingsHandler(st)
	rh := NewScoreHandler(sc, lb)
	r := chi.NewRouter()
	r.Get("/tournaments/{tournamentID}/groups/{letter}/standings", sh.GroupStandings)
	r.Get("/tournaments/{tournamentID}/bracket", sh.Bracket)
	r.Get("/tournaments/{tournamentID}/users/{userID}/bracket", sh.PredictedBracket)
	r.Get("/tournaments/{tournamentID}/leaderboard", rh.Leaderboard)
	r.Get("/tournaments/{tournamentID}/users/{userID}/score", rh.UserScore)
	r.Put("/games/{gameID}/result", rh.UpdateResult)
	r.Post("/games/{gameID}/result/resume", rh.ResumeResult)
	r.Post("/tournaments/{tournamentID}/recalculate", rh.RecalculateTournament)
	r.Post("/results/cleanup", rh.CleanupDrafts)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var payload map[string]json.RawMessage
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestGroupStandingsHandler(t *testing.T) {
	st := &stubStandings{table: []models.TeamStats{{TeamID: 4, Points: 6, IsComplete: true}}}
	h := newRouter(st, &stubScores{}, &stubLeaderboard{})

	rec, payload := do(t, h, http.MethodGet, "/tournaments/2/groups/b/standings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "B", st.letter)

	var table []models.TeamStats
	require.NoError(t, json.Unmarshal(payload["standings"], &table))
	assert.Equal(t, st.table, table)
}

func TestBracketHandlers(t *testing.T) {
	home, away := 1, 5
	st := &stubStandings{slots: map[int]models.SlotAssignment{201: {HomeTeamID: &home, AwayTeamID: &away}, 203: {}}}
	h := newRouter(st, &stubScores{}, &stubLeaderboard{})

	rec, payload := do(t, h, http.MethodGet, "/tournaments/2/bracket", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var slots map[string]models.SlotAssignment
	require.NoError(t, json.Unmarshal(payload["bracket"], &slots))
	assert.Equal(t, 5, *slots["201"].AwayTeamID)
	assert.Nil(t, slots["203"].HomeTeamID)

	rec, _ = do(t, h, http.MethodGet, "/tournaments/2/users/8/bracket", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8, st.userID)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: services.ErrTournamentNotFound, want: http.StatusNotFound},
		{err: fmt.Errorf("group Z: %w", services.ErrGroupNotFound), want: http.StatusNotFound},
		{err: fmt.Errorf("%w: offset", services.ErrValidationFailed), want: http.StatusBadRequest},
		{err: services.ErrProtocolInterrupted, want: http.StatusConflict},
		{err: fmt.Errorf("%w: no row", brackets.ErrMissingCrossRule), want: http.StatusInternalServerError},
		{err: fmt.Errorf("connection reset"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := newRouter(&stubStandings{err: tt.err}, &stubScores{}, &stubLeaderboard{})
			rec, payload := do(t, h, http.MethodGet, "/tournaments/2/bracket", "")
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, payload, "error")
		})
	}
}

func TestUpdateResultHandler(t *testing.T) {
	sc := &stubScores{}
	h := newRouter(&stubStandings{}, sc, &stubLeaderboard{})

	rec, payload := do(t, h, http.MethodPut, "/games/10/result", `{"home_score": 3, "away_score": 1, "status": "published"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ResultUpdate{GameID: 10, HomeScore: 3, AwayScore: 1, Status: models.ResultPublished}, sc.update)

	var result models.GameResult
	require.NoError(t, json.Unmarshal(payload["result"], &result))
	assert.Equal(t, 3, result.HomeScore)
	assert.Contains(t, payload, "report")
}

func TestUpdateResultHandlerBadInput(t *testing.T) {
	h := newRouter(&stubStandings{}, &stubScores{}, &stubLeaderboard{})

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{name: "missing scores", target: "/games/10/result", body: `{"status": "published"}`},
		{name: "unknown field", target: "/games/10/result", body: `{"home_score": 1, "away_score": 0, "winner": 1}`},
		{name: "bad json", target: "/games/10/result", body: `{"home_score": `},
		{name: "bad game id", target: "/games/abc/result", body: `{"home_score": 1, "away_score": 0}`},
		{name: "empty body", target: "/games/10/result", body: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, h, http.MethodPut, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestResumeResultConflict(t *testing.T) {
	h := newRouter(&stubStandings{}, &stubScores{err: services.ErrNothingToResume}, &stubLeaderboard{})

	rec, _ := do(t, h, http.MethodPost, "/games/10/result/resume", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLeaderboardHandler(t *testing.T) {
	lb := &stubLeaderboard{rows: []models.TournamentScore{{UserID: 8, TournamentID: 2, Total: 27, Rank: 1}}}
	h := newRouter(&stubStandings{}, &stubScores{}, lb)

	rec, payload := do(t, h, http.MethodGet, "/tournaments/2/leaderboard?limit=10&offset=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, lb.limit)
	assert.Equal(t, 20, lb.offset)

	var rows []models.TournamentScore
	require.NoError(t, json.Unmarshal(payload["leaderboard"], &rows))
	assert.Equal(t, lb.rows, rows)

	rec, _ = do(t, h, http.MethodGet, "/tournaments/2/leaderboard?limit=-3", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, payload = do(t, h, http.MethodGet, "/tournaments/2/users/8/score", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(payload["score"]), `"total": 12`)
}

func TestAdminRecalculationHandlers(t *testing.T) {
	h := newRouter(&stubStandings{}, &stubScores{}, &stubLeaderboard{})

	rec, payload := do(t, h, http.MethodPost, "/tournaments/2/recalculate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(payload["report"]), services.TriggerTournament)

	rec, payload = do(t, h, http.MethodPost, "/results/cleanup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(payload["report"]), services.TriggerCleanup)
}
