package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/prediction-pool/brackets"
	"github.com/Dosada05/prediction-pool/handlers"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/services"
)

var secret = []byte("routes-secret")

type scoreStub struct {
	services.ScoreService
	calls int
}

func (s *scoreStub) RecalculateTournament(ctx context.Context, tournamentID int) (*services.RecalculationReport, error) {
	s.calls++
	return &services.RecalculationReport{Trigger: services.TriggerTournament}, nil
}

type leaderboardStub struct {
	services.LeaderboardService
}

func (leaderboardStub) Leaderboard(ctx context.Context, tournamentID, limit, offset int) ([]models.TournamentScore, error) {
	return []models.TournamentScore{}, nil
}

func newTestRouter(t *testing.T, scores *scoreStub) http.Handler {
	t.Helper()
	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Standings: handlers.NewStandingsHandler(nil),
		Scores:    handlers.NewScoreHandler(scores, leaderboardStub{}),
		WebSocket: handlers.NewWebSocketHandler(brackets.NewHub(nil), nil, nil),
	}, Options{JWTSecret: secret, AllowedOrigins: []string{"https://pool.example"}})
	return router
}

func token(t *testing.T, role models.UserRole) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	scores := &scoreStub{}
	router := newTestRouter(t, scores)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "player", token: token(t, models.RolePlayer), want: http.StatusForbidden},
		{name: "admin", token: token(t, models.RoleAdmin), want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tournaments/2/recalculate", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, 1, scores.calls)
}

func TestPublicRoutes(t *testing.T) {
	router := newTestRouter(t, &scoreStub{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/2/leaderboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, &scoreStub{})

	req := httptest.NewRequest(http.MethodOptions, "/games/10/result", nil)
	req.Header.Set("Origin", "https://pool.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://pool.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
