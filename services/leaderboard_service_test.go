package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/prediction-pool/models"
)

func TestLeaderboard(t *testing.T) {
	store := cupStore()
	f := newFixture(store)
	board := NewLeaderboardService(store.repos())
	ctx := context.Background()

	_, err := f.scores.RecalculateTournament(ctx, 2)
	require.NoError(t, err)

	rows, err := board.Leaderboard(ctx, 2, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 8, rows[0].UserID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 27, rows[0].Total)
	assert.Equal(t, 7, rows[1].UserID)
	assert.Equal(t, 2, rows[1].Rank)

	page, err := board.Leaderboard(ctx, 2, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 2, page[0].Rank)

	score, err := board.UserScore(ctx, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, score.Total)
}

func TestLeaderboardErrors(t *testing.T) {
	store := cupStore()
	board := NewLeaderboardService(store.repos())
	ctx := context.Background()

	_, err := board.Leaderboard(ctx, 2, 10, -1)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = board.Leaderboard(ctx, 404, 10, 0)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	_, err = board.UserScore(ctx, 2, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaderboardSharedRank(t *testing.T) {
	store := singleGameStore()
	store.scores[models.UserTournament{UserID: 1, TournamentID: 1}] = models.TournamentScore{UserID: 1, TournamentID: 1, Total: 5}
	store.scores[models.UserTournament{UserID: 2, TournamentID: 1}] = models.TournamentScore{UserID: 2, TournamentID: 1, Total: 5}
	store.scores[models.UserTournament{UserID: 3, TournamentID: 1}] = models.TournamentScore{UserID: 3, TournamentID: 1, Total: 1}
	board := NewLeaderboardService(store.repos())

	rows, err := board.Leaderboard(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int{1, 1, 3}, []int{rows[0].Rank, rows[1].Rank, rows[2].Rank})
}
