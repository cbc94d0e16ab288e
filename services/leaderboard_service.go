package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 500
)

type LeaderboardService interface {
	Leaderboard(ctx context.Context, tournamentID, limit, offset int) ([]models.TournamentScore, error)
	UserScore(ctx context.Context, tournamentID, userID int) (*models.TournamentScore, error)
}

type leaderboardService struct {
	repos Repositories
}

func NewLeaderboardService(repos Repositories) LeaderboardService {
	return &leaderboardService{repos: repos}
}

// Leaderboard reads materialized totals, best first.
func (s *leaderboardService) Leaderboard(ctx context.Context, tournamentID, limit, offset int) ([]models.TournamentScore, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset cannot be negative", ErrValidationFailed)
	}
	if _, err := s.repos.Tournaments.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, fmt.Errorf("failed to fetch tournament %d: %w", tournamentID, mapRepositoryError(err))
	}

	scores, err := s.repos.Scores.ListByTournament(ctx, nil, tournamentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard of tournament %d: %w", tournamentID, err)
	}
	return scores, nil
}

func (s *leaderboardService) UserScore(ctx context.Context, tournamentID, userID int) (*models.TournamentScore, error) {
	score, err := s.repos.Scores.GetByUserAndTournament(ctx, nil, userID, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("score of user %d in tournament %d: %w", userID, tournamentID, mapRepositoryError(err))
	}
	return score, nil
}
