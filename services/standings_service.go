package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/prediction-pool/brackets"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
)

// BracketUpdatePayload is pushed to a tournament room when assigned teams change.
type BracketUpdatePayload struct {
	TournamentID int                           `json:"tournament_id"`
	Games        map[int]models.SlotAssignment `json:"games"`
}

type StandingsService interface {
	GroupStandings(ctx context.Context, tournamentID int, letter string) ([]models.TeamStats, error)
	// ResolveBracket resolves the official bracket, stores changed assignments and
	// announces them.
	ResolveBracket(ctx context.Context, tournamentID int) (map[int]models.SlotAssignment, error)
	PredictedBracket(ctx context.Context, tournamentID, userID int) (map[int]models.SlotAssignment, error)
	// ValidateBrackets checks the bracket setup of every tournament with the given
	// status (all when nil) and joins the defects found.
	ValidateBrackets(ctx context.Context, status *models.TournamentStatus) error
}

type standingsService struct {
	repos      Repositories
	resolver   *brackets.Resolver
	crossRules brackets.ThirdPlaceCrossRuleProvider
	publisher  brackets.Publisher
	logger     *slog.Logger
}

// NewStandingsService resolves brackets with crossRules, which may be nil.
func NewStandingsService(repos Repositories, crossRules brackets.ThirdPlaceCrossRuleProvider, publisher brackets.Publisher, logger *slog.Logger) StandingsService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &standingsService{
		repos:      repos,
		resolver:   brackets.NewResolver(crossRules),
		crossRules: crossRules,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *standingsService) GroupStandings(ctx context.Context, tournamentID int, letter string) ([]models.TeamStats, error) {
	snap, err := loadSnapshot(ctx, s.repos, tournamentID)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.group(letter); !ok {
		return nil, fmt.Errorf("group %s of tournament %d: %w", letter, tournamentID, ErrGroupNotFound)
	}
	return snap.official[letter], nil
}

func (s *standingsService) ResolveBracket(ctx context.Context, tournamentID int) (map[int]models.SlotAssignment, error) {
	snap, err := loadSnapshot(ctx, s.repos, tournamentID)
	if err != nil {
		return nil, err
	}
	slots, err := snap.officialBracket(s.resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bracket of tournament %d: %w", tournamentID, err)
	}

	changed := map[int]models.SlotAssignment{}
	for _, bg := range snap.bracketGames {
		a := slots[bg.GameID]
		if !sameTeam(a.HomeTeamID, bg.HomeTeamID) || !sameTeam(a.AwayTeamID, bg.AwayTeamID) {
			changed[bg.GameID] = a
		}
	}
	if len(changed) == 0 {
		return slots, nil
	}

	err = s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for gameID, a := range changed {
			if err := s.repos.Games.AssignTeams(ctx, exec, gameID, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store bracket of tournament %d: %w", tournamentID, mapRepositoryError(err))
	}

	s.logger.Info("bracket assignments updated", slog.Int("tournament_id", tournamentID), slog.Int("games", len(changed)))
	s.publisher.Publish(tournamentID, brackets.MessageBracketUpdated, BracketUpdatePayload{TournamentID: tournamentID, Games: changed})
	return slots, nil
}

func (s *standingsService) PredictedBracket(ctx context.Context, tournamentID, userID int) (map[int]models.SlotAssignment, error) {
	snap, err := loadSnapshot(ctx, s.repos, tournamentID)
	if err != nil {
		return nil, err
	}
	guesses, err := s.repos.Guesses.ListByUserAndTournament(ctx, nil, userID, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guesses of user %d: %w", userID, err)
	}
	positions, err := s.repos.Positions.ListByUserAndTournament(ctx, nil, userID, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch group position guesses of user %d: %w", userID, err)
	}

	slots, err := snap.predictedBracket(s.resolver, snap.predictedStandings(guesses, positions), guesses)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve predicted bracket of user %d: %w", userID, err)
	}
	return slots, nil
}

func (s *standingsService) ValidateBrackets(ctx context.Context, status *models.TournamentStatus) error {
	tournaments, err := s.repos.Tournaments.List(ctx, nil, repositories.ListTournamentsFilter{Status: status})
	if err != nil {
		return fmt.Errorf("failed to list tournaments: %w", err)
	}

	var errs []error
	for _, t := range tournaments {
		groups, err := s.repos.Groups.ListByTournament(ctx, nil, t.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch groups of tournament %d: %w", t.ID, err)
		}
		games, err := s.repos.Games.ListBracketGames(ctx, nil, t.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch bracket of tournament %d: %w", t.ID, err)
		}
		if len(games) == 0 {
			continue
		}
		if err := brackets.ValidateConfiguration(games, groups, s.crossRules); err != nil {
			s.logger.Error("invalid bracket configuration", slog.Int("tournament_id", t.ID), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("tournament %d: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}

func sameTeam(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
