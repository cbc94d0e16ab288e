package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/prediction-pool/brackets"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
	"github.com/Dosada05/prediction-pool/scoring"
	"github.com/Dosada05/prediction-pool/storage"
)

// errTournamentLookup aborts a whole scoring batch: point values are required input.
var errTournamentLookup = errors.New("tournament lookup failed")

const defaultScoringWorkers = 4

// ScoresUpdatePayload is pushed to a tournament room after materialization.
type ScoresUpdatePayload struct {
	TournamentID int   `json:"tournament_id"`
	UserIDs      []int `json:"user_ids"`
}

// ResultUpdatePayload is pushed to a tournament room when a result changes.
type ResultUpdatePayload struct {
	GameID int                 `json:"game_id"`
	Status models.ResultStatus `json:"status"`
}

type ScoreService interface {
	// UpdateGameResult stores an admin edit. Amending the scores of a published
	// result runs the full amend protocol; every other edit is applied in place.
	UpdateGameResult(ctx context.Context, update models.ResultUpdate) (*models.GameResult, *RecalculationReport, error)
	// ResumeProtocol finishes an interrupted amendment from its stored state.
	ResumeProtocol(ctx context.Context, gameID int) (*models.GameResult, *RecalculationReport, error)
	// ResumeInterrupted resumes every interrupted amendment and returns how many finished.
	ResumeInterrupted(ctx context.Context) (int, error)
	RecalculateGames(ctx context.Context, gameIDs []int) (*RecalculationReport, error)
	RecalculateTournament(ctx context.Context, tournamentID int) (*RecalculationReport, error)
	CleanupDraftGuesses(ctx context.Context) (*RecalculationReport, error)
	Materialize(ctx context.Context, pairs []models.UserTournament) ([]models.UserTournament, error)
}

type ScoreServiceConfig struct {
	// Workers bounds how many games or tournaments are processed at once.
	Workers int
}

type scoreService struct {
	repos     Repositories
	resolver  *brackets.Resolver
	standings StandingsService
	publisher brackets.Publisher
	archiver  storage.ReportArchiver
	workers   int
	logger    *slog.Logger
}

func NewScoreService(
	repos Repositories,
	resolver *brackets.Resolver,
	standings StandingsService,
	publisher brackets.Publisher,
	archiver storage.ReportArchiver,
	cfg ScoreServiceConfig,
	logger *slog.Logger,
) ScoreService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = defaultScoringWorkers
	}
	return &scoreService{
		repos:     repos,
		resolver:  resolver,
		standings: standings,
		publisher: publisher,
		archiver:  archiver,
		workers:   workers,
		logger:    logger,
	}
}

func (s *scoreService) RecalculateGames(ctx context.Context, gameIDs []int) (*RecalculationReport, error) {
	report := newReport(TriggerGames)
	if err := s.recalculate(ctx, gameIDs, report); err != nil {
		return report, err
	}
	s.finish(ctx, report)
	return report, nil
}

func (s *scoreService) RecalculateTournament(ctx context.Context, tournamentID int) (*RecalculationReport, error) {
	if _, err := s.repos.Tournaments.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, fmt.Errorf("failed to fetch tournament %d: %w", tournamentID, mapRepositoryError(err))
	}
	results, err := s.repos.Results.ListPublishedByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results of tournament %d: %w", tournamentID, err)
	}
	users, err := s.repos.Guesses.ListUsersByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users of tournament %d: %w", tournamentID, err)
	}

	gameIDs := make([]int, len(results))
	for i, r := range results {
		gameIDs[i] = r.GameID
	}
	// Users with only group position guesses are not reached through game guesses.
	extra := make([]models.UserTournament, len(users))
	for i, u := range users {
		extra[i] = models.UserTournament{UserID: u, TournamentID: tournamentID}
	}

	report := newReport(TriggerTournament)
	if err := s.recalculate(ctx, gameIDs, report, extra...); err != nil {
		return report, err
	}
	s.refreshBracket(ctx, tournamentID)
	s.finish(ctx, report)
	return report, nil
}

func (s *scoreService) CleanupDraftGuesses(ctx context.Context) (*RecalculationReport, error) {
	report := newReport(TriggerCleanup)
	if err := s.cleanup(ctx, report); err != nil {
		return report, err
	}
	s.finish(ctx, report)
	return report, nil
}

// recalculate scores gameIDs, nulls guesses left on draft results and materializes
// every affected user.
func (s *scoreService) recalculate(ctx context.Context, gameIDs []int, report *RecalculationReport, extra ...models.UserTournament) error {
	if err := s.scoreGames(ctx, gameIDs, report); err != nil {
		return err
	}
	if _, err := s.clearDraftGuesses(ctx, report); err != nil {
		return err
	}
	materialized, err := s.Materialize(ctx, append(report.AffectedPairs(), extra...))
	report.addMaterialized(materialized)
	return err
}

// cleanup nulls guesses left on draft results and materializes their users.
func (s *scoreService) cleanup(ctx context.Context, report *RecalculationReport) error {
	cleaned, err := s.clearDraftGuesses(ctx, report)
	if err != nil {
		return err
	}
	materialized, err := s.Materialize(ctx, pairsOf(cleaned))
	report.addMaterialized(materialized)
	return err
}

func (s *scoreService) clearDraftGuesses(ctx context.Context, report *RecalculationReport) ([]models.GameGuess, error) {
	cleaned, err := s.repos.Guesses.ClearScoresForDraftResults(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to clean guesses of draft results: %w", err)
	}
	report.Cleaned = append(report.Cleaned, cleaned...)
	sortGuesses(report.Cleaned)
	return cleaned, nil
}

// scoreGames scores the guesses of every published game in parallel. A failing game
// is recorded and does not stop the others; a tournament lookup miss stops the batch.
func (s *scoreService) scoreGames(ctx context.Context, gameIDs []int, report *RecalculationReport) error {
	configs := &scoringConfigs{repo: s.repos.Tournaments, byID: map[int]models.ScoringConfig{}}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, gameID := range uniqueInts(gameIDs) {
		g.Go(func() error {
			updated, err := s.scoreGame(gCtx, gameID, configs)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, errTournamentLookup):
				return err
			case err != nil:
				s.logger.Warn("failed to score game", slog.Int("game_id", gameID), slog.Any("error", err))
				report.Failures = append(report.Failures, GameFailure{GameID: gameID, Error: err.Error()})
			default:
				report.Updated = append(report.Updated, updated...)
			}
			return nil
		})
	}
	err := g.Wait()

	sortGuesses(report.Updated)
	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].GameID < report.Failures[j].GameID })
	if err != nil {
		return fmt.Errorf("scoring batch aborted: %w", err)
	}
	return nil
}

func (s *scoreService) scoreGame(ctx context.Context, gameID int, configs *scoringConfigs) ([]models.GameGuess, error) {
	game, err := s.repos.Games.GetByID(ctx, nil, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game %d: %w", gameID, mapRepositoryError(err))
	}
	result, err := s.repos.Results.GetByGameID(ctx, nil, gameID)
	if errors.Is(err, repositories.ErrResultNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch result of game %d: %w", gameID, err)
	}
	if result.Status != models.ResultPublished {
		return nil, nil
	}

	cfg, err := configs.get(ctx, game.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("%w: tournament %d of game %d: %w", errTournamentLookup, game.TournamentID, gameID, err)
	}

	guesses, err := s.repos.Guesses.ListByGame(ctx, nil, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guesses of game %d: %w", gameID, err)
	}
	for i := range guesses {
		scoring.Apply(&guesses[i], scoring.GuessPoints(cfg, guesses[i], *result))
	}
	if err := s.repos.Guesses.UpdateScores(ctx, nil, guesses); err != nil {
		return nil, fmt.Errorf("failed to store scores of game %d: %w", gameID, err)
	}
	return guesses, nil
}

// Materialize recomputes the aggregate rows of pairs, one batch per tournament.
// It returns the pairs that were written.
func (s *scoreService) Materialize(ctx context.Context, pairs []models.UserTournament) ([]models.UserTournament, error) {
	byTournament := map[int][]int{}
	for _, p := range pairs {
		byTournament[p.TournamentID] = append(byTournament[p.TournamentID], p.UserID)
	}

	var (
		mu   sync.Mutex
		done []models.UserTournament
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for tournamentID, users := range byTournament {
		g.Go(func() error {
			written, err := s.materializeTournament(gCtx, tournamentID, uniqueInts(users))
			if err != nil {
				return err
			}
			mu.Lock()
			done = append(done, written...)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	sortPairs(done)
	return done, err
}

func (s *scoreService) materializeTournament(ctx context.Context, tournamentID int, users []int) ([]models.UserTournament, error) {
	snap, err := loadSnapshot(ctx, s.repos, tournamentID)
	if err != nil {
		return nil, err
	}
	cfg := snap.tournament.Scoring

	official, err := snap.officialBracket(s.resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bracket of tournament %d: %w", tournamentID, err)
	}
	firstRound := snap.firstRound()
	qualified := scoring.QualifiedTeams(official, firstRound)

	scores := make([]models.TournamentScore, 0, len(users))
	for _, userID := range users {
		guesses, err := s.repos.Guesses.ListByUserAndTournament(ctx, nil, userID, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch guesses of user %d: %w", userID, err)
		}
		positions, err := s.repos.Positions.ListByUserAndTournament(ctx, nil, userID, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch group position guesses of user %d: %w", userID, err)
		}

		predicted := snap.predictedStandings(guesses, positions)
		groupPoints := 0
		for letter, table := range predicted {
			groupPoints += scoring.GroupPositionPoints(cfg, snap.official[letter], teamIDs(table))
		}

		qualificationPoints := 0
		if len(firstRound) > 0 {
			slots, err := snap.predictedBracket(s.resolver, predicted, guesses)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve predicted bracket of user %d: %w", userID, err)
			}
			qualificationPoints = scoring.QualifiedTeamPoints(cfg, qualified, scoring.QualifiedTeams(slots, firstRound))
		}

		user := models.UserTournament{UserID: userID, TournamentID: tournamentID}
		scores = append(scores, scoring.Aggregate(user, cfg, guesses, snap.published, groupPoints, qualificationPoints))
	}

	err = s.repos.Tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for i := range scores {
			if err := s.repos.Scores.Upsert(ctx, exec, &scores[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to materialize scores of tournament %d: %w", tournamentID, err)
	}

	written := make([]models.UserTournament, len(scores))
	for i, sc := range scores {
		written[i] = models.UserTournament{UserID: sc.UserID, TournamentID: sc.TournamentID}
	}
	return written, nil
}

func (s *scoreService) refreshBracket(ctx context.Context, tournamentID int) {
	if s.standings == nil {
		return
	}
	if _, err := s.standings.ResolveBracket(ctx, tournamentID); err != nil {
		s.logger.Error("failed to refresh bracket", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	}
}

// finish archives the report and announces new totals.
func (s *scoreService) finish(ctx context.Context, report *RecalculationReport) {
	report.FinishedAt = time.Now().UTC()
	s.logger.Info("recalculation finished",
		slog.String("trigger", report.Trigger),
		slog.Int("updated", len(report.Updated)),
		slog.Int("cleaned", len(report.Cleaned)),
		slog.Int("failures", len(report.Failures)),
		slog.Int("materialized", len(report.Materialized)),
	)
	if report.empty() {
		return
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, report.archiveKey(), report); err != nil {
			s.logger.Warn("failed to archive recalculation report", slog.String("trigger", report.Trigger), slog.Any("error", err))
		}
	}

	for _, tournamentID := range report.tournaments() {
		payload := ScoresUpdatePayload{TournamentID: tournamentID}
		for _, p := range report.Materialized {
			if p.TournamentID == tournamentID {
				payload.UserIDs = append(payload.UserIDs, p.UserID)
			}
		}
		s.publisher.Publish(tournamentID, brackets.MessageScoresUpdated, payload)
	}
}

// scoringConfigs caches tournament point values for one batch.
type scoringConfigs struct {
	repo repositories.TournamentRepository
	mu   sync.Mutex
	byID map[int]models.ScoringConfig
}

func (c *scoringConfigs) get(ctx context.Context, tournamentID int) (models.ScoringConfig, error) {
	c.mu.Lock()
	cfg, ok := c.byID[tournamentID]
	c.mu.Unlock()
	if ok {
		return cfg, nil
	}

	t, err := c.repo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return models.ScoringConfig{}, mapRepositoryError(err)
	}
	c.mu.Lock()
	c.byID[tournamentID] = t.Scoring
	c.mu.Unlock()
	return t.Scoring, nil
}
