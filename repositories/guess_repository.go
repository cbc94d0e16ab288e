package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

type GuessRepository interface {
	ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]models.GameGuess, error)
	ListByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) ([]models.GameGuess, error)
	// ListUsersByTournament returns every user with a game or group position guess.
	ListUsersByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error)
	// UpdateScores writes Score, FinalScore and BoostMultiplier of every guess.
	UpdateScores(ctx context.Context, exec SQLExecutor, guesses []models.GameGuess) error
	// ClearScoresForDraftResults nulls the stored scores of guesses whose game has a
	// draft result and returns the guesses it changed.
	ClearScoresForDraftResults(ctx context.Context, exec SQLExecutor) ([]models.GameGuess, error)
}

type postgresGuessRepository struct {
	db *sql.DB
}

func NewPostgresGuessRepository(db *sql.DB) GuessRepository {
	return &postgresGuessRepository{db: db}
}

func (r *postgresGuessRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const guessColumns = `g.id, g.game_id, g.user_id, g.tournament_id, g.home_score, g.away_score, g.boost_type,
	g.score, g.final_score, g.boost_multiplier, g.updated_at`

func scanGuess(row rowScanner) (*models.GameGuess, error) {
	var (
		g                             models.GameGuess
		homeScore, awayScore          sql.NullInt64
		score, finalScore, multiplier sql.NullInt64
	)
	err := row.Scan(&g.ID, &g.GameID, &g.UserID, &g.TournamentID, &homeScore, &awayScore, &g.BoostType,
		&score, &finalScore, &multiplier, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.HomeScore = nullIntPtr(homeScore)
	g.AwayScore = nullIntPtr(awayScore)
	g.Score = nullIntPtr(score)
	g.FinalScore = nullIntPtr(finalScore)
	g.BoostMultiplier = nullIntPtr(multiplier)
	return &g, nil
}

func (r *postgresGuessRepository) ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]models.GameGuess, error) {
	query := `SELECT ` + guessColumns + ` FROM game_guesses g WHERE g.game_id = $1 ORDER BY g.id`
	return r.list(ctx, exec, query, gameID)
}

func (r *postgresGuessRepository) ListByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) ([]models.GameGuess, error) {
	query := `SELECT ` + guessColumns + ` FROM game_guesses g WHERE g.user_id = $1 AND g.tournament_id = $2 ORDER BY g.game_id`
	return r.list(ctx, exec, query, userID, tournamentID)
}

func (r *postgresGuessRepository) ListUsersByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error) {
	query := `
		SELECT user_id FROM game_guesses WHERE tournament_id = $1
		UNION
		SELECT user_id FROM group_position_guesses WHERE tournament_id = $1
		ORDER BY user_id`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return ids, nil
}

func (r *postgresGuessRepository) UpdateScores(ctx context.Context, exec SQLExecutor, guesses []models.GameGuess) error {
	if len(guesses) == 0 {
		return nil
	}
	ids := make([]int, len(guesses))
	scores := make([]int, len(guesses))
	finals := make([]int, len(guesses))
	multipliers := make([]int, len(guesses))
	for i, g := range guesses {
		if g.Score == nil || g.FinalScore == nil || g.BoostMultiplier == nil {
			return fmt.Errorf("guess %d has no computed score", g.ID)
		}
		ids[i], scores[i], finals[i], multipliers[i] = g.ID, *g.Score, *g.FinalScore, *g.BoostMultiplier
	}

	query := `
		UPDATE game_guesses g SET
			score            = u.score,
			final_score      = u.final_score,
			boost_multiplier = u.boost_multiplier,
			updated_at       = now()
		FROM unnest($1::int[], $2::int[], $3::int[], $4::int[]) AS u(id, score, final_score, boost_multiplier)
		WHERE g.id = u.id`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		toInt64Array(ids), toInt64Array(scores), toInt64Array(finals), toInt64Array(multipliers))
	if err != nil {
		return fmt.Errorf("failed to update scores of %d guesses: %w", len(guesses), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if int(affected) != len(guesses) {
		return fmt.Errorf("updated %d of %d guesses: %w", affected, len(guesses), ErrInvalidReference)
	}
	return nil
}

func (r *postgresGuessRepository) ClearScoresForDraftResults(ctx context.Context, exec SQLExecutor) ([]models.GameGuess, error) {
	query := `
		UPDATE game_guesses g SET
			score            = NULL,
			final_score      = NULL,
			boost_multiplier = NULL,
			updated_at       = now()
		FROM game_results r
		WHERE r.game_id = g.game_id
		  AND r.status = 'draft'
		  AND (g.score IS NOT NULL OR g.final_score IS NOT NULL OR g.boost_multiplier IS NOT NULL)
		RETURNING ` + guessColumns
	return r.list(ctx, exec, query)
}

func (r *postgresGuessRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.GameGuess, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query guesses: %w", err)
	}
	defer rows.Close()

	guesses := make([]models.GameGuess, 0)
	for rows.Next() {
		g, err := scanGuess(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guess row: %w", err)
		}
		guesses = append(guesses, *g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guess rows: %w", err)
	}
	return guesses, nil
}
