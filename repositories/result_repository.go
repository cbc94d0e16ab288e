package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

var (
	ErrResultNotFound = errors.New("game result not found")
	ErrResultInvalid  = errors.New("game result violates a constraint")
)

type ResultRepository interface {
	GetByGameID(ctx context.Context, exec SQLExecutor, gameID int) (*models.GameResult, error)
	// Upsert inserts or replaces the result of result.GameID and fills ID and UpdatedAt.
	Upsert(ctx context.Context, exec SQLExecutor, result *models.GameResult) error
	ListPublishedByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.GameResult, error)
	// ListInterrupted returns results whose amend protocol did not finish.
	ListInterrupted(ctx context.Context, exec SQLExecutor) ([]models.GameResult, error)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const resultColumns = `r.id, r.game_id, r.home_score, r.away_score, r.home_penalty, r.away_penalty, r.status, r.protocol_state, r.updated_at`

func scanResult(row rowScanner) (*models.GameResult, error) {
	var (
		res                      models.GameResult
		homePenalty, awayPenalty sql.NullInt64
	)
	err := row.Scan(&res.ID, &res.GameID, &res.HomeScore, &res.AwayScore, &homePenalty, &awayPenalty,
		&res.Status, &res.ProtocolState, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	res.HomePenalty = nullIntPtr(homePenalty)
	res.AwayPenalty = nullIntPtr(awayPenalty)
	return &res, nil
}

func (r *postgresResultRepository) GetByGameID(ctx context.Context, exec SQLExecutor, gameID int) (*models.GameResult, error) {
	query := `SELECT ` + resultColumns + ` FROM game_results r WHERE r.game_id = $1`
	res, err := scanResult(r.getExecutor(exec).QueryRowContext(ctx, query, gameID))
	if err != nil && !errors.Is(err, ErrResultNotFound) {
		return nil, fmt.Errorf("failed to get result of game %d: %w", gameID, err)
	}
	return res, err
}

func (r *postgresResultRepository) Upsert(ctx context.Context, exec SQLExecutor, result *models.GameResult) error {
	if result.ProtocolState == "" {
		result.ProtocolState = models.ProtocolPublished
	}
	query := `
		INSERT INTO game_results (game_id, home_score, away_score, home_penalty, away_penalty, status, protocol_state, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (game_id) DO UPDATE SET
			home_score     = EXCLUDED.home_score,
			away_score     = EXCLUDED.away_score,
			home_penalty   = EXCLUDED.home_penalty,
			away_penalty   = EXCLUDED.away_penalty,
			status         = EXCLUDED.status,
			protocol_state = EXCLUDED.protocol_state,
			updated_at     = now()
		RETURNING id, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		result.GameID, result.HomeScore, result.AwayScore, result.HomePenalty, result.AwayPenalty,
		result.Status, result.ProtocolState,
	).Scan(&result.ID, &result.UpdatedAt)
	if err != nil {
		switch pqCode(err) {
		case pqForeignKeyViolation:
			return fmt.Errorf("upsert result of game %d: %w", result.GameID, ErrInvalidReference)
		case pqCheckViolation:
			return fmt.Errorf("upsert result of game %d: %w", result.GameID, ErrResultInvalid)
		}
		return fmt.Errorf("failed to upsert result of game %d: %w", result.GameID, err)
	}
	return nil
}

func (r *postgresResultRepository) ListPublishedByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.GameResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM game_results r
		JOIN games g ON g.id = r.game_id
		WHERE g.tournament_id = $1 AND r.status = 'published'
		ORDER BY r.game_id`
	return r.list(ctx, exec, query, tournamentID)
}

func (r *postgresResultRepository) ListInterrupted(ctx context.Context, exec SQLExecutor) ([]models.GameResult, error) {
	query := `SELECT ` + resultColumns + ` FROM game_results r WHERE r.protocol_state <> 'published' ORDER BY r.game_id`
	return r.list(ctx, exec, query)
}

func (r *postgresResultRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.GameResult, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list game results: %w", err)
	}
	defer rows.Close()

	results := make([]models.GameResult, 0)
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game result row: %w", err)
		}
		results = append(results, *res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game result rows: %w", err)
	}
	return results, nil
}
