package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

var (
	ErrTournamentScoreNotFound = errors.New("tournament score not found")
)

type TournamentScoreRepository interface {
	// Upsert replaces the materialized row of (score.UserID, score.TournamentID).
	Upsert(ctx context.Context, exec SQLExecutor, score *models.TournamentScore) error
	GetByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (*models.TournamentScore, error)
	// ListByTournament orders rows by total, then exact scores, then user id, and
	// fills Rank over the whole tournament.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID, limit, offset int) ([]models.TournamentScore, error)
}

type postgresTournamentScoreRepository struct {
	db *sql.DB
}

func NewPostgresTournamentScoreRepository(db *sql.DB) TournamentScoreRepository {
	return &postgresTournamentScoreRepository{db: db}
}

func (r *postgresTournamentScoreRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentScoreColumns = `user_id, tournament_id, game_points, boost_bonus, exact_score_count,
	correct_outcome_count, group_points, qualification_points, total, updated_at`

func scanTournamentScore(row rowScanner) (*models.TournamentScore, error) {
	var s models.TournamentScore
	err := row.Scan(&s.UserID, &s.TournamentID, &s.GamePoints, &s.BoostBonus, &s.ExactScoreCount,
		&s.CorrectOutcomeCount, &s.GroupPoints, &s.QualificationPoints, &s.Total, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentScoreNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresTournamentScoreRepository) Upsert(ctx context.Context, exec SQLExecutor, score *models.TournamentScore) error {
	query := `
		INSERT INTO tournament_scores
			(user_id, tournament_id, game_points, boost_bonus, exact_score_count,
			 correct_outcome_count, group_points, qualification_points, total, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (user_id, tournament_id) DO UPDATE SET
			game_points           = EXCLUDED.game_points,
			boost_bonus           = EXCLUDED.boost_bonus,
			exact_score_count     = EXCLUDED.exact_score_count,
			correct_outcome_count = EXCLUDED.correct_outcome_count,
			group_points          = EXCLUDED.group_points,
			qualification_points  = EXCLUDED.qualification_points,
			total                 = EXCLUDED.total,
			updated_at            = now()
		RETURNING updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		score.UserID, score.TournamentID, score.GamePoints, score.BoostBonus, score.ExactScoreCount,
		score.CorrectOutcomeCount, score.GroupPoints, score.QualificationPoints, score.Total,
	).Scan(&score.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return fmt.Errorf("upsert score of user %d: %w", score.UserID, ErrTournamentNotFound)
		}
		return fmt.Errorf("failed to upsert score of user %d in tournament %d: %w", score.UserID, score.TournamentID, err)
	}
	return nil
}

func (r *postgresTournamentScoreRepository) GetByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (*models.TournamentScore, error) {
	query := `SELECT ` + tournamentScoreColumns + ` FROM tournament_scores WHERE user_id = $1 AND tournament_id = $2`
	s, err := scanTournamentScore(r.getExecutor(exec).QueryRowContext(ctx, query, userID, tournamentID))
	if err != nil && !errors.Is(err, ErrTournamentScoreNotFound) {
		return nil, fmt.Errorf("failed to get score of user %d in tournament %d: %w", userID, tournamentID, err)
	}
	return s, err
}

func (r *postgresTournamentScoreRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID, limit, offset int) ([]models.TournamentScore, error) {
	query := `
		SELECT ` + tournamentScoreColumns + `, RANK() OVER (ORDER BY total DESC) AS rank
		FROM tournament_scores
		WHERE tournament_id = $1
		ORDER BY total DESC, exact_score_count DESC, user_id
		LIMIT $2 OFFSET $3`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	scores := make([]models.TournamentScore, 0)
	for rows.Next() {
		var s models.TournamentScore
		err := rows.Scan(&s.UserID, &s.TournamentID, &s.GamePoints, &s.BoostBonus, &s.ExactScoreCount,
			&s.CorrectOutcomeCount, &s.GroupPoints, &s.QualificationPoints, &s.Total, &s.UpdatedAt, &s.Rank)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament score row: %w", err)
		}
		scores = append(scores, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament score rows: %w", err)
	}
	return scores, nil
}
