package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/prediction-pool/models"
)

type GroupPositionGuessRepository interface {
	ListByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) ([]models.GroupPositionGuess, error)
}

type postgresGroupPositionGuessRepository struct {
	db *sql.DB
}

func NewPostgresGroupPositionGuessRepository(db *sql.DB) GroupPositionGuessRepository {
	return &postgresGroupPositionGuessRepository{db: db}
}

func (r *postgresGroupPositionGuessRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGroupPositionGuessRepository) ListByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) ([]models.GroupPositionGuess, error) {
	query := `
		SELECT id, user_id, tournament_id, group_letter, team_ids
		FROM group_position_guesses
		WHERE user_id = $1 AND tournament_id = $2
		ORDER BY group_letter`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, userID, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group position guesses of user %d: %w", userID, err)
	}
	defer rows.Close()

	guesses := make([]models.GroupPositionGuess, 0)
	for rows.Next() {
		var (
			g     models.GroupPositionGuess
			teams pq.Int64Array
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.TournamentID, &g.GroupLetter, &teams); err != nil {
			return nil, fmt.Errorf("failed to scan group position guess row: %w", err)
		}
		g.TeamIDs = fromInt64Array(teams)
		guesses = append(guesses, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group position guess rows: %w", err)
	}
	return guesses, nil
}
