package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/prediction-pool/models"
)

var (
	ErrGroupNotFound = errors.New("group not found")
)

type GroupRepository interface {
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Group, error)
	GetByLetter(ctx context.Context, exec SQLExecutor, tournamentID int, letter string) (*models.Group, error)
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const groupColumns = `id, tournament_id, letter, team_ids, tie_break_mode, legs`

func scanGroup(row rowScanner) (*models.Group, error) {
	var (
		g     models.Group
		teams pq.Int64Array
	)
	if err := row.Scan(&g.ID, &g.TournamentID, &g.Letter, &teams, &g.TieBreakMode, &g.Legs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	g.TeamIDs = fromInt64Array(teams)
	return &g, nil
}

func (r *postgresGroupRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM tournament_groups WHERE tournament_id = $1 ORDER BY letter`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	groups := make([]models.Group, 0, 8)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, *g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}
	return groups, nil
}

func (r *postgresGroupRepository) GetByLetter(ctx context.Context, exec SQLExecutor, tournamentID int, letter string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM tournament_groups WHERE tournament_id = $1 AND letter = $2`
	g, err := scanGroup(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, letter))
	if err != nil && !errors.Is(err, ErrGroupNotFound) {
		return nil, fmt.Errorf("failed to get group %s of tournament %d: %w", letter, tournamentID, err)
	}
	return g, err
}
