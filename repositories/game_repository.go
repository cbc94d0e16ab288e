package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

var (
	ErrGameNotFound        = errors.New("game not found")
	ErrBracketGameNotFound = errors.New("bracket game not found")
)

type GameRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Game, error)
	ListBracketGames(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.BracketGame, error)
	// AssignTeams writes resolved bracket teams. Nil clears a slot.
	AssignTeams(ctx context.Context, exec SQLExecutor, gameID int, assignment models.SlotAssignment) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `id, tournament_id, kind, group_letter, home_team_id, away_team_id, game_date`

func scanGame(row rowScanner) (*models.Game, error) {
	var (
		g           models.Game
		groupLetter sql.NullString
		home, away  sql.NullInt64
	)
	if err := row.Scan(&g.ID, &g.TournamentID, &g.Kind, &groupLetter, &home, &away, &g.GameDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	g.GroupLetter = nullStringPtr(groupLetter)
	g.HomeTeamID = nullIntPtr(home)
	g.AwayTeamID = nullIntPtr(away)
	return &g, nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	g, err := scanGame(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrGameNotFound) {
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return g, err
}

func (r *postgresGameRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE tournament_id = $1 ORDER BY game_date, id`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, *g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game rows: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) ListBracketGames(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.BracketGame, error) {
	query := `
		SELECT b.game_id, b.round,
		       b.home_group, b.home_position, b.home_winner_of, b.home_loser_of,
		       b.away_group, b.away_position, b.away_winner_of, b.away_loser_of,
		       g.home_team_id, g.away_team_id
		FROM bracket_games b
		JOIN games g ON g.id = b.game_id
		WHERE g.tournament_id = $1
		ORDER BY b.round, b.game_id`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bracket games for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	games := make([]models.BracketGame, 0)
	for rows.Next() {
		var (
			bg         models.BracketGame
			homeRule   nullableRule
			awayRule   nullableRule
			home, away sql.NullInt64
		)
		err := rows.Scan(&bg.GameID, &bg.Round,
			&homeRule.group, &homeRule.position, &homeRule.winnerOf, &homeRule.loserOf,
			&awayRule.group, &awayRule.position, &awayRule.winnerOf, &awayRule.loserOf,
			&home, &away,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bracket game row: %w", err)
		}
		bg.HomeRule = homeRule.rule()
		bg.AwayRule = awayRule.rule()
		bg.HomeTeamID = nullIntPtr(home)
		bg.AwayTeamID = nullIntPtr(away)
		games = append(games, bg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bracket game rows: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) AssignTeams(ctx context.Context, exec SQLExecutor, gameID int, assignment models.SlotAssignment) error {
	query := `UPDATE games SET home_team_id = $1, away_team_id = $2 WHERE id = $3 AND kind = 'bracket'`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, assignment.HomeTeamID, assignment.AwayTeamID, gameID)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return fmt.Errorf("assign teams to game %d: %w", gameID, ErrInvalidReference)
		}
		return fmt.Errorf("failed to assign teams to game %d: %w", gameID, err)
	}
	return checkAffectedRows(result, ErrBracketGameNotFound)
}

// nullableRule is the column form of one side of a bracket game.
type nullableRule struct {
	group    sql.NullString
	position sql.NullInt64
	winnerOf sql.NullInt64
	loserOf  sql.NullInt64
}

func (n nullableRule) rule() models.SlotRule {
	return models.SlotRule{
		Group:    n.group.String,
		Position: int(n.position.Int64),
		WinnerOf: nullIntPtr(n.winnerOf),
		LoserOf:  nullIntPtr(n.loserOf),
	}
}
