package models

import "time"

// TournamentStatus mirrors the tournaments.status enum.
type TournamentStatus string

const (
	StatusSoon      TournamentStatus = "soon"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

// ScoringConfig holds the point values a tournament awards. The engine never
// decides them, it only applies them.
type ScoringConfig struct {
	ExactScorePoints      int `json:"exact_score_points" db:"exact_score_points"`
	CorrectOutcomePoints  int `json:"correct_outcome_points" db:"correct_outcome_points"`
	SilverBoostMultiplier int `json:"silver_boost_multiplier" db:"silver_boost_multiplier"`
	GoldenBoostMultiplier int `json:"golden_boost_multiplier" db:"golden_boost_multiplier"`
	GroupPositionPoints   int `json:"group_position_points" db:"group_position_points"`
	QualifiedTeamPoints   int `json:"qualified_team_points" db:"qualified_team_points"`
}

// Tournament представляет турнир с его конфигурацией очков.
type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Status    TournamentStatus `json:"status" db:"status"`
	Scoring   ScoringConfig    `json:"scoring" db:"-"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// UserTournament identifies one materialized aggregate row.
type UserTournament struct {
	UserID       int `json:"user_id"`
	TournamentID int `json:"tournament_id"`
}
