package models

import "time"

// BoostType is the boost a user attaches to a guess before kickoff.
type BoostType string

const (
	BoostNone   BoostType = "none"
	BoostSilver BoostType = "silver"
	BoostGolden BoostType = "golden"
)

// GameGuess is a user's predicted score for one game. Score, FinalScore and
// BoostMultiplier are written by the scoring pipeline; nil means not scored.
type GameGuess struct {
	ID              int       `json:"id" db:"id"`
	GameID          int       `json:"game_id" db:"game_id"`
	UserID          int       `json:"user_id" db:"user_id"`
	TournamentID    int       `json:"tournament_id" db:"tournament_id"`
	HomeScore       *int      `json:"home_score,omitempty" db:"home_score"`
	AwayScore       *int      `json:"away_score,omitempty" db:"away_score"`
	BoostType       BoostType `json:"boost_type" db:"boost_type"`
	Score           *int      `json:"score,omitempty" db:"score"`
	FinalScore      *int      `json:"final_score,omitempty" db:"final_score"`
	BoostMultiplier *int      `json:"boost_multiplier,omitempty" db:"boost_multiplier"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Outcome converts the guess into a GameOutcome between the given teams.
func (g GameGuess) Outcome(homeTeamID, awayTeamID int) GameOutcome {
	return GameOutcome{
		GameID:     g.GameID,
		HomeTeamID: homeTeamID,
		AwayTeamID: awayTeamID,
		HomeScore:  g.HomeScore,
		AwayScore:  g.AwayScore,
	}
}

// TournamentScore is the materialized per-user-per-tournament aggregate.
type TournamentScore struct {
	UserID              int       `json:"user_id" db:"user_id"`
	TournamentID        int       `json:"tournament_id" db:"tournament_id"`
	GamePoints          int       `json:"game_points" db:"game_points"`
	BoostBonus          int       `json:"boost_bonus" db:"boost_bonus"`
	ExactScoreCount     int       `json:"exact_score_count" db:"exact_score_count"`
	CorrectOutcomeCount int       `json:"correct_outcome_count" db:"correct_outcome_count"`
	GroupPoints         int       `json:"group_points" db:"group_points"`
	QualificationPoints int       `json:"qualification_points" db:"qualification_points"`
	Total               int       `json:"total" db:"total"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`

	// Rank is filled by leaderboard reads only. Users level on Total share a rank.
	Rank int `json:"rank,omitempty" db:"-"`
}
