package models

// TieBreakMode selects how teams level on points are separated.
type TieBreakMode string

const (
	// TieBreakByOverallStats ranks by points, goal difference, goals scored.
	TieBreakByOverallStats TieBreakMode = "by_overall_stats"
	// TieBreakByGamesBetween ranks by points first and separates level teams by the
	// games played between them.
	TieBreakByGamesBetween TieBreakMode = "by_games_between_tied_teams"
)

// Valid reports whether m is a known mode.
func (m TieBreakMode) Valid() bool {
	return m == TieBreakByOverallStats || m == TieBreakByGamesBetween
}

// Group is one round-robin group of a tournament.
type Group struct {
	ID           int          `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	Letter       string       `json:"letter" db:"letter"`
	TeamIDs      []int        `json:"team_ids" db:"team_ids"`
	TieBreakMode TieBreakMode `json:"tie_break_mode" db:"tie_break_mode"`
	Legs         int          `json:"legs" db:"legs"` // 1 for single round-robin, 2 for double
}

// TeamStats is a ranking snapshot for one team. It is only meaningful relative to
// the game set it was computed from and is never mutated after it is returned.
type TeamStats struct {
	TeamID         int  `json:"team_id"`
	GamesPlayed    int  `json:"games_played"`
	Points         int  `json:"points"`
	Win            int  `json:"win"`
	Draw           int  `json:"draw"`
	Loss           int  `json:"loss"`
	GoalsFor       int  `json:"goals_for"`
	GoalsAgainst   int  `json:"goals_against"`
	GoalDifference int  `json:"goal_difference"`
	IsComplete     bool `json:"is_complete"`
}

// GroupPositionGuess is a user's predicted finishing order for one group.
type GroupPositionGuess struct {
	ID           int    `json:"id" db:"id"`
	UserID       int    `json:"user_id" db:"user_id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	GroupLetter  string `json:"group_letter" db:"group_letter"`
	TeamIDs      []int  `json:"team_ids" db:"team_ids"`
}
