package models

import "time"

// GameOutcome is the score line of one game. A game is decided only when both
// regulation scores are present.
type GameOutcome struct {
	GameID      int  `json:"game_id"`
	HomeTeamID  int  `json:"home_team_id"`
	AwayTeamID  int  `json:"away_team_id"`
	HomeScore   *int `json:"home_score,omitempty"`
	AwayScore   *int `json:"away_score,omitempty"`
	HomePenalty *int `json:"home_penalty,omitempty"`
	AwayPenalty *int `json:"away_penalty,omitempty"`
}

// Decided reports whether both regulation scores are known.
func (o GameOutcome) Decided() bool {
	return o.HomeScore != nil && o.AwayScore != nil
}

// Involves reports whether teamID plays in the game.
func (o GameOutcome) Involves(teamID int) bool {
	return o.HomeTeamID == teamID || o.AwayTeamID == teamID
}

// Winner returns the winning team id. Level regulation scores are settled by
// penalties when both are present; ok is false when no winner can be named.
func (o GameOutcome) Winner() (teamID int, ok bool) {
	if !o.Decided() {
		return 0, false
	}
	h, a := *o.HomeScore, *o.AwayScore
	if h == a && o.HomePenalty != nil && o.AwayPenalty != nil {
		h, a = *o.HomePenalty, *o.AwayPenalty
	}
	switch {
	case h > a:
		return o.HomeTeamID, true
	case a > h:
		return o.AwayTeamID, true
	}
	return 0, false
}

// Loser is the counterpart of Winner.
func (o GameOutcome) Loser() (teamID int, ok bool) {
	w, ok := o.Winner()
	if !ok {
		return 0, false
	}
	if w == o.HomeTeamID {
		return o.AwayTeamID, true
	}
	return o.HomeTeamID, true
}

// GameKind separates group-stage fixtures from knockout games.
type GameKind string

const (
	GameKindGroup   GameKind = "group"
	GameKindBracket GameKind = "bracket"
)

// Game is a scheduled fixture. Team ids are nil for bracket games whose slots are
// not resolved yet.
type Game struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Kind         GameKind  `json:"kind" db:"kind"`
	GroupLetter  *string   `json:"group_letter,omitempty" db:"group_letter"`
	HomeTeamID   *int      `json:"home_team_id,omitempty" db:"home_team_id"`
	AwayTeamID   *int      `json:"away_team_id,omitempty" db:"away_team_id"`
	GameDate     time.Time `json:"game_date" db:"game_date"`
}

// SlotRule declares who plays in one side of a bracket game: either the team in
// Position of group Group, or the winner/loser of another bracket game.
//
// For Position 3 the Group field is a candidate-set label such as "ADEF" (the best
// third-placed team among groups A, D, E and F) that a ThirdPlaceCrossRuleProvider
// maps to one concrete group.
type SlotRule struct {
	Group    string `json:"group,omitempty"`
	Position int    `json:"position,omitempty"` // 1-based
	WinnerOf *int   `json:"winner_of,omitempty"`
	LoserOf  *int   `json:"loser_of,omitempty"`
}

// IsThirdPlace reports whether the rule picks a cross-group third-placed team.
func (r SlotRule) IsThirdPlace() bool {
	return r.WinnerOf == nil && r.LoserOf == nil && r.Position == 3
}

// BracketGame is a knockout game together with its slot rules.
type BracketGame struct {
	GameID     int      `json:"game_id" db:"game_id"`
	Round      int      `json:"round" db:"round"`
	HomeRule   SlotRule `json:"home_rule" db:"home_rule"`
	AwayRule   SlotRule `json:"away_rule" db:"away_rule"`
	HomeTeamID *int     `json:"home_team_id,omitempty" db:"home_team_id"`
	AwayTeamID *int     `json:"away_team_id,omitempty" db:"away_team_id"`
}

// SlotAssignment is the resolved pair of teams for one bracket game. Nil means the
// slot is not known yet.
type SlotAssignment struct {
	HomeTeamID *int `json:"home_team_id"`
	AwayTeamID *int `json:"away_team_id"`
}
