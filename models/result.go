package models

import "time"

// ResultStatus separates preview results from those that count.
type ResultStatus string

const (
	ResultDraft     ResultStatus = "draft"
	ResultPublished ResultStatus = "published"
)

// ProtocolState tracks the amend protocol of a published result. A result at rest is
// always ProtocolPublished (or a plain draft); any other value means an amendment was
// interrupted and can be resumed.
type ProtocolState string

const (
	ProtocolPublished           ProtocolState = "published"
	ProtocolDraftPendingCleanup ProtocolState = "draft_pending_cleanup"
	ProtocolCleanedUp           ProtocolState = "cleaned_up"
	ProtocolRepublishedPending  ProtocolState = "republished_pending"
)

// GameResult is the real result of a game.
type GameResult struct {
	ID            int           `json:"id" db:"id"`
	GameID        int           `json:"game_id" db:"game_id"`
	HomeScore     int           `json:"home_score" db:"home_score"`
	AwayScore     int           `json:"away_score" db:"away_score"`
	HomePenalty   *int          `json:"home_penalty,omitempty" db:"home_penalty"`
	AwayPenalty   *int          `json:"away_penalty,omitempty" db:"away_penalty"`
	Status        ResultStatus  `json:"status" db:"status"`
	ProtocolState ProtocolState `json:"protocol_state" db:"protocol_state"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// InProtocol reports whether an amendment of r was started and not finished.
func (r GameResult) InProtocol() bool {
	return r.ProtocolState != "" && r.ProtocolState != ProtocolPublished
}

// SameScores reports whether r carries the same score line as other.
func (r GameResult) SameScores(other GameResult) bool {
	return r.HomeScore == other.HomeScore && r.AwayScore == other.AwayScore &&
		equalIntPtr(r.HomePenalty, other.HomePenalty) && equalIntPtr(r.AwayPenalty, other.AwayPenalty)
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ResultUpdate is an admin edit of a game result.
type ResultUpdate struct {
	GameID      int          `json:"game_id"`
	HomeScore   int          `json:"home_score"`
	AwayScore   int          `json:"away_score"`
	HomePenalty *int         `json:"home_penalty,omitempty"`
	AwayPenalty *int         `json:"away_penalty,omitempty"`
	Status      ResultStatus `json:"status"`
}
