// Package scoring holds the point rules applied to user guesses.
package scoring

import "github.com/Dosada05/prediction-pool/models"

// Outcome is the winner/draw result of a score line.
type Outcome string

const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeDraw    Outcome = "draw"
	OutcomeAwayWin Outcome = "away_win"
)

// OutcomeOf classifies a regulation score line. Penalties never count here.
func OutcomeOf(home, away int) Outcome {
	switch {
	case home > away:
		return OutcomeHomeWin
	case home < away:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}

// Hit says how a guess matched the real result.
type Hit string

const (
	HitExact   Hit = "exact"
	HitOutcome Hit = "outcome"
	HitMiss    Hit = "miss"
)

// GuessScore is the scored form of one guess.
type GuessScore struct {
	Hit        Hit
	Base       int
	Multiplier int
	Final      int
}

// Multiplier returns the factor a boost applies. Unconfigured boosts count as 1.
func Multiplier(cfg models.ScoringConfig, boost models.BoostType) int {
	var m int
	switch boost {
	case models.BoostSilver:
		m = cfg.SilverBoostMultiplier
	case models.BoostGolden:
		m = cfg.GoldenBoostMultiplier
	}
	if m < 1 {
		return 1
	}
	return m
}

// GuessPoints scores guess against result. A guess without both scores is a miss.
func GuessPoints(cfg models.ScoringConfig, guess models.GameGuess, result models.GameResult) GuessScore {
	gs := GuessScore{Hit: HitMiss, Multiplier: Multiplier(cfg, guess.BoostType)}
	if guess.HomeScore != nil && guess.AwayScore != nil {
		home, away := *guess.HomeScore, *guess.AwayScore
		switch {
		case home == result.HomeScore && away == result.AwayScore:
			gs.Hit, gs.Base = HitExact, cfg.ExactScorePoints
		case OutcomeOf(home, away) == OutcomeOf(result.HomeScore, result.AwayScore):
			gs.Hit, gs.Base = HitOutcome, cfg.CorrectOutcomePoints
		}
	}
	gs.Final = gs.Base * gs.Multiplier
	return gs
}

// Apply stores gs on guess.
func Apply(guess *models.GameGuess, gs GuessScore) {
	base, final, multiplier := gs.Base, gs.Final, gs.Multiplier
	guess.Score = &base
	guess.FinalScore = &final
	guess.BoostMultiplier = &multiplier
}

// GroupPositionPoints awards cfg.GroupPositionPoints for every position predicted
// exactly. Groups that are not complete award nothing.
func GroupPositionPoints(cfg models.ScoringConfig, actual []models.TeamStats, predicted []int) int {
	if len(actual) == 0 {
		return 0
	}
	hits := 0
	for i, s := range actual {
		if !s.IsComplete {
			return 0
		}
		if i < len(predicted) && predicted[i] == s.TeamID {
			hits++
		}
	}
	return hits * cfg.GroupPositionPoints
}

// QualifiedTeams lists the distinct teams assigned to the given bracket games.
func QualifiedTeams(assignments map[int]models.SlotAssignment, gameIDs []int) []int {
	seen := map[int]bool{}
	var teams []int
	for _, id := range gameIDs {
		a := assignments[id]
		for _, team := range []*int{a.HomeTeamID, a.AwayTeamID} {
			if team != nil && !seen[*team] {
				seen[*team] = true
				teams = append(teams, *team)
			}
		}
	}
	return teams
}

// QualifiedTeamPoints awards cfg.QualifiedTeamPoints for every predicted knockout
// team that actually qualified.
func QualifiedTeamPoints(cfg models.ScoringConfig, actual, predicted []int) int {
	qualified := make(map[int]bool, len(actual))
	for _, id := range actual {
		qualified[id] = true
	}
	hits := 0
	for _, id := range predicted {
		if qualified[id] {
			hits++
			delete(qualified, id)
		}
	}
	return hits * cfg.QualifiedTeamPoints
}

// Aggregate recomputes a user's tournament total from raw guesses. Only guesses
// whose game has a published result in results count.
func Aggregate(user models.UserTournament, cfg models.ScoringConfig, guesses []models.GameGuess, results map[int]models.GameResult, groupPoints, qualificationPoints int) models.TournamentScore {
	score := models.TournamentScore{
		UserID:              user.UserID,
		TournamentID:        user.TournamentID,
		GroupPoints:         groupPoints,
		QualificationPoints: qualificationPoints,
	}
	for _, g := range guesses {
		if g.UserID != user.UserID || g.TournamentID != user.TournamentID {
			continue
		}
		result, ok := results[g.GameID]
		if !ok || result.Status != models.ResultPublished {
			continue
		}
		gs := GuessPoints(cfg, g, result)
		score.GamePoints += gs.Base
		score.BoostBonus += gs.Final - gs.Base
		switch gs.Hit {
		case HitExact:
			score.ExactScoreCount++
		case HitOutcome:
			score.CorrectOutcomeCount++
		}
	}
	score.Total = score.GamePoints + score.BoostBonus + score.GroupPoints + score.QualificationPoints
	return score
}
