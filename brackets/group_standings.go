package brackets

import (
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/standings"
)

// OfficialStandings ranks every group from its real outcomes. A group is only
// complete once its whole round-robin fixture list is decided.
func OfficialStandings(groups []models.Group, outcomes map[string][]models.GameOutcome) StandingsByGroup {
	table := make(StandingsByGroup, len(groups))
	for _, g := range groups {
		table[g.Letter] = standings.Rank(standings.Input{
			TeamIDs:       g.TeamIDs,
			Games:         outcomes[g.Letter],
			Mode:          g.TieBreakMode,
			ExpectedGames: FixtureCount(len(g.TeamIDs), g.Legs),
		})
	}
	return table
}

// PredictedStandings ranks every group from one user's guesses. Stats come from the
// guessed scores; an explicit position guess for a group overrides the computed
// order. Predictions are complete by construction.
func PredictedStandings(groups []models.Group, games []models.Game, guesses []models.GameGuess, positions []models.GroupPositionGuess) StandingsByGroup {
	guessByGame := make(map[int]models.GameGuess, len(guesses))
	for _, g := range guesses {
		guessByGame[g.GameID] = g
	}
	positionByGroup := make(map[string][]int, len(positions))
	for _, p := range positions {
		positionByGroup[p.GroupLetter] = p.TeamIDs
	}

	outcomes := map[string][]models.GameOutcome{}
	for _, game := range games {
		if game.GroupLetter == nil || game.HomeTeamID == nil || game.AwayTeamID == nil {
			continue
		}
		outcome := models.GameOutcome{GameID: game.ID, HomeTeamID: *game.HomeTeamID, AwayTeamID: *game.AwayTeamID}
		if guess, ok := guessByGame[game.ID]; ok {
			outcome = guess.Outcome(*game.HomeTeamID, *game.AwayTeamID)
		}
		outcomes[*game.GroupLetter] = append(outcomes[*game.GroupLetter], outcome)
	}

	table := make(StandingsByGroup, len(groups))
	for _, g := range groups {
		ranked := standings.Rank(standings.Input{TeamIDs: g.TeamIDs, Games: outcomes[g.Letter], Mode: g.TieBreakMode})
		if order, ok := positionByGroup[g.Letter]; ok {
			ranked = reorder(ranked, order)
		}
		for i := range ranked {
			ranked[i].IsComplete = true
		}
		table[g.Letter] = ranked
	}
	return table
}

// reorder applies order to ranked when order is a permutation of its teams.
func reorder(ranked []models.TeamStats, order []int) []models.TeamStats {
	if len(order) != len(ranked) {
		return ranked
	}
	byID := make(map[int]models.TeamStats, len(ranked))
	for _, s := range ranked {
		byID[s.TeamID] = s
	}
	out := make([]models.TeamStats, 0, len(order))
	for _, id := range order {
		s, ok := byID[id]
		if !ok {
			return ranked
		}
		delete(byID, id)
		out = append(out, s)
	}
	return out
}
