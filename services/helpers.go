package services

import (
	"errors"
	"sort"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
)

// mapRepositoryError translates storage sentinels into service sentinels.
func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrGroupNotFound):
		return ErrGroupNotFound
	case errors.Is(err, repositories.ErrGameNotFound), errors.Is(err, repositories.ErrBracketGameNotFound):
		return ErrGameNotFound
	case errors.Is(err, repositories.ErrResultNotFound):
		return ErrResultNotFound
	case errors.Is(err, repositories.ErrTournamentScoreNotFound):
		return ErrNotFound
	case errors.Is(err, repositories.ErrResultInvalid):
		return ErrValidationFailed
	}
	return err
}

func teamIDs(table []models.TeamStats) []int {
	ids := make([]int, len(table))
	for i, s := range table {
		ids[i] = s.TeamID
	}
	return ids
}

// pairsOf returns the distinct (user, tournament) pairs of guesses, sorted.
func pairsOf(guesses ...[]models.GameGuess) []models.UserTournament {
	seen := map[models.UserTournament]bool{}
	var pairs []models.UserTournament
	for _, list := range guesses {
		for _, g := range list {
			p := models.UserTournament{UserID: g.UserID, TournamentID: g.TournamentID}
			if !seen[p] {
				seen[p] = true
				pairs = append(pairs, p)
			}
		}
	}
	sortPairs(pairs)
	return pairs
}

func sortPairs(pairs []models.UserTournament) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].TournamentID != pairs[j].TournamentID {
			return pairs[i].TournamentID < pairs[j].TournamentID
		}
		return pairs[i].UserID < pairs[j].UserID
	})
}

func uniqueInts(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

type noopPublisher struct{}

func (noopPublisher) Publish(int, string, interface{}) {}
