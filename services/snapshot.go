package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/prediction-pool/brackets"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
)

// Repositories bundles the stores the services read and write.
type Repositories struct {
	Tx          repositories.TxRunner
	Tournaments repositories.TournamentRepository
	Groups      repositories.GroupRepository
	Games       repositories.GameRepository
	Results     repositories.ResultRepository
	Guesses     repositories.GuessRepository
	Positions   repositories.GroupPositionGuessRepository
	Scores      repositories.TournamentScoreRepository
}

// tournamentSnapshot is everything needed to rank groups and resolve the bracket of
// one tournament at a single point in time.
type tournamentSnapshot struct {
	tournament   *models.Tournament
	groups       []models.Group
	games        []models.Game
	bracketGames []models.BracketGame
	published    map[int]models.GameResult
	official     brackets.StandingsByGroup
}

func loadSnapshot(ctx context.Context, repos Repositories, tournamentID int) (*tournamentSnapshot, error) {
	snap := &tournamentSnapshot{}
	var results []models.GameResult

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := repos.Tournaments.GetByID(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to fetch tournament %d: %w", tournamentID, mapRepositoryError(err))
		}
		snap.tournament = t
		return nil
	})
	g.Go(func() error {
		groups, err := repos.Groups.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to fetch groups of tournament %d: %w", tournamentID, err)
		}
		snap.groups = groups
		return nil
	})
	g.Go(func() error {
		games, err := repos.Games.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to fetch games of tournament %d: %w", tournamentID, err)
		}
		snap.games = games
		return nil
	})
	g.Go(func() error {
		bracketGames, err := repos.Games.ListBracketGames(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to fetch bracket of tournament %d: %w", tournamentID, err)
		}
		snap.bracketGames = bracketGames
		return nil
	})
	g.Go(func() error {
		published, err := repos.Results.ListPublishedByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to fetch results of tournament %d: %w", tournamentID, err)
		}
		results = published
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.published = make(map[int]models.GameResult, len(results))
	for _, r := range results {
		snap.published[r.GameID] = r
	}
	snap.official = brackets.OfficialStandings(snap.groups, snap.groupOutcomes())
	return snap, nil
}

func (s *tournamentSnapshot) outcome(game models.Game) (models.GameOutcome, bool) {
	if game.HomeTeamID == nil || game.AwayTeamID == nil {
		return models.GameOutcome{}, false
	}
	o := models.GameOutcome{GameID: game.ID, HomeTeamID: *game.HomeTeamID, AwayTeamID: *game.AwayTeamID}
	if r, ok := s.published[game.ID]; ok {
		home, away := r.HomeScore, r.AwayScore
		o.HomeScore, o.AwayScore = &home, &away
		o.HomePenalty, o.AwayPenalty = r.HomePenalty, r.AwayPenalty
	}
	return o, true
}

// groupOutcomes lists every scheduled group fixture, decided or not, per letter.
func (s *tournamentSnapshot) groupOutcomes() map[string][]models.GameOutcome {
	out := map[string][]models.GameOutcome{}
	for _, game := range s.games {
		if game.Kind != models.GameKindGroup || game.GroupLetter == nil {
			continue
		}
		if o, ok := s.outcome(game); ok {
			out[*game.GroupLetter] = append(out[*game.GroupLetter], o)
		}
	}
	return out
}

// knockoutOutcomes returns the decided bracket games with both teams known.
func (s *tournamentSnapshot) knockoutOutcomes() map[int]models.GameOutcome {
	out := map[int]models.GameOutcome{}
	for _, game := range s.games {
		if game.Kind != models.GameKindBracket {
			continue
		}
		if o, ok := s.outcome(game); ok && o.Decided() {
			out[game.ID] = o
		}
	}
	return out
}

func (s *tournamentSnapshot) group(letter string) (models.Group, bool) {
	for _, g := range s.groups {
		if g.Letter == letter {
			return g, true
		}
	}
	return models.Group{}, false
}

func (s *tournamentSnapshot) officialBracket(resolver *brackets.Resolver) (map[int]models.SlotAssignment, error) {
	return resolver.ResolveWithResults(s.bracketGames, s.official, s.knockoutOutcomes())
}

// firstRound returns the ids of the earliest bracket round, the games qualified
// teams enter.
func (s *tournamentSnapshot) firstRound() []int {
	if len(s.bracketGames) == 0 {
		return nil
	}
	first := s.bracketGames[0].Round
	for _, bg := range s.bracketGames {
		if bg.Round < first {
			first = bg.Round
		}
	}
	var ids []int
	for _, bg := range s.bracketGames {
		if bg.Round == first {
			ids = append(ids, bg.GameID)
		}
	}
	return ids
}

// predictedStandings ranks the groups a user actually predicted: either by an
// explicit position guess or by a guessed score for every group fixture.
func (s *tournamentSnapshot) predictedStandings(guesses []models.GameGuess, positions []models.GroupPositionGuess) brackets.StandingsByGroup {
	table := brackets.PredictedStandings(s.groups, s.games, guesses, positions)

	explicit := map[string]bool{}
	for _, p := range positions {
		explicit[p.GroupLetter] = true
	}
	guessed := map[int]bool{}
	for _, g := range guesses {
		if g.HomeScore != nil && g.AwayScore != nil {
			guessed[g.GameID] = true
		}
	}
	fixtures, covered := map[string]int{}, map[string]int{}
	for _, game := range s.games {
		if game.Kind != models.GameKindGroup || game.GroupLetter == nil {
			continue
		}
		fixtures[*game.GroupLetter]++
		if guessed[game.ID] {
			covered[*game.GroupLetter]++
		}
	}

	for letter := range table {
		if explicit[letter] {
			continue
		}
		if fixtures[letter] == 0 || covered[letter] != fixtures[letter] {
			delete(table, letter)
		}
	}
	return table
}

// predictedBracket resolves the bracket from a user's predicted standings. Later
// rounds follow the user's guesses for the knockout games whose teams the
// prediction already fixes.
func (s *tournamentSnapshot) predictedBracket(resolver *brackets.Resolver, table brackets.StandingsByGroup, guesses []models.GameGuess) (map[int]models.SlotAssignment, error) {
	guessByGame := make(map[int]models.GameGuess, len(guesses))
	for _, g := range guesses {
		guessByGame[g.GameID] = g
	}

	knockout := map[int]models.GameOutcome{}
	for {
		slots, err := resolver.ResolveWithResults(s.bracketGames, table, knockout)
		if err != nil {
			return nil, err
		}
		next := map[int]models.GameOutcome{}
		for gameID, a := range slots {
			guess, ok := guessByGame[gameID]
			if !ok || a.HomeTeamID == nil || a.AwayTeamID == nil {
				continue
			}
			if o := guess.Outcome(*a.HomeTeamID, *a.AwayTeamID); o.Decided() {
				next[gameID] = o
			}
		}
		if len(next) == len(knockout) {
			return slots, nil
		}
		knockout = next
	}
}
