package brackets

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/standings"
)

var (
	// ErrInvalidConfiguration marks bracket rules or tables that can never resolve.
	// It is a data-authoring defect, not a runtime condition.
	ErrInvalidConfiguration = errors.New("invalid bracket configuration")
	// ErrMissingCrossRule means the cross rule table has no row (or no label) for an
	// observed combination of qualifying third-placed teams.
	ErrMissingCrossRule = fmt.Errorf("%w: missing third place cross rule", ErrInvalidConfiguration)
)

// StandingsByGroup maps a group letter to its ranked table.
type StandingsByGroup map[string][]models.TeamStats

// Resolver assigns teams to bracket slots. It holds no mutable state and is safe
// for concurrent use.
type Resolver struct {
	crossRules ThirdPlaceCrossRuleProvider
}

// NewResolver returns a Resolver using crossRules for position-3 rules. A nil
// provider makes position-3 rules literal group references.
func NewResolver(crossRules ThirdPlaceCrossRuleProvider) *Resolver {
	return &Resolver{crossRules: crossRules}
}

// Resolve assigns teams to every game from group standings only.
func (r *Resolver) Resolve(games []models.BracketGame, table StandingsByGroup) (map[int]models.SlotAssignment, error) {
	return r.ResolveWithResults(games, table, nil)
}

// ResolveWithResults also resolves winner/loser rules from decided knockout games.
// Incomplete data yields nil slots; the only error is a configuration defect.
func (r *Resolver) ResolveWithResults(games []models.BracketGame, table StandingsByGroup, knockout map[int]models.GameOutcome) (map[int]models.SlotAssignment, error) {
	thirds, err := r.thirdPlaceGroups(games, table)
	if err != nil {
		return nil, err
	}

	out := make(map[int]models.SlotAssignment, len(games))
	for _, g := range games {
		out[g.GameID] = models.SlotAssignment{
			HomeTeamID: r.slot(g.HomeRule, table, thirds, knockout),
			AwayTeamID: r.slot(g.AwayRule, table, thirds, knockout),
		}
	}
	return out, nil
}

func (r *Resolver) slot(rule models.SlotRule, table StandingsByGroup, thirds map[string]string, knockout map[int]models.GameOutcome) *int {
	switch {
	case rule.WinnerOf != nil:
		return knockoutTeam(knockout, *rule.WinnerOf, models.GameOutcome.Winner)
	case rule.LoserOf != nil:
		return knockoutTeam(knockout, *rule.LoserOf, models.GameOutcome.Loser)
	}

	letter := rule.Group
	if rule.IsThirdPlace() && r.crossRules != nil {
		concrete, ok := thirds[rule.Group]
		if !ok {
			return nil
		}
		letter = concrete
	}
	return teamAt(table, letter, rule.Position)
}

func knockoutTeam(knockout map[int]models.GameOutcome, gameID int, pick func(models.GameOutcome) (int, bool)) *int {
	outcome, ok := knockout[gameID]
	if !ok {
		return nil
	}
	teamID, ok := pick(outcome)
	if !ok {
		return nil
	}
	return &teamID
}

func teamAt(table StandingsByGroup, letter string, position int) *int {
	ranked, ok := table[letter]
	idx := position - 1
	if !ok || idx < 0 || idx >= len(ranked) || !ranked[idx].IsComplete {
		return nil
	}
	teamID := ranked[idx].TeamID
	return &teamID
}

// thirdPlaceGroups returns label -> concrete group for the position-3 rules, or nil
// while any candidate group is still incomplete.
func (r *Resolver) thirdPlaceGroups(games []models.BracketGame, table StandingsByGroup) (map[string]string, error) {
	if r.crossRules == nil {
		return nil, nil
	}
	labels, candidates := thirdPlaceLabels(games)
	if len(labels) == 0 {
		return nil, nil
	}

	for _, letter := range candidates {
		ranked := table[letter]
		if len(ranked) < 3 || !groupComplete(ranked) {
			return nil, nil
		}
	}

	ranked := RankThirdPlaced(candidates, table)
	if len(ranked) < len(labels) {
		return nil, fmt.Errorf("%w: %d third place slots but only %d candidate groups", ErrInvalidConfiguration, len(labels), len(ranked))
	}
	key := sortedLetters(ranked[:len(labels)])

	row, ok := r.crossRules.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: table %s has no row %s", ErrMissingCrossRule, r.crossRules.Name(), key)
	}
	for _, label := range labels {
		if _, ok := row[label]; !ok {
			return nil, fmt.Errorf("%w: table %s row %s has no label %s", ErrMissingCrossRule, r.crossRules.Name(), key, label)
		}
	}
	return row, nil
}

// RankThirdPlaced orders candidate groups by the overall stats of their third-placed
// team. Equal stats fall back to alphabetical group order. Groups with no third
// place entry are skipped.
func RankThirdPlaced(candidates []string, table StandingsByGroup) []string {
	letters := make([]string, 0, len(candidates))
	for _, letter := range candidates {
		if len(table[letter]) >= 3 {
			letters = append(letters, letter)
		}
	}
	sort.SliceStable(letters, func(i, j int) bool {
		ki, kj := standings.CompositeKey(table[letters[i]][2]), standings.CompositeKey(table[letters[j]][2])
		if ki != kj {
			return ki > kj
		}
		return letters[i] < letters[j]
	})
	return letters
}

// thirdPlaceLabels returns the distinct position-3 labels and the sorted union of
// the group letters they name.
func thirdPlaceLabels(games []models.BracketGame) (labels, candidates []string) {
	seenLabel := map[string]bool{}
	seenLetter := map[string]bool{}
	for _, g := range games {
		for _, rule := range []models.SlotRule{g.HomeRule, g.AwayRule} {
			if !rule.IsThirdPlace() || seenLabel[rule.Group] {
				continue
			}
			seenLabel[rule.Group] = true
			labels = append(labels, rule.Group)
			for _, c := range rule.Group {
				if letter := string(c); !seenLetter[letter] {
					seenLetter[letter] = true
					candidates = append(candidates, letter)
				}
			}
		}
	}
	sort.Strings(labels)
	sort.Strings(candidates)
	return labels, candidates
}

func groupComplete(ranked []models.TeamStats) bool {
	for _, s := range ranked {
		if !s.IsComplete {
			return false
		}
	}
	return true
}

// ValidateConfiguration reports every defect in a bracket setup: unknown groups,
// impossible positions, dangling game references and cross rule tables that do not
// cover each combination of qualifying groups with a one-to-one mapping.
func ValidateConfiguration(games []models.BracketGame, groups []models.Group, crossRules ThirdPlaceCrossRuleProvider) error {
	sizes := make(map[string]int, len(groups))
	for _, g := range groups {
		sizes[g.Letter] = len(g.TeamIDs)
	}
	gameIDs := make(map[int]bool, len(games))
	for _, g := range games {
		gameIDs[g.GameID] = true
	}

	var errs []error
	for _, g := range games {
		for _, rule := range []models.SlotRule{g.HomeRule, g.AwayRule} {
			if err := validateRule(g.GameID, rule, sizes, gameIDs, crossRules != nil); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if crossRules != nil {
		labels, candidates := thirdPlaceLabels(games)
		if len(labels) > 0 {
			errs = append(errs, validateCrossRules(crossRules, labels, candidates)...)
		}
	}
	return errors.Join(errs...)
}

func validateRule(gameID int, rule models.SlotRule, sizes map[string]int, gameIDs map[int]bool, labelled bool) error {
	switch {
	case rule.WinnerOf != nil:
		if !gameIDs[*rule.WinnerOf] || *rule.WinnerOf == gameID {
			return fmt.Errorf("%w: game %d takes the winner of unknown game %d", ErrInvalidConfiguration, gameID, *rule.WinnerOf)
		}
		return nil
	case rule.LoserOf != nil:
		if !gameIDs[*rule.LoserOf] || *rule.LoserOf == gameID {
			return fmt.Errorf("%w: game %d takes the loser of unknown game %d", ErrInvalidConfiguration, gameID, *rule.LoserOf)
		}
		return nil
	}

	if rule.Position < 1 {
		return fmt.Errorf("%w: game %d has position %d", ErrInvalidConfiguration, gameID, rule.Position)
	}
	letters := []string{rule.Group}
	if rule.IsThirdPlace() && labelled {
		letters = strings.Split(rule.Group, "")
	}
	for _, letter := range letters {
		size, ok := sizes[letter]
		if !ok {
			return fmt.Errorf("%w: game %d references unknown group %q", ErrInvalidConfiguration, gameID, letter)
		}
		if rule.Position > size {
			return fmt.Errorf("%w: game %d references position %d of group %s with %d teams", ErrInvalidConfiguration, gameID, rule.Position, letter, size)
		}
	}
	return nil
}

func validateCrossRules(crossRules ThirdPlaceCrossRuleProvider, labels, candidates []string) []error {
	if len(labels) > len(candidates) {
		return []error{fmt.Errorf("%w: %d third place slots but only %d candidate groups", ErrInvalidConfiguration, len(labels), len(candidates))}
	}

	var errs []error
	for _, combo := range combinations(candidates, len(labels)) {
		key := strings.Join(combo, "")
		row, ok := crossRules.Lookup(key)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: table %s has no row %s", ErrMissingCrossRule, crossRules.Name(), key))
			continue
		}
		used := map[string]string{}
		for _, label := range labels {
			letter, ok := row[label]
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("%w: table %s row %s has no label %s", ErrMissingCrossRule, crossRules.Name(), key, label))
				continue
			case !strings.Contains(label, letter) || !strings.Contains(key, letter):
				errs = append(errs, fmt.Errorf("%w: table %s row %s maps %s to group %s", ErrInvalidConfiguration, crossRules.Name(), key, label, letter))
			case used[letter] != "":
				errs = append(errs, fmt.Errorf("%w: table %s row %s maps %s and %s to group %s", ErrInvalidConfiguration, crossRules.Name(), key, used[letter], label, letter))
			}
			used[letter] = label
		}
	}
	return errs
}

// combinations returns every k-element subset of sorted letters, each sorted.
func combinations(letters []string, k int) [][]string {
	var out [][]string
	var walk func(start int, picked []string)
	walk = func(start int, picked []string) {
		if len(picked) == k {
			out = append(out, append([]string(nil), picked...))
			return
		}
		for i := start; i < len(letters); i++ {
			walk(i+1, append(picked, letters[i]))
		}
	}
	walk(0, nil)
	return out
}
