// Package standings ranks the teams of one round-robin group.
package standings

import (
	"sort"

	"github.com/Dosada05/prediction-pool/models"
)

const (
	pointsForWin  = 3
	pointsForDraw = 1

	// goalDifferenceOffset keeps the goal difference term of the composite key
	// positive. Differences beyond +-499 or 1000+ goals scored are not supported.
	goalDifferenceOffset = 500

	// MaxTieDepth bounds the carve-out recursion used for three-way ties.
	MaxTieDepth = 1
)

// Input describes one group ranking request.
type Input struct {
	TeamIDs []int
	Games   []models.GameOutcome
	Mode    models.TieBreakMode
	// ExpectedGames is the full fixture count of the group. Zero means len(Games).
	ExpectedGames int
}

// CompositeKey encodes points, goal difference and goals scored into one integer
// where points dominate goal difference which dominates goals scored.
func CompositeKey(s models.TeamStats) int {
	return s.Points*1_000_000 + (s.GoalDifference+goalDifferenceOffset)*1000 + s.GoalsFor
}

// Rank returns the teams of in.TeamIDs ordered from first to last place. The order
// is strict: every team appears exactly once. It never mutates its input.
func Rank(in Input) []models.TeamStats {
	return rank(in, 0)
}

func rank(in Input, depth int) []models.TeamStats {
	decided := decidedGames(in.Games)
	expected := in.ExpectedGames
	if expected == 0 {
		expected = len(in.Games)
	}
	complete := expected > 0 && len(decided) == expected

	table := accumulate(in.TeamIDs, decided, complete)

	mode := in.Mode
	if mode != models.TieBreakByGamesBetween {
		mode = models.TieBreakByOverallStats
	}

	if mode == models.TieBreakByGamesBetween && len(table) > 1 && allPointsEqual(table) {
		mode = models.TieBreakByOverallStats
	}

	key := keyFunc(mode)
	sort.SliceStable(table, func(i, j int) bool {
		return key(table[i]) > key(table[j])
	})

	if depth < MaxTieDepth && len(table) == 4 {
		if start, ok := threeWayTie(table, key); ok {
			resolveThreeWay(table, start, decided, depth)
			return table
		}
	}

	resolvePairs(table, decided, mode, key)
	return table
}

func decidedGames(games []models.GameOutcome) []models.GameOutcome {
	decided := make([]models.GameOutcome, 0, len(games))
	for _, g := range games {
		if g.Decided() {
			decided = append(decided, g)
		}
	}
	return decided
}

func accumulate(teamIDs []int, decided []models.GameOutcome, complete bool) []models.TeamStats {
	table := make([]models.TeamStats, len(teamIDs))
	index := make(map[int]int, len(teamIDs))
	for i, id := range teamIDs {
		table[i] = models.TeamStats{TeamID: id, IsComplete: complete}
		index[id] = i
	}

	for _, g := range decided {
		home, homeOK := index[g.HomeTeamID]
		away, awayOK := index[g.AwayTeamID]
		if !homeOK && !awayOK {
			continue
		}
		if homeOK {
			addGame(&table[home], *g.HomeScore, *g.AwayScore)
		}
		if awayOK {
			addGame(&table[away], *g.AwayScore, *g.HomeScore)
		}
	}
	return table
}

func addGame(s *models.TeamStats, scored, conceded int) {
	s.GamesPlayed++
	s.GoalsFor += scored
	s.GoalsAgainst += conceded
	s.GoalDifference = s.GoalsFor - s.GoalsAgainst
	switch {
	case scored > conceded:
		s.Win++
		s.Points += pointsForWin
	case scored == conceded:
		s.Draw++
		s.Points += pointsForDraw
	default:
		s.Loss++
	}
}

func keyFunc(mode models.TieBreakMode) func(models.TeamStats) int {
	if mode == models.TieBreakByGamesBetween {
		return func(s models.TeamStats) int { return s.Points }
	}
	return CompositeKey
}

func allPointsEqual(table []models.TeamStats) bool {
	for _, s := range table[1:] {
		if s.Points != table[0].Points {
			return false
		}
	}
	return true
}

// threeWayTie finds a block of three mutually level teams at positions 0-2 or 1-3.
func threeWayTie(table []models.TeamStats, key func(models.TeamStats) int) (int, bool) {
	for _, start := range []int{0, 1} {
		a, b, c := key(table[start]), key(table[start+1]), key(table[start+2])
		if a == b && b == c {
			return start, true
		}
	}
	return 0, false
}

// resolveThreeWay ranks the tied block as a mini table of the games played among
// those three teams only and splices the result back in place.
func resolveThreeWay(table []models.TeamStats, start int, decided []models.GameOutcome, depth int) {
	block := make([]models.TeamStats, 3)
	copy(block, table[start:start+3])

	// Overall stats order is the fallback when the mini table cannot separate them.
	sort.SliceStable(block, func(i, j int) bool {
		return CompositeKey(block[i]) > CompositeKey(block[j])
	})

	ids := make([]int, len(block))
	members := make(map[int]bool, len(block))
	byID := make(map[int]models.TeamStats, len(block))
	for i, s := range block {
		ids[i] = s.TeamID
		members[s.TeamID] = true
		byID[s.TeamID] = s
	}

	between := make([]models.GameOutcome, 0, 3)
	for _, g := range decided {
		if members[g.HomeTeamID] && members[g.AwayTeamID] {
			between = append(between, g)
		}
	}

	mini := rank(Input{TeamIDs: ids, Games: between, Mode: models.TieBreakByOverallStats}, depth+1)
	for i, s := range mini {
		table[start+i] = byID[s.TeamID]
	}
}

// resolvePairs makes a single left-to-right pass swapping adjacent level teams when
// the game between them says the lower one is ahead.
func resolvePairs(table []models.TeamStats, decided []models.GameOutcome, mode models.TieBreakMode, key func(models.TeamStats) int) {
	for i := 0; i+1 < len(table); i++ {
		upper, lower := table[i], table[i+1]
		if key(upper) != key(lower) {
			continue
		}
		switch headToHead(upper.TeamID, lower.TeamID, decided) {
		case -1:
			table[i], table[i+1] = lower, upper
		case 0:
			if mode == models.TieBreakByGamesBetween && CompositeKey(lower) > CompositeKey(upper) {
				table[i], table[i+1] = lower, upper
			}
		}
	}
}

// headToHead compares a and b over the decided games between them: 1 when a is
// ahead, -1 when b is, 0 when there is no game or it is level.
func headToHead(a, b int, decided []models.GameOutcome) int {
	var games []models.GameOutcome
	goalsA, goalsB := 0, 0
	for _, g := range decided {
		switch {
		case g.HomeTeamID == a && g.AwayTeamID == b:
			goalsA += *g.HomeScore
			goalsB += *g.AwayScore
		case g.HomeTeamID == b && g.AwayTeamID == a:
			goalsA += *g.AwayScore
			goalsB += *g.HomeScore
		default:
			continue
		}
		games = append(games, g)
	}

	switch {
	case len(games) == 0:
		return 0
	case goalsA > goalsB:
		return 1
	case goalsB > goalsA:
		return -1
	case len(games) == 1:
		if winner, ok := games[0].Winner(); ok {
			if winner == a {
				return 1
			}
			return -1
		}
	}
	return 0
}
