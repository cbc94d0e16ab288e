package brackets

import (
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
)

// FixtureCount is the number of games in a round-robin group of n teams.
// For a single round-robin each team plays every other team once, for a double
// round-robin twice.
func FixtureCount(teams, legs int) int {
	if legs < 1 || legs > 2 {
		legs = 1
	}
	return legs * teams * (teams - 1) / 2
}

// RoundRobinFixtures lists the pairings a group must play, as undecided outcomes.
// The second leg swaps home and away.
func RoundRobinFixtures(group models.Group) []models.GameOutcome {
	legs := group.Legs
	if legs < 1 || legs > 2 {
		legs = 1
	}
	teams := group.TeamIDs
	fixtures := make([]models.GameOutcome, 0, FixtureCount(len(teams), legs))
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			fixtures = append(fixtures, models.GameOutcome{HomeTeamID: teams[i], AwayTeamID: teams[j]})
		}
	}
	if legs == 2 {
		firstLeg := len(fixtures)
		for _, f := range fixtures[:firstLeg] {
			fixtures = append(fixtures, models.GameOutcome{HomeTeamID: f.AwayTeamID, AwayTeamID: f.HomeTeamID})
		}
	}
	return fixtures
}

type pairing struct{ a, b int }

func newPairing(x, y int) pairing {
	if x > y {
		x, y = y, x
	}
	return pairing{a: x, b: y}
}

// ValidateGroupFixtures checks that the scheduled games of a group are exactly its
// round-robin pairings.
func ValidateGroupFixtures(group models.Group, games []models.GameOutcome) error {
	want := map[pairing]int{}
	for _, f := range RoundRobinFixtures(group) {
		want[newPairing(f.HomeTeamID, f.AwayTeamID)]++
	}
	got := map[pairing]int{}
	for _, g := range games {
		p := newPairing(g.HomeTeamID, g.AwayTeamID)
		if _, ok := want[p]; !ok {
			return fmt.Errorf("%w: group %s schedules %d vs %d which is not one of its pairings", ErrInvalidConfiguration, group.Letter, g.HomeTeamID, g.AwayTeamID)
		}
		got[p]++
	}
	for p, n := range want {
		if got[p] != n {
			return fmt.Errorf("%w: group %s schedules %d vs %d %d times, want %d", ErrInvalidConfiguration, group.Letter, p.a, p.b, got[p], n)
		}
	}
	return nil
}
