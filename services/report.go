package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/prediction-pool/models"
)

// Recalculation triggers recorded on reports.
const (
	TriggerResultUpdate = "result_update"
	TriggerResume       = "resume"
	TriggerGames        = "games"
	TriggerTournament   = "tournament"
	TriggerCleanup      = "cleanup"
)

// GameFailure records a game whose guesses could not be scored.
type GameFailure struct {
	GameID int    `json:"game_id"`
	Error  string `json:"error"`
}

// RecalculationReport lists what one pipeline run changed.
type RecalculationReport struct {
	Trigger      string                  `json:"trigger"`
	StartedAt    time.Time               `json:"started_at"`
	FinishedAt   time.Time               `json:"finished_at"`
	Updated      []models.GameGuess      `json:"updated"`
	Cleaned      []models.GameGuess      `json:"cleaned"`
	Failures     []GameFailure           `json:"failures,omitempty"`
	Materialized []models.UserTournament `json:"materialized"`
}

func newReport(trigger string) *RecalculationReport {
	return &RecalculationReport{Trigger: trigger, StartedAt: time.Now().UTC()}
}

// AffectedPairs returns the users whose totals may have changed: those with a
// rescored guess and those with a cleaned guess.
func (r *RecalculationReport) AffectedPairs() []models.UserTournament {
	return pairsOf(r.Updated, r.Cleaned)
}

// Failed reports whether gameID could not be scored.
func (r *RecalculationReport) Failed(gameID int) bool {
	for _, f := range r.Failures {
		if f.GameID == gameID {
			return true
		}
	}
	return false
}

func (r *RecalculationReport) empty() bool {
	return len(r.Updated) == 0 && len(r.Cleaned) == 0 && len(r.Failures) == 0 && len(r.Materialized) == 0
}

func (r *RecalculationReport) addMaterialized(pairs []models.UserTournament) {
	seen := make(map[models.UserTournament]bool, len(r.Materialized))
	for _, p := range r.Materialized {
		seen[p] = true
	}
	for _, p := range pairs {
		if !seen[p] {
			seen[p] = true
			r.Materialized = append(r.Materialized, p)
		}
	}
	sortPairs(r.Materialized)
}

func (r *RecalculationReport) tournaments() []int {
	var ids []int
	for _, p := range r.Materialized {
		if len(ids) == 0 || ids[len(ids)-1] != p.TournamentID {
			ids = append(ids, p.TournamentID)
		}
	}
	return ids
}

// archiveKey names the report in the archive, ordered by start time.
func (r *RecalculationReport) archiveKey() string {
	return fmt.Sprintf("%s/%s-%s.json", r.StartedAt.Format("2006/01/02"), r.StartedAt.Format("150405.000000000"), r.Trigger)
}

func sortGuesses(guesses []models.GameGuess) {
	sort.Slice(guesses, func(i, j int) bool { return guesses[i].ID < guesses[j].ID })
}
