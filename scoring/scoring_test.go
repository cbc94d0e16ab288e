package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/prediction-pool/models"
)

var cfg = models.ScoringConfig{
	ExactScorePoints:      5,
	CorrectOutcomePoints:  2,
	SilverBoostMultiplier: 2,
	GoldenBoostMultiplier: 3,
	GroupPositionPoints:   1,
	QualifiedTeamPoints:   4,
}

func intPtr(v int) *int { return &v }

func guess(home, away int, boost models.BoostType) models.GameGuess {
	return models.GameGuess{GameID: 1, UserID: 7, TournamentID: 3, HomeScore: intPtr(home), AwayScore: intPtr(away), BoostType: boost}
}

func TestGuessPoints(t *testing.T) {
	result := models.GameResult{GameID: 1, HomeScore: 2, AwayScore: 1, Status: models.ResultPublished}

	tests := []struct {
		name  string
		guess models.GameGuess
		want  GuessScore
	}{
		{name: "exact", guess: guess(2, 1, models.BoostNone), want: GuessScore{Hit: HitExact, Base: 5, Multiplier: 1, Final: 5}},
		{name: "outcome", guess: guess(1, 0, models.BoostNone), want: GuessScore{Hit: HitOutcome, Base: 2, Multiplier: 1, Final: 2}},
		{name: "miss", guess: guess(0, 0, models.BoostNone), want: GuessScore{Hit: HitMiss, Base: 0, Multiplier: 1, Final: 0}},
		{name: "silver exact", guess: guess(2, 1, models.BoostSilver), want: GuessScore{Hit: HitExact, Base: 5, Multiplier: 2, Final: 10}},
		{name: "golden outcome", guess: guess(3, 0, models.BoostGolden), want: GuessScore{Hit: HitOutcome, Base: 2, Multiplier: 3, Final: 6}},
		{name: "golden miss", guess: guess(0, 1, models.BoostGolden), want: GuessScore{Hit: HitMiss, Base: 0, Multiplier: 3, Final: 0}},
		{name: "no prediction", guess: models.GameGuess{GameID: 1}, want: GuessScore{Hit: HitMiss, Multiplier: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GuessPoints(cfg, tt.guess, result))
		})
	}
}

func TestGuessPointsIgnoresPenalties(t *testing.T) {
	result := models.GameResult{HomeScore: 1, AwayScore: 1, HomePenalty: intPtr(5), AwayPenalty: intPtr(4)}

	assert.Equal(t, HitExact, GuessPoints(cfg, guess(1, 1, models.BoostNone), result).Hit)
	assert.Equal(t, HitMiss, GuessPoints(cfg, guess(1, 0, models.BoostNone), result).Hit)
}

func TestMultiplierDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, Multiplier(models.ScoringConfig{}, models.BoostGolden))
	assert.Equal(t, 1, Multiplier(cfg, models.BoostType("unknown")))
	assert.Equal(t, 2, Multiplier(cfg, models.BoostSilver))
}

func TestApply(t *testing.T) {
	g := guess(2, 1, models.BoostSilver)
	Apply(&g, GuessScore{Hit: HitExact, Base: 5, Multiplier: 2, Final: 10})

	assert.Equal(t, 5, *g.Score)
	assert.Equal(t, 10, *g.FinalScore)
	assert.Equal(t, 2, *g.BoostMultiplier)
}

func TestGroupPositionPoints(t *testing.T) {
	complete := []models.TeamStats{{TeamID: 1, IsComplete: true}, {TeamID: 2, IsComplete: true}, {TeamID: 3, IsComplete: true}, {TeamID: 4, IsComplete: true}}

	assert.Equal(t, 2, GroupPositionPoints(cfg, complete, []int{1, 2, 4, 3}))
	assert.Equal(t, 4, GroupPositionPoints(cfg, complete, []int{1, 2, 3, 4}))
	assert.Equal(t, 1, GroupPositionPoints(cfg, complete, []int{1}))

	incomplete := append([]models.TeamStats(nil), complete...)
	incomplete[3].IsComplete = false
	assert.Zero(t, GroupPositionPoints(cfg, incomplete, []int{1, 2, 3, 4}))
	assert.Zero(t, GroupPositionPoints(cfg, nil, []int{1}))
}

func TestQualifiedTeamPoints(t *testing.T) {
	assignments := map[int]models.SlotAssignment{
		37: {HomeTeamID: intPtr(11), AwayTeamID: intPtr(22)},
		38: {HomeTeamID: intPtr(33), AwayTeamID: nil},
		51: {HomeTeamID: intPtr(11), AwayTeamID: intPtr(33)},
	}
	actual := QualifiedTeams(assignments, []int{37, 38})
	assert.Equal(t, []int{11, 22, 33}, actual)

	assert.Equal(t, 8, QualifiedTeamPoints(cfg, actual, []int{22, 33, 44, 33}))
	assert.Zero(t, QualifiedTeamPoints(cfg, nil, []int{22}))
}

func TestAggregate(t *testing.T) {
	user := models.UserTournament{UserID: 7, TournamentID: 3}
	guesses := []models.GameGuess{
		{GameID: 1, UserID: 7, TournamentID: 3, HomeScore: intPtr(2), AwayScore: intPtr(1), BoostType: models.BoostGolden},
		{GameID: 2, UserID: 7, TournamentID: 3, HomeScore: intPtr(0), AwayScore: intPtr(1)},
		{GameID: 3, UserID: 7, TournamentID: 3, HomeScore: intPtr(0), AwayScore: intPtr(0)},
		{GameID: 4, UserID: 7, TournamentID: 3, HomeScore: intPtr(4), AwayScore: intPtr(0)},
		{GameID: 1, UserID: 8, TournamentID: 3, HomeScore: intPtr(2), AwayScore: intPtr(1)},
	}
	results := map[int]models.GameResult{
		1: {GameID: 1, HomeScore: 2, AwayScore: 1, Status: models.ResultPublished},
		2: {GameID: 2, HomeScore: 1, AwayScore: 3, Status: models.ResultPublished},
		3: {GameID: 3, HomeScore: 1, AwayScore: 0, Status: models.ResultPublished},
		4: {GameID: 4, HomeScore: 4, AwayScore: 0, Status: models.ResultDraft},
	}

	score := Aggregate(user, cfg, guesses, results, 3, 8)

	assert.Equal(t, models.TournamentScore{
		UserID:              7,
		TournamentID:        3,
		GamePoints:          7,
		BoostBonus:          10,
		ExactScoreCount:     1,
		CorrectOutcomeCount: 1,
		GroupPoints:         3,
		QualificationPoints: 8,
		Total:               28,
	}, score)
	assert.Equal(t, score, Aggregate(user, cfg, guesses, results, 3, 8))
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeHomeWin, OutcomeOf(1, 0))
	assert.Equal(t, OutcomeDraw, OutcomeOf(2, 2))
	assert.Equal(t, OutcomeAwayWin, OutcomeOf(0, 3))
}
