package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/prediction-pool/brackets"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/repositories"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory stand-in for the postgres repositories.
type memStore struct {
	mu          sync.Mutex
	tournaments map[int]models.Tournament
	groups      []models.Group
	games       map[int]models.Game
	bracket     []models.BracketGame
	results     map[int]models.GameResult
	guesses     map[int]models.GameGuess
	positions   []models.GroupPositionGuess
	scores      map[models.UserTournament]models.TournamentScore

	// failState makes the next result upsert into that protocol state fail once.
	failState models.ProtocolState
	// failGuessesOf makes ListByGame fail for these games.
	failGuessesOf map[int]bool
	// afterWrite runs under the lock after every write.
	afterWrite func(s *memStore)

	protocolLog  []models.ProtocolState
	resultWrites int
}

func newMemStore() *memStore {
	return &memStore{
		tournaments:   map[int]models.Tournament{},
		games:         map[int]models.Game{},
		results:       map[int]models.GameResult{},
		guesses:       map[int]models.GameGuess{},
		scores:        map[models.UserTournament]models.TournamentScore{},
		failGuessesOf: map[int]bool{},
	}
}

func (m *memStore) repos() Repositories {
	return Repositories{
		Tx:          fakeTx{},
		Tournaments: fakeTournaments{m},
		Groups:      fakeGroups{m},
		Games:       fakeGames{m},
		Results:     fakeResults{m},
		Guesses:     fakeGuesses{m},
		Positions:   fakePositions{m},
		Scores:      fakeScores{m},
	}
}

func (m *memStore) wrote() {
	if m.afterWrite != nil {
		m.afterWrite(m)
	}
}

func (m *memStore) guess(id int) models.GameGuess {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.guesses[id]
}

func (m *memStore) result(gameID int) models.GameResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[gameID]
}

func (m *memStore) score(userID, tournamentID int) (models.TournamentScore, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scores[models.UserTournament{UserID: userID, TournamentID: tournamentID}]
	return s, ok
}

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeTournaments struct{ *memStore }

func (f fakeTournaments) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (f fakeTournaments) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Tournament
	for _, t := range f.tournaments {
		if filter.Status == nil || t.Status == *filter.Status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeGroups struct{ *memStore }

func (f fakeGroups) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Group
	for _, g := range f.groups {
		if g.TournamentID == tournamentID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f fakeGroups) GetByLetter(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, letter string) (*models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.TournamentID == tournamentID && g.Letter == letter {
			return &g, nil
		}
	}
	return nil, repositories.ErrGroupNotFound
}

type fakeGames struct{ *memStore }

func (f fakeGames) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	return &g, nil
}

func (f fakeGames) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Game
	for _, g := range f.games {
		if g.TournamentID == tournamentID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeGames) ListBracketGames(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.BracketGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BracketGame
	for _, bg := range f.bracket {
		if g := f.games[bg.GameID]; g.TournamentID == tournamentID {
			bg.HomeTeamID, bg.AwayTeamID = g.HomeTeamID, g.AwayTeamID
			out = append(out, bg)
		}
	}
	return out, nil
}

func (f fakeGames) AssignTeams(ctx context.Context, exec repositories.SQLExecutor, gameID int, a models.SlotAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[gameID]
	if !ok || g.Kind != models.GameKindBracket {
		return repositories.ErrBracketGameNotFound
	}
	g.HomeTeamID, g.AwayTeamID = a.HomeTeamID, a.AwayTeamID
	f.games[gameID] = g
	return nil
}

type fakeResults struct{ *memStore }

func (f fakeResults) GetByGameID(ctx context.Context, exec repositories.SQLExecutor, gameID int) (*models.GameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.results[gameID]
	if !ok {
		return nil, repositories.ErrResultNotFound
	}
	return &r, nil
}

func (f fakeResults) Upsert(ctx context.Context, exec repositories.SQLExecutor, result *models.GameResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failState != "" && result.ProtocolState == f.failState {
		f.failState = ""
		return errInjected
	}
	if result.ProtocolState == "" {
		result.ProtocolState = models.ProtocolPublished
	}
	if existing, ok := f.results[result.GameID]; ok {
		result.ID = existing.ID
	} else {
		result.ID = len(f.results) + 1
	}
	result.UpdatedAt = time.Now()
	f.results[result.GameID] = *result
	f.resultWrites++
	f.protocolLog = append(f.protocolLog, result.ProtocolState)
	f.wrote()
	return nil
}

func (f fakeResults) ListPublishedByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.GameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GameResult
	for gameID, r := range f.results {
		if f.games[gameID].TournamentID == tournamentID && r.Status == models.ResultPublished {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

func (f fakeResults) ListInterrupted(ctx context.Context, exec repositories.SQLExecutor) ([]models.GameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GameResult
	for _, r := range f.results {
		if r.InProtocol() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out, nil
}

type fakeGuesses struct{ *memStore }

func (f fakeGuesses) sorted(keep func(models.GameGuess) bool) []models.GameGuess {
	out := []models.GameGuess{}
	for _, g := range f.guesses {
		if keep(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f fakeGuesses) ListByGame(ctx context.Context, exec repositories.SQLExecutor, gameID int) ([]models.GameGuess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGuessesOf[gameID] {
		return nil, fmt.Errorf("guesses of game %d: %w", gameID, errInjected)
	}
	return f.sorted(func(g models.GameGuess) bool { return g.GameID == gameID }), nil
}

func (f fakeGuesses) ListByUserAndTournament(ctx context.Context, exec repositories.SQLExecutor, userID, tournamentID int) ([]models.GameGuess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(g models.GameGuess) bool { return g.UserID == userID && g.TournamentID == tournamentID }), nil
}

func (f fakeGuesses) ListUsersByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[int]bool{}
	for _, g := range f.guesses {
		if g.TournamentID == tournamentID {
			seen[g.UserID] = true
		}
	}
	for _, p := range f.positions {
		if p.TournamentID == tournamentID {
			seen[p.UserID] = true
		}
	}
	var ids []int
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (f fakeGuesses) UpdateScores(ctx context.Context, exec repositories.SQLExecutor, guesses []models.GameGuess) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range guesses {
		stored, ok := f.guesses[g.ID]
		if !ok {
			return repositories.ErrInvalidReference
		}
		stored.Score, stored.FinalScore, stored.BoostMultiplier = g.Score, g.FinalScore, g.BoostMultiplier
		f.guesses[g.ID] = stored
	}
	f.wrote()
	return nil
}

func (f fakeGuesses) ClearScoresForDraftResults(ctx context.Context, exec repositories.SQLExecutor) ([]models.GameGuess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cleaned := f.sorted(func(g models.GameGuess) bool {
		r, ok := f.results[g.GameID]
		scored := g.Score != nil || g.FinalScore != nil || g.BoostMultiplier != nil
		return ok && r.Status == models.ResultDraft && scored
	})
	for i := range cleaned {
		cleaned[i].Score, cleaned[i].FinalScore, cleaned[i].BoostMultiplier = nil, nil, nil
		f.guesses[cleaned[i].ID] = cleaned[i]
	}
	f.wrote()
	return cleaned, nil
}

type fakePositions struct{ *memStore }

func (f fakePositions) ListByUserAndTournament(ctx context.Context, exec repositories.SQLExecutor, userID, tournamentID int) ([]models.GroupPositionGuess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GroupPositionGuess
	for _, p := range f.positions {
		if p.UserID == userID && p.TournamentID == tournamentID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeScores struct{ *memStore }

func (f fakeScores) Upsert(ctx context.Context, exec repositories.SQLExecutor, score *models.TournamentScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	score.UpdatedAt = time.Now()
	f.scores[models.UserTournament{UserID: score.UserID, TournamentID: score.TournamentID}] = *score
	return nil
}

func (f fakeScores) GetByUserAndTournament(ctx context.Context, exec repositories.SQLExecutor, userID, tournamentID int) (*models.TournamentScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scores[models.UserTournament{UserID: userID, TournamentID: tournamentID}]
	if !ok {
		return nil, repositories.ErrTournamentScoreNotFound
	}
	return &s, nil
}

func (f fakeScores) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID, limit, offset int) ([]models.TournamentScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.TournamentScore
	for _, s := range f.scores {
		if s.TournamentID == tournamentID {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Total != all[j].Total {
			return all[i].Total > all[j].Total
		}
		return all[i].UserID < all[j].UserID
	})
	for i := range all {
		all[i].Rank = i + 1
		if i > 0 && all[i].Total == all[i-1].Total {
			all[i].Rank = all[i-1].Rank
		}
	}
	if offset >= len(all) {
		return []models.TournamentScore{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

type publishedMessage struct {
	TournamentID int
	Type         string
	Payload      interface{}
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *fakePublisher) Publish(tournamentID int, msgType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{TournamentID: tournamentID, Type: msgType, Payload: payload})
}

func (p *fakePublisher) ofType(msgType string) []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedMessage
	for _, m := range p.messages {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

type fakeArchiver struct {
	mu   sync.Mutex
	keys []string
}

func (a *fakeArchiver) Archive(ctx context.Context, key string, report interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, key)
	return nil
}

type fixture struct {
	store     *memStore
	publisher *fakePublisher
	archiver  *fakeArchiver
	standings StandingsService
	scores    ScoreService
}

func newFixture(store *memStore) *fixture {
	f := &fixture{store: store, publisher: &fakePublisher{}, archiver: &fakeArchiver{}}
	resolver := brackets.NewResolver(nil)
	f.standings = NewStandingsService(store.repos(), nil, f.publisher, nil)
	f.scores = NewScoreService(store.repos(), resolver, f.standings, f.publisher, f.archiver, ScoreServiceConfig{Workers: 3}, nil)
	return f
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
