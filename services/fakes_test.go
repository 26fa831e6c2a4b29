package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/repositories"
)

// In-memory repository doubles for service tests. They ignore the exec
// argument: the fake transaction runner below simply invokes the closure.

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *capturingPublisher) Publish(event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[models.TournamentID]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[models.TournamentID]*models.Tournament)}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tournaments {
		if existing.Slug == t.Slug {
			return repositories.ErrTournamentSlugConflict
		}
		if existing.EventID == t.EventID {
			return repositories.ErrTournamentEventTaken
		}
	}
	r.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id models.TournamentID) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) GetBySlug(ctx context.Context, exec repositories.SQLExecutor, slug string) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tournaments {
		if t.Slug == slug {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeTournamentRepo) UpdateBannerKey(ctx context.Context, exec repositories.SQLExecutor, id models.TournamentID, bannerKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BannerKey = bannerKey
	return nil
}

func (r *fakeTournamentRepo) ListRegistrationToClose(ctx context.Context, exec repositories.SQLExecutor, now time.Time) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0)
	for _, t := range r.tournaments {
		if t.Status != models.StatusRegistrationOpen {
			continue
		}
		if t.RegistrationClosesAt != nil && !t.RegistrationClosesAt.After(now) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeGameProfileRepo struct {
	mu       sync.Mutex
	profiles map[models.GameProfileID]*models.GameProfile
}

func newFakeGameProfileRepo() *fakeGameProfileRepo {
	return &fakeGameProfileRepo{profiles: make(map[models.GameProfileID]*models.GameProfile)}
}

func (r *fakeGameProfileRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.GameProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.Slug == p.Slug {
			return repositories.ErrGameProfileSlugConflict
		}
	}
	r.profiles[p.ID] = p
	return nil
}

func (r *fakeGameProfileRepo) Update(ctx context.Context, exec repositories.SQLExecutor, p *models.GameProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; !ok {
		return repositories.ErrGameProfileNotFound
	}
	r.profiles[p.ID] = p
	return nil
}

func (r *fakeGameProfileRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id models.GameProfileID) (*models.GameProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, repositories.ErrGameProfileNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeGameProfileRepo) GetBySlug(ctx context.Context, exec repositories.SQLExecutor, slug string) (*models.GameProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Slug == slug {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrGameProfileNotFound
}

func (r *fakeGameProfileRepo) List(ctx context.Context, exec repositories.SQLExecutor) ([]*models.GameProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.GameProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[models.ParticipantID]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[models.ParticipantID]*models.Participant)}
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.participants {
		if existing.TournamentID == p.TournamentID && existing.Seed == p.Seed {
			return repositories.ErrParticipantConflict
		}
	}
	r.participants[p.ID] = p
	return nil
}

func (r *fakeParticipantRepo) Update(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[p.ID]; !ok {
		return repositories.ErrParticipantNotFound
	}
	r.participants[p.ID] = p
	return nil
}

func (r *fakeParticipantRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id models.ParticipantID) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeParticipantRepo) FindByUserAndTournament(ctx context.Context, exec repositories.SQLExecutor, userID models.UserID, tournamentID models.TournamentID) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.UserID != nil && *p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) FindByGuestEmail(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID, email string) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.GuestEmail != nil && *p.GuestEmail == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) FindByCancellationToken(ctx context.Context, exec repositories.SQLExecutor, token string) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.CancellationToken != nil && *p.CancellationToken == token {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrCancellationTokenNotFound
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID, status *models.ParticipantStatus) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Participant, 0)
	for _, p := range r.participants {
		if p.TournamentID != tournamentID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seed < out[j].Seed })
	return out, nil
}

func (r *fakeParticipantRepo) ListPlayable(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Participant, 0)
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.Status.Playable() {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seed < out[j].Seed })
	return out, nil
}

func (r *fakeParticipantRepo) CountActive(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && !p.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

func (r *fakeParticipantRepo) NextSeed(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.Seed > max {
			max = p.Seed
		}
	}
	return max + 1, nil
}

type fakeRoundRepo struct {
	mu     sync.Mutex
	rounds map[models.RoundID]*models.Round
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{rounds: make(map[models.RoundID]*models.Round)}
}

func (r *fakeRoundRepo) Create(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rounds {
		if existing.TournamentID == round.TournamentID && existing.RoundNumber == round.RoundNumber {
			return repositories.ErrRoundNumberConflict
		}
	}
	stored := *round
	r.rounds[round.ID] = &stored
	return nil
}

func (r *fakeRoundRepo) Update(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rounds[round.ID]; !ok {
		return repositories.ErrRoundNotFound
	}
	stored := *round
	r.rounds[round.ID] = &stored
	return nil
}

func (r *fakeRoundRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id models.RoundID) (*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	round, ok := r.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	copied := *round
	return &copied, nil
}

func (r *fakeRoundRepo) GetByNumber(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID, number int) (*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, round := range r.rounds {
		if round.TournamentID == tournamentID && round.RoundNumber == number {
			copied := *round
			return &copied, nil
		}
	}
	return nil, repositories.ErrRoundNotFound
}

func (r *fakeRoundRepo) GetCurrent(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID) (*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current *models.Round
	for _, round := range r.rounds {
		if round.TournamentID != tournamentID {
			continue
		}
		if current == nil || round.RoundNumber > current.RoundNumber {
			current = round
		}
	}
	if current == nil {
		return nil, repositories.ErrRoundNotFound
	}
	copied := *current
	return &copied, nil
}

func (r *fakeRoundRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID) ([]*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Round, 0)
	for _, round := range r.rounds {
		if round.TournamentID == tournamentID {
			copied := *round
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoundNumber < out[j].RoundNumber })
	return out, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[models.MatchID]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[models.MatchID]*models.Match)}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *m
	r.matches[m.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) Update(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	stored := *m
	r.matches[m.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id models.MatchID) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByRound(ctx context.Context, exec repositories.SQLExecutor, roundID models.RoundID) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.RoundID == roundID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	return out, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundID != out[j].RoundID {
			return out[i].RoundID < out[j].RoundID
		}
		return out[i].TableNumber < out[j].TableNumber
	})
	return out, nil
}

func (r *fakeMatchRepo) CountUnreportedByRound(ctx context.Context, exec repositories.SQLExecutor, roundID models.RoundID, requireConfirmation bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.matches {
		if m.RoundID != roundID {
			continue
		}
		switch {
		case m.Result == models.ResultPending:
			count++
		case m.IsDisputed:
			count++
		case requireConfirmation && m.Result != models.ResultBye &&
			m.ReportedByParticipantID != nil && m.ConfirmedAt == nil:
			count++
		}
	}
	return count, nil
}

type fakeMatchHistoryRepo struct {
	mu      sync.Mutex
	entries []*models.MatchHistory
}

func newFakeMatchHistoryRepo() *fakeMatchHistoryRepo {
	return &fakeMatchHistoryRepo{}
}

func (r *fakeMatchHistoryRepo) Create(ctx context.Context, exec repositories.SQLExecutor, entry *models.MatchHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *entry
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *fakeMatchHistoryRepo) ListByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID models.MatchID) ([]*models.MatchHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.MatchHistory, 0)
	for _, entry := range r.entries {
		if entry.MatchID == matchID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeStandingRepo struct {
	mu        sync.Mutex
	standings map[models.TournamentID][]*models.Standing
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{standings: make(map[models.TournamentID][]*models.Standing)}
}

func (r *fakeStandingRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.standings, tournamentID)
	return nil
}

func (r *fakeStandingRepo) BatchCreate(ctx context.Context, exec repositories.SQLExecutor, standings []*models.Standing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range standings {
		stored := *s
		r.standings[s.TournamentID] = append(r.standings[s.TournamentID], &stored)
	}
	return nil
}

func (r *fakeStandingRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID) ([]*models.Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.standings[tournamentID]
	out := make([]*models.Standing, 0, len(stored))
	for _, s := range stored {
		copied := *s
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out, nil
}

func (r *fakeStandingRepo) GetByParticipant(ctx context.Context, exec repositories.SQLExecutor, tournamentID models.TournamentID, participantID models.ParticipantID) (*models.Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.standings[tournamentID] {
		if s.ParticipantID == participantID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repositories.ErrStandingNotFound
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[models.UserID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[models.UserID]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, exec repositories.SQLExecutor, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id models.UserID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, exec repositories.SQLExecutor, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}
