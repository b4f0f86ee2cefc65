package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/pkg/metrics"
)

// memTable is one entity's rows, kept in insertion order so List is stable.
type memTable[T any, P any] struct {
	entity   string
	mu       sync.RWMutex
	rows     map[string]T
	order    map[string]uint64
	next     uint64
	id       func(T) string
	field    func(T, string) string
	apply    func(*T, P)
	validate func(T) []FieldError
	// strip runs on every stored copy, e.g. to drop a TierList's Slots.
	strip func(T) T
}

func (t *memTable[T, P]) prepare(v T) T {
	if t.strip != nil {
		return t.strip(v)
	}
	return v
}

func (t *memTable[T, P]) Get(ctx context.Context, id string) (Outcome[T], error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(t.entity, msSince(start)) }()
	if err := ctx.Err(); err != nil {
		return Outcome[T]{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Outcome[T]{}, ErrNotFound
	}
	return Outcome[T]{Data: v}, nil
}

func (t *memTable[T, P]) List(ctx context.Context, f Filter) (Outcome[[]T], error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(t.entity, msSince(start)) }()
	if err := ctx.Err(); err != nil {
		return Outcome[[]T]{}, err
	}
	if errs := CheckFilter(t.entity, f); len(errs) > 0 {
		return Outcome[[]T]{Errors: errs}, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.rows))
	for _, v := range t.rows {
		if t.matches(v, f) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return t.order[t.id(out[i])] < t.order[t.id(out[j])] })
	return Outcome[[]T]{Data: out}, nil
}

func (t *memTable[T, P]) matches(v T, f Filter) bool {
	for k, want := range f {
		if t.field(v, k) != want {
			return false
		}
	}
	return true
}

func (t *memTable[T, P]) Create(ctx context.Context, item T) (Outcome[T], error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(t.entity, msSince(start)) }()
	if err := ctx.Err(); err != nil {
		return Outcome[T]{}, err
	}
	if errs := t.validate(item); len(errs) > 0 {
		return Outcome[T]{Errors: errs}, nil
	}

	item = t.prepare(item)
	id := t.id(item)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; ok {
		return Outcome[T]{Errors: []FieldError{{Field: "id", Message: "already exists"}}}, nil
	}
	t.next++
	t.rows[id] = item
	t.order[id] = t.next
	return Outcome[T]{Data: item}, nil
}

func (t *memTable[T, P]) Update(ctx context.Context, id string, patch P) (Outcome[T], error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(t.entity, msSince(start)) }()
	if err := ctx.Err(); err != nil {
		return Outcome[T]{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Outcome[T]{}, ErrNotFound
	}
	t.apply(&v, patch)
	if errs := t.validate(v); len(errs) > 0 {
		return Outcome[T]{Errors: errs}, nil
	}
	t.rows[id] = v
	return Outcome[T]{Data: v}, nil
}

func (t *memTable[T, P]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	delete(t.order, id)
	return nil
}

func (t *memTable[T, P]) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func newTable[T any, P any](entity string, id func(T) string, field func(T, string) string, apply func(*T, P), validate func(T) []FieldError) *memTable[T, P] {
	return &memTable[T, P]{
		entity:   entity,
		rows:     make(map[string]T),
		order:    make(map[string]uint64),
		id:       id,
		field:    field,
		apply:    apply,
		validate: validate,
	}
}

// MemoryStore is the in-process Store. Every table has its own lock, so a
// batch of Slot writes never blocks rivalry reads.
type MemoryStore struct {
	games     *memTable[model.Game, model.GamePatch]
	fighters  *memTable[model.Fighter, model.FighterPatch]
	tierLists *memTable[model.TierList, model.TierListPatch]
	slots     *memTable[model.Slot, model.SlotPatch]
	rivalries *memTable[model.Rivalry, model.RivalryPatch]
	contests  *memTable[model.Contest, model.ContestPatch]

	metricsUpdateInterval time.Duration

	wg        sync.WaitGroup
	stopChan  chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore constructs an in-memory store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.games = newTable(EntityGames,
		func(g model.Game) string { return g.ID },
		func(model.Game, string) string { return "" },
		func(g *model.Game, p model.GamePatch) {
			if p.Name != nil {
				g.Name = *p.Name
			}
		},
		ValidateGame)
	s.fighters = newTable(EntityFighters,
		func(f model.Fighter) string { return f.ID },
		func(f model.Fighter, k string) string {
			if k == "game_id" {
				return f.GameID
			}
			return ""
		},
		func(f *model.Fighter, p model.FighterPatch) {
			if p.Name != nil {
				f.Name = *p.Name
			}
		},
		ValidateFighter)
	s.tierLists = newTable(EntityTierLists,
		func(tl model.TierList) string { return tl.ID },
		func(tl model.TierList, k string) string {
			switch k {
			case "rivalry_id":
				return tl.RivalryID
			case "game_id":
				return tl.GameID
			case "participant_id":
				return tl.ParticipantID
			}
			return ""
		},
		func(tl *model.TierList, p model.TierListPatch) {
			if p.Standing != nil {
				tl.Standing = *p.Standing
			}
		},
		ValidateTierList)
	s.tierLists.strip = func(tl model.TierList) model.TierList {
		return model.TierList{ID: tl.ID, RivalryID: tl.RivalryID, GameID: tl.GameID, ParticipantID: tl.ParticipantID, Standing: tl.Standing}
	}
	s.slots = newTable(EntitySlots,
		func(sl model.Slot) string { return sl.ID },
		func(sl model.Slot, k string) string {
			switch k {
			case "tier_list_id":
				return sl.TierListID
			case "fighter_id":
				return sl.FighterID
			}
			return ""
		},
		func(sl *model.Slot, p model.SlotPatch) { p.Apply(sl) },
		ValidateSlot)
	s.rivalries = newTable(EntityRivalries,
		func(r model.Rivalry) string { return r.ID },
		func(r model.Rivalry, k string) string {
			switch k {
			case "game_id":
				return r.GameID
			case "participant_a_id":
				return r.ParticipantAID
			case "participant_b_id":
				return r.ParticipantBID
			}
			return ""
		},
		func(r *model.Rivalry, p model.RivalryPatch) {
			if p.CurrentContestID != nil {
				r.CurrentContestID = *p.CurrentContestID
			}
			if p.ContestCount != nil {
				r.ContestCount = *p.ContestCount
			}
		},
		ValidateRivalry)
	s.contests = newTable(EntityContests,
		func(c model.Contest) string { return c.ID },
		func(c model.Contest, k string) string {
			if k == "rivalry_id" {
				return c.RivalryID
			}
			return ""
		},
		func(c *model.Contest, p model.ContestPatch) { p.Apply(c) },
		ValidateContest)

	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemoryStore) Games() Repository[model.Game, model.GamePatch] { return s.games }

func (s *MemoryStore) Fighters() Repository[model.Fighter, model.FighterPatch] {
	return s.fighters
}

func (s *MemoryStore) TierLists() Repository[model.TierList, model.TierListPatch] {
	return s.tierLists
}

func (s *MemoryStore) Slots() Repository[model.Slot, model.SlotPatch] { return s.slots }

func (s *MemoryStore) Rivalries() Repository[model.Rivalry, model.RivalryPatch] {
	return s.rivalries
}

func (s *MemoryStore) Contests() Repository[model.Contest, model.ContestPatch] {
	return s.contests
}

// Roster returns the fighters of gameID ordered by roster ordinal.
func (s *MemoryStore) Roster(ctx context.Context, gameID string) ([]model.Fighter, error) {
	out, err := s.fighters.List(ctx, Filter{"game_id": gameID})
	if err != nil {
		return nil, err
	}
	roster := out.Data
	sort.SliceStable(roster, func(i, j int) bool { return roster[i].RosterOrdinal < roster[j].RosterOrdinal })
	return roster, nil
}

// ResolvedContests pages through a rivalry's resolved contests, newest first.
func (s *MemoryStore) ResolvedContests(ctx context.Context, rivalryID string, page Page) (HistoryPage, error) {
	offset, err := DecodeCursor(page.Cursor)
	if err != nil {
		return HistoryPage{}, err
	}
	if err := ctx.Err(); err != nil {
		return HistoryPage{}, err
	}

	t := s.contests
	t.mu.RLock()
	all := make([]model.Contest, 0)
	for _, c := range t.rows {
		if c.RivalryID == rivalryID && c.Resolved {
			all = append(all, c)
		}
	}
	order := make(map[string]uint64, len(all))
	for _, c := range all {
		order[c.ID] = t.order[c.ID]
	}
	t.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return order[all[i].ID] > order[all[j].ID]
	})
	return paginate(all, offset, page.Size), nil
}

func paginate(all []model.Contest, offset, size int) HistoryPage {
	if offset >= len(all) {
		return HistoryPage{}
	}
	if size <= 0 {
		return HistoryPage{Contests: all[offset:]}
	}
	end := offset + size
	if end >= len(all) {
		return HistoryPage{Contests: all[offset:]}
	}
	return HistoryPage{Contests: all[offset:end], Next: EncodeCursor(end)}
}

// IncrementFighterStats adds to a fighter's global counters under the table lock.
func (s *MemoryStore) IncrementFighterStats(ctx context.Context, fighterID string, contests, wins int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.fighters
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.rows[fighterID]
	if !ok {
		return ErrNotFound
	}
	f.ContestCount += contests
	f.WinCount += wins
	t.rows[fighterID] = f
	return nil
}

// startMetricsUpdater publishes record counts at the configured interval.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishCounts()
			}
		}
	}()
}

func (s *MemoryStore) publishCounts() {
	metrics.UpdateRepositoryRecords(EntityGames, s.games.count())
	metrics.UpdateRepositoryRecords(EntityFighters, s.fighters.count())
	metrics.UpdateRepositoryRecords(EntityTierLists, s.tierLists.count())
	metrics.UpdateRepositoryRecords(EntitySlots, s.slots.count())
	metrics.UpdateRepositoryRecords(EntityRivalries, s.rivalries.count())
	metrics.UpdateRepositoryRecords(EntityContests, s.contests.count())
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

var _ Store = (*MemoryStore)(nil)
