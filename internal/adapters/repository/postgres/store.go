// Package postgres is the durable repository.Store, built on bun over pgdriver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/okian/rivalry/internal/adapters/repository"
	"github.com/okian/rivalry/internal/domain/model"
)

// Store implements repository.Store against PostgreSQL.
type Store struct {
	db *bun.DB

	games     *table[model.Game, model.GamePatch, gameRow]
	fighters  *table[model.Fighter, model.FighterPatch, fighterRow]
	tierLists *table[model.TierList, model.TierListPatch, tierListRow]
	slots     *table[model.Slot, model.SlotPatch, slotRow]
	rivalries *table[model.Rivalry, model.RivalryPatch, rivalryRow]
	contests  *table[model.Contest, model.ContestPatch, contestRow]
}

// Connect opens a pooled bun.DB for dsn and checks it is reachable.
func Connect(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// Open connects to dsn and returns a Store. Run the migrations first.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps an existing bun.DB.
func New(db *bun.DB) *Store {
	return &Store{
		db: db,
		games: &table[model.Game, model.GamePatch, gameRow]{
			db: db, entity: repository.EntityGames,
			toRow: gameToRow, fromRow: gameFromRow,
			apply: func(g *model.Game, p model.GamePatch) {
				if p.Name != nil {
					g.Name = *p.Name
				}
			},
			validate: repository.ValidateGame,
		},
		fighters: &table[model.Fighter, model.FighterPatch, fighterRow]{
			db: db, entity: repository.EntityFighters,
			toRow: fighterToRow, fromRow: fighterFromRow,
			apply: func(f *model.Fighter, p model.FighterPatch) {
				if p.Name != nil {
					f.Name = *p.Name
				}
			},
			validate: repository.ValidateFighter,
		},
		tierLists: &table[model.TierList, model.TierListPatch, tierListRow]{
			db: db, entity: repository.EntityTierLists,
			toRow: tierListToRow, fromRow: tierListFromRow,
			apply: func(tl *model.TierList, p model.TierListPatch) {
				if p.Standing != nil {
					tl.Standing = *p.Standing
				}
			},
			validate: repository.ValidateTierList,
		},
		slots: &table[model.Slot, model.SlotPatch, slotRow]{
			db: db, entity: repository.EntitySlots,
			toRow: slotToRow, fromRow: slotFromRow,
			apply:    func(s *model.Slot, p model.SlotPatch) { p.Apply(s) },
			validate: repository.ValidateSlot,
		},
		rivalries: &table[model.Rivalry, model.RivalryPatch, rivalryRow]{
			db: db, entity: repository.EntityRivalries,
			toRow: rivalryToRow, fromRow: rivalryFromRow,
			apply: func(r *model.Rivalry, p model.RivalryPatch) {
				if p.CurrentContestID != nil {
					r.CurrentContestID = *p.CurrentContestID
				}
				if p.ContestCount != nil {
					r.ContestCount = *p.ContestCount
				}
			},
			validate: repository.ValidateRivalry,
		},
		contests: &table[model.Contest, model.ContestPatch, contestRow]{
			db: db, entity: repository.EntityContests,
			toRow: contestToRow, fromRow: contestFromRow,
			apply:    func(c *model.Contest, p model.ContestPatch) { p.Apply(c) },
			validate: repository.ValidateContest,
		},
	}
}

// DB exposes the underlying connection pool, e.g. for the migrator.
func (s *Store) DB() *bun.DB { return s.db }

func (s *Store) Games() repository.Repository[model.Game, model.GamePatch] { return s.games }

func (s *Store) Fighters() repository.Repository[model.Fighter, model.FighterPatch] {
	return s.fighters
}

func (s *Store) TierLists() repository.Repository[model.TierList, model.TierListPatch] {
	return s.tierLists
}

func (s *Store) Slots() repository.Repository[model.Slot, model.SlotPatch] { return s.slots }

func (s *Store) Rivalries() repository.Repository[model.Rivalry, model.RivalryPatch] {
	return s.rivalries
}

func (s *Store) Contests() repository.Repository[model.Contest, model.ContestPatch] {
	return s.contests
}

// Roster returns the fighters of gameID ordered by roster ordinal.
func (s *Store) Roster(ctx context.Context, gameID string) ([]model.Fighter, error) {
	var rows []fighterRow
	err := s.db.NewSelect().Model(&rows).
		Where("game_id = ?", gameID).
		Order("roster_ordinal ASC", "seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	out := make([]model.Fighter, len(rows))
	for i := range rows {
		out[i] = fighterFromRow(&rows[i])
	}
	return out, nil
}

// ResolvedContests pages through a rivalry's resolved contests, newest first.
func (s *Store) ResolvedContests(ctx context.Context, rivalryID string, page repository.Page) (repository.HistoryPage, error) {
	offset, err := repository.DecodeCursor(page.Cursor)
	if err != nil {
		return repository.HistoryPage{}, err
	}

	var rows []contestRow
	q := s.db.NewSelect().Model(&rows).
		Where("rivalry_id = ?", rivalryID).
		Where("resolved").
		Order("created_at DESC", "seq DESC").
		Offset(offset)
	if page.Size > 0 {
		// One extra row tells us whether another page exists.
		q = q.Limit(page.Size + 1)
	}
	if err := q.Scan(ctx); err != nil {
		return repository.HistoryPage{}, fmt.Errorf("resolved contests: %w", err)
	}

	var hp repository.HistoryPage
	if page.Size > 0 && len(rows) > page.Size {
		rows = rows[:page.Size]
		hp.Next = repository.EncodeCursor(offset + page.Size)
	}
	hp.Contests = make([]model.Contest, len(rows))
	for i := range rows {
		hp.Contests[i] = contestFromRow(&rows[i])
	}
	return hp, nil
}

// IncrementFighterStats adds to a fighter's counters in a single UPDATE.
func (s *Store) IncrementFighterStats(ctx context.Context, fighterID string, contests, wins int) error {
	res, err := s.db.NewUpdate().Model((*fighterRow)(nil)).
		Set("contest_count = contest_count + ?", contests).
		Set("win_count = win_count + ?", wins).
		Where("id = ?", fighterID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("increment fighter stats: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

var _ repository.Store = (*Store)(nil)
