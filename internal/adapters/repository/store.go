// Package repository defines the persistence contracts of the rivalry
// service and an in-memory implementation. The postgres subpackage provides
// the durable one.
package repository

import (
	"context"

	"github.com/okian/rivalry/internal/domain/model"
)

// FieldError describes one rejected field of a write.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Outcome is the result of a repository call that reached the store: either
// Data is valid, or Errors explains which fields were rejected. I/O failures
// are returned as a separate error instead.
type Outcome[T any] struct {
	Data   T
	Errors []FieldError
}

// OK reports whether the outcome carries data.
func (o Outcome[T]) OK() bool { return len(o.Errors) == 0 }

// Filter selects rows by equality on indexed fields such as game_id,
// rivalry_id or tier_list_id.
type Filter map[string]string

// Repository is the generic record store for one entity.
type Repository[T any, P any] interface {
	// Get returns ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (Outcome[T], error)
	List(ctx context.Context, f Filter) (Outcome[[]T], error)
	Create(ctx context.Context, item T) (Outcome[T], error)
	// Update applies the non-nil fields of patch. It returns ErrNotFound when id is unknown.
	Update(ctx context.Context, id string, patch P) (Outcome[T], error)
	Delete(ctx context.Context, id string) error
}

// Page requests one page of a paginated read.
type Page struct {
	Size   int
	Cursor string
}

// HistoryPage is one page of resolved contests. Next is empty on the last page.
type HistoryPage struct {
	Contests []model.Contest
	Next     string
}

// RosterReader reads a game's authoritative fighter roster ordered by roster ordinal.
type RosterReader interface {
	Roster(ctx context.Context, gameID string) ([]model.Fighter, error)
}

// HistoryReader reads a rivalry's resolved contests newest first.
type HistoryReader interface {
	ResolvedContests(ctx context.Context, rivalryID string, page Page) (HistoryPage, error)
}

// FighterStats updates the global fighter counters atomically.
type FighterStats interface {
	IncrementFighterStats(ctx context.Context, fighterID string, contests, wins int) error
}

// Store bundles every repository the service needs.
type Store interface {
	Games() Repository[model.Game, model.GamePatch]
	Fighters() Repository[model.Fighter, model.FighterPatch]
	// TierLists stores TierList headers; Slots live in the Slots repository.
	TierLists() Repository[model.TierList, model.TierListPatch]
	Slots() Repository[model.Slot, model.SlotPatch]
	Rivalries() Repository[model.Rivalry, model.RivalryPatch]
	Contests() Repository[model.Contest, model.ContestPatch]

	RosterReader
	HistoryReader
	FighterStats

	Close() error
}

// Entity names used for metrics and errors.
const (
	EntityGames     = "games"
	EntityFighters  = "fighters"
	EntityTierLists = "tier_lists"
	EntitySlots     = "slots"
	EntityRivalries = "rivalries"
	EntityContests  = "contests"
)
