package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/rivalry/internal/adapters/repository"
	"github.com/okian/rivalry/internal/domain/batch"
	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/pkg/logger"
)

// GameView is a game with its roster.
type GameView struct {
	Game   model.Game      `json:"game"`
	Roster []model.Fighter `json:"roster"`
}

// CreateGame stores a game and its roster. Fighter names keep their order as roster ordinals.
func (s *Service) CreateGame(ctx context.Context, name string, fighters []string) (GameView, error) {
	if err := s.ready(); err != nil {
		return GameView{}, err
	}
	var fieldErrs []repository.FieldError
	if len(fighters) == 0 {
		fieldErrs = append(fieldErrs, repository.FieldError{Field: "fighters", Message: "required"})
	}
	if len(fighters) > s.geometry.RosterSize() {
		fieldErrs = append(fieldErrs, repository.FieldError{
			Field:   "fighters",
			Message: fmt.Sprintf("at most %d fighters", s.geometry.RosterSize()),
		})
	}
	seen := make(map[string]struct{}, len(fighters))
	for i, f := range fighters {
		key := strings.ToLower(strings.TrimSpace(f))
		if key == "" {
			fieldErrs = append(fieldErrs, repository.FieldError{Field: fmt.Sprintf("fighters[%d]", i), Message: "required"})
			continue
		}
		if _, dup := seen[key]; dup {
			fieldErrs = append(fieldErrs, repository.FieldError{Field: fmt.Sprintf("fighters[%d]", i), Message: "duplicate name"})
		}
		seen[key] = struct{}{}
	}
	if len(fieldErrs) > 0 {
		return GameView{}, invalid(fieldErrs...)
	}

	game, err := outcome(s.store.Games().Create(ctx, model.Game{ID: s.newID(), Name: name}))
	if err != nil {
		return GameView{}, fmt.Errorf("create game: %w", err)
	}

	roster := make([]model.Fighter, len(fighters))
	for i, f := range fighters {
		roster[i] = model.Fighter{ID: s.newID(), GameID: game.ID, Name: strings.TrimSpace(f), RosterOrdinal: i}
	}
	res := batch.Run(ctx, roster, func(ctx context.Context, f model.Fighter) error {
		_, err := outcome(s.store.Fighters().Create(ctx, f))
		return err
	}, batch.WithLimit(s.batchConcurrency))
	if err := res.Err(); err != nil {
		return GameView{}, fmt.Errorf("create roster of %s: %w", game.ID, err)
	}

	s.logger.Info(ctx, "game created", logger.String("game_id", game.ID), logger.Int("fighters", len(roster)))
	return GameView{Game: game, Roster: roster}, nil
}

// CreateRivalryRequest names the two participants of a new rivalry.
type CreateRivalryRequest struct {
	GameID       string `json:"game_id"`
	ParticipantA string `json:"participant_a"`
	ParticipantB string `json:"participant_b"`
	// TemplateTierListID optionally seeds both TierLists with its positions.
	TemplateTierListID string `json:"template_tier_list_id,omitempty"`
}

// CreateRivalry provisions two TierLists, one Slot per roster fighter each,
// and samples the first contest.
func (s *Service) CreateRivalry(ctx context.Context, req CreateRivalryRequest) (RivalryView, error) {
	if err := s.ready(); err != nil {
		return RivalryView{}, err
	}
	if _, err := outcome(s.store.Games().Get(ctx, req.GameID)); err != nil {
		return RivalryView{}, fmt.Errorf("game %s: %w", req.GameID, err)
	}
	roster, err := s.store.Roster(ctx, req.GameID)
	if err != nil {
		return RivalryView{}, fmt.Errorf("roster of %s: %w", req.GameID, err)
	}
	if len(roster) == 0 {
		return RivalryView{}, fmt.Errorf("%w: %s", ErrEmptyRoster, req.GameID)
	}

	var template map[string]model.Position
	if req.TemplateTierListID != "" {
		if template, err = s.templatePositions(ctx, req.GameID, req.TemplateTierListID); err != nil {
			return RivalryView{}, err
		}
	}

	r := model.Rivalry{
		ID:             s.newID(),
		GameID:         req.GameID,
		ParticipantAID: req.ParticipantA,
		ParticipantBID: req.ParticipantB,
		TierListAID:    s.newID(),
		TierListBID:    s.newID(),
		CreatedAt:      s.now().UTC(),
	}
	if errs := repository.ValidateRivalry(r); len(errs) > 0 {
		return RivalryView{}, invalid(errs...)
	}

	unlock := s.locks.Lock("rivalry:" + r.ID)
	defer unlock()

	if r, err = outcome(s.store.Rivalries().Create(ctx, r)); err != nil {
		return RivalryView{}, fmt.Errorf("create rivalry: %w", err)
	}

	var lists [2]model.TierList
	for _, side := range []model.Side{model.SideA, model.SideB} {
		participant := r.ParticipantAID
		if side == model.SideB {
			participant = r.ParticipantBID
		}
		tl := model.TierList{ID: r.TierListID(side), RivalryID: r.ID, GameID: r.GameID, ParticipantID: participant}
		if _, err := outcome(s.store.TierLists().Create(ctx, tl)); err != nil {
			return RivalryView{}, fmt.Errorf("create tier list: %w", err)
		}
		tl.Slots = make([]model.Slot, len(roster))
		for i, f := range roster {
			pos := model.Unranked()
			if p, ok := template[f.ID]; ok {
				pos = p
			}
			tl.Slots[i] = model.Slot{ID: s.newID(), TierListID: tl.ID, FighterID: f.ID, Position: pos}
		}
		if err := s.persistSlots(ctx, tl); err != nil {
			return RivalryView{}, err
		}
		tl.MarkClean()
		lists[side] = tl
	}

	contest, err := s.openContest(ctx, r, lists, nil)
	if err != nil {
		return RivalryView{}, err
	}
	r.CurrentContestID = contest.ID

	s.logger.Info(ctx, "rivalry created",
		logger.String("rivalry_id", r.ID),
		logger.String("game_id", r.GameID),
		logger.Int("slots", len(roster)),
		logger.Bool("from_template", template != nil))
	return s.rivalryView(ctx, r, lists, &contest), nil
}

// templatePositions reads the ranked positions of a template TierList keyed by fighter.
func (s *Service) templatePositions(ctx context.Context, gameID, templateID string) (map[string]model.Position, error) {
	tpl, err := s.loadTierList(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	if tpl.GameID != gameID {
		return nil, fmt.Errorf("%w: template %s", ErrGameMismatch, templateID)
	}
	out := make(map[string]model.Position, len(tpl.Slots))
	for _, sl := range tpl.Slots {
		if sl.Ranked() {
			out[sl.FighterID] = sl.Position
		}
	}
	return out, nil
}

// Rivalry returns the rivalry with both TierLists and its open contest.
func (s *Service) Rivalry(ctx context.Context, id string) (RivalryView, error) {
	if err := s.ready(); err != nil {
		return RivalryView{}, err
	}
	r, lists, err := s.loadRivalry(ctx, id)
	if err != nil {
		return RivalryView{}, err
	}
	var contest *model.Contest
	if r.CurrentContestID != "" {
		c, err := outcome(s.store.Contests().Get(ctx, r.CurrentContestID))
		if err != nil {
			return RivalryView{}, fmt.Errorf("current contest of %s: %w", id, err)
		}
		contest = &c
	}
	return s.rivalryView(ctx, r, lists, contest), nil
}

// TierList returns one TierList rendered with its standing and tier labels.
func (s *Service) TierList(ctx context.Context, id string) (TierListView, error) {
	if err := s.ready(); err != nil {
		return TierListView{}, err
	}
	tl, err := s.loadTierList(ctx, id)
	if err != nil {
		return TierListView{}, err
	}
	return s.tierListView(tl, s.rosterNames(ctx, tl.GameID)), nil
}

func (s *Service) loadRivalry(ctx context.Context, id string) (model.Rivalry, [2]model.TierList, error) {
	var lists [2]model.TierList
	r, err := outcome(s.store.Rivalries().Get(ctx, id))
	if err != nil {
		return r, lists, fmt.Errorf("rivalry %s: %w", id, err)
	}
	for _, side := range []model.Side{model.SideA, model.SideB} {
		if lists[side], err = s.loadTierList(ctx, r.TierListID(side)); err != nil {
			return r, lists, err
		}
	}
	return r, lists, nil
}

func (s *Service) rivalryView(ctx context.Context, r model.Rivalry, lists [2]model.TierList, c *model.Contest) RivalryView {
	names := s.rosterNames(ctx, r.GameID)
	return RivalryView{
		Rivalry: r,
		A:       s.tierListView(lists[model.SideA], names),
		B:       s.tierListView(lists[model.SideB], names),
		Contest: c,
	}
}
