// Package api wires the HTTP routes of the rivalry service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/rivalry/internal/adapters/mq/queue"
	"github.com/okian/rivalry/internal/adapters/repository"
	service "github.com/okian/rivalry/internal/app"
	"github.com/okian/rivalry/internal/domain/audit"
	"github.com/okian/rivalry/internal/domain/dedupe"
	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/resolution"
	"github.com/okian/rivalry/internal/domain/tierlist"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	GameDependencies
	RivalryDependencies
	TierListDependencies
}

// GameDependencies covers roster provisioning.
type GameDependencies interface {
	CreateGame(ctx context.Context, name string, fighters []string) (service.GameView, error)
}

// RivalryDependencies covers rivalry and contest operations.
type RivalryDependencies interface {
	CreateRivalry(ctx context.Context, req service.CreateRivalryRequest) (service.RivalryView, error)
	Rivalry(ctx context.Context, id string) (service.RivalryView, error)
	ResolveContest(ctx context.Context, rivalryID string, result int) (service.ResolveResult, error)
	UndoLastContest(ctx context.Context, rivalryID string) (service.RivalryView, error)
	ShuffleContest(ctx context.Context, rivalryID string, side model.Side) (service.RivalryView, error)
}

// TierListDependencies covers manual tier list edits and audits.
type TierListDependencies interface {
	TierList(ctx context.Context, id string) (service.TierListView, error)
	PlaceSlot(ctx context.Context, tierListID, slotID string, position int) (service.TierListView, error)
	BenchSlot(ctx context.Context, tierListID, slotID string) (service.TierListView, error)
	ShiftStanding(ctx context.Context, tierListID string, delta int) (service.TierListView, error)
	AuditTierList(ctx context.Context, tierListID string) (audit.Report, error)
	EnqueueAudit(ctx context.Context, tierListID string) (queue.Job, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	gameHandler     *GameHandler
	rivalryHandler  *RivalryHandler
	tierListHandler *TierListHandler
	deduper         dedupe.Deduper
}

// NewServer creates a new API server with all handlers. A nil deduper
// turns off Idempotency-Key handling.
func NewServer(deps Dependencies, statsProvider StatsProvider, deduper dedupe.Deduper) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		gameHandler:     NewGameHandler(deps),
		rivalryHandler:  NewRivalryHandler(deps),
		tierListHandler: NewTierListHandler(deps),
		deduper:         deduper,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	read := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}
	write := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(IdempotencyMiddleware(s.deduper, h), endpoint))
	}

	read("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	read("GET /metrics", "metrics", s.healthHandler.HandleMetrics)
	read("GET /stats", "stats", s.statsHandler.HandleStats)

	write("POST /games", "games_create", s.gameHandler.HandleCreateGame)

	write("POST /rivalries", "rivalries_create", s.rivalryHandler.HandleCreateRivalry)
	read("GET /rivalries/{id}", "rivalries_get", s.rivalryHandler.HandleGetRivalry)
	write("POST /rivalries/{id}/result", "rivalries_result", s.rivalryHandler.HandleResolve)
	write("POST /rivalries/{id}/undo", "rivalries_undo", s.rivalryHandler.HandleUndo)
	write("POST /rivalries/{id}/shuffle", "rivalries_shuffle", s.rivalryHandler.HandleShuffle)

	read("GET /tierlists/{id}", "tierlists_get", s.tierListHandler.HandleGetTierList)
	write("POST /tierlists/{id}/slots/{slot}/place", "slots_place", s.tierListHandler.HandlePlace)
	write("POST /tierlists/{id}/slots/{slot}/bench", "slots_bench", s.tierListHandler.HandleBench)
	write("POST /tierlists/{id}/standing", "tierlists_standing", s.tierListHandler.HandleStanding)
	write("POST /tierlists/{id}/audit", "tierlists_audit", s.tierListHandler.HandleAudit)
	write("POST /audits", "audits_enqueue", s.tierListHandler.HandleEnqueueAudits)
}

type errorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []repository.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps service and domain errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, tierlist.ErrSlotNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidStanding),
		errors.Is(err, service.ErrGameMismatch),
		errors.Is(err, service.ErrEmptyRoster),
		errors.Is(err, resolution.ErrDraw),
		errors.Is(err, resolution.ErrResultOutOfRange),
		errors.Is(err, repository.ErrInvalidCursor):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNoContest),
		errors.Is(err, service.ErrNothingToUndo),
		errors.Is(err, resolution.ErrContestantMissing):
		return http.StatusConflict, "conflict"
	case errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed), errors.Is(err, repository.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v as is
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	if r.ContentLength == 0 && allowEmpty {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
