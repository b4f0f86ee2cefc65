package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rivalry/internal/adapters/http/api"
	"github.com/okian/rivalry/internal/adapters/repository"
	service "github.com/okian/rivalry/internal/app"
	"github.com/okian/rivalry/internal/domain/audit"
	"github.com/okian/rivalry/internal/domain/dedupe"
	"github.com/okian/rivalry/pkg/logger"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fields  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"fields"`
}

func do(mux http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func newMux(ctx context.Context) (*http.ServeMux, *service.Service) {
	svc := service.New(
		service.WithStore(repository.NewMemoryStore(ctx)),
		service.WithLogger(logger.Nop()),
		service.WithRand(rand.New(rand.NewSource(3))),
		service.WithWorkerCount(1),
	)
	So(svc.Start(ctx), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(svc, svc, dedupe.NewInMemoryDeduper()).Register(ctx, mux)
	return mux, svc
}

func gameBody(n int) string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%q", fmt.Sprintf("Fighter %d", i))
	}
	return fmt.Sprintf(`{"name":"Tekken","fighters":[%s]}`, strings.Join(names, ","))
}

func TestServer_Routes(t *testing.T) {
	ctx := context.Background()

	Convey("Given a registered API server", t, func() {
		mux, svc := newMux(ctx)
		Reset(svc.Stop)

		Convey("Health, metrics and stats respond", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/metrics", "").Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "rivalries")
		})

		Convey("Unknown paths and wrong methods are rejected by the mux", func() {
			So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/rivalries/x/result", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Malformed and invalid games are bad requests", func() {
			So(do(mux, http.MethodPost, "/games", `{"name":`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/games", `{"name":"x","extra":1}`).Code, ShouldEqual, http.StatusBadRequest)

			w := do(mux, http.MethodPost, "/games", `{"name":"Tekken","fighters":["Law","law"]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			body := decode[errorBody](w)
			So(body.Code, ShouldEqual, "bad_request")
			So(body.Fields, ShouldNotBeEmpty)
		})

		Convey("Missing records are 404", func() {
			So(do(mux, http.MethodGet, "/rivalries/missing", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/tierlists/missing", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_RivalryFlow(t *testing.T) {
	ctx := context.Background()

	Convey("Given a game and a rivalry created over HTTP", t, func() {
		mux, svc := newMux(ctx)
		Reset(svc.Stop)

		w := do(mux, http.MethodPost, "/games", gameBody(12))
		So(w.Code, ShouldEqual, http.StatusCreated)
		game := decode[service.GameView](w)
		So(game.Roster, ShouldHaveLength, 12)

		w = do(mux, http.MethodPost, "/rivalries",
			fmt.Sprintf(`{"game_id":%q,"participant_a":"ann","participant_b":"bob"}`, game.Game.ID))
		So(w.Code, ShouldEqual, http.StatusCreated)
		view := decode[service.RivalryView](w)
		So(view.Contest, ShouldNotBeNil)
		resultPath := "/rivalries/" + view.Rivalry.ID + "/result"

		Convey("A result resolves the open contest once per idempotency key", func() {
			w := do(mux, http.MethodPost, resultPath, `{"result":2}`, api.IdempotencyKeyHeader, "k1")
			So(w.Code, ShouldEqual, http.StatusOK)
			res := decode[service.ResolveResult](w)
			So(res.Resolved.ID, ShouldEqual, view.Contest.ID)
			So(res.Resolved.Resolved, ShouldBeTrue)
			So(res.Rivalry.Rivalry.ContestCount, ShouldEqual, 1)

			w = do(mux, http.MethodPost, resultPath, `{"result":2}`, api.IdempotencyKeyHeader, "k1")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decode[errorBody](w).Code, ShouldEqual, "duplicate_request")

			got := decode[service.RivalryView](do(mux, http.MethodGet, "/rivalries/"+view.Rivalry.ID, ""))
			So(got.Rivalry.ContestCount, ShouldEqual, 1)

			Convey("Undo reverts it, and a second undo conflicts", func() {
				w := do(mux, http.MethodPost, "/rivalries/"+view.Rivalry.ID+"/undo", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[service.RivalryView](w).Rivalry.ContestCount, ShouldEqual, 0)

				w = do(mux, http.MethodPost, "/rivalries/"+view.Rivalry.ID+"/undo", "")
				So(w.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("A failed request releases its idempotency key", func() {
			So(do(mux, http.MethodPost, resultPath, `{"result":0}`, api.IdempotencyKeyHeader, "k2").Code,
				ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, resultPath, `{"result":-1}`, api.IdempotencyKeyHeader, "k2").Code,
				ShouldEqual, http.StatusOK)
		})

		Convey("A result must be present", func() {
			So(do(mux, http.MethodPost, resultPath, `{}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A result larger than any move is rejected", func() {
			w := do(mux, http.MethodPost, resultPath, `{"result":3074457345618258603}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			body := decode[errorBody](w)
			So(body.Fields, ShouldHaveLength, 1)
			So(body.Fields[0].Field, ShouldEqual, "result")
			So(do(mux, http.MethodPost, resultPath, `{"result":-85}`).Code, ShouldEqual, http.StatusOK)
		})

		Convey("Shuffle validates the side", func() {
			path := "/rivalries/" + view.Rivalry.ID + "/shuffle"
			So(do(mux, http.MethodPost, path, `{"side":"c"}`).Code, ShouldEqual, http.StatusBadRequest)
			w := do(mux, http.MethodPost, path, `{"side":"b"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[service.RivalryView](w).Contest.SlotAID, ShouldEqual, view.Contest.SlotAID)
		})

		Convey("Tier list edits go through the tier list routes", func() {
			tl := view.A.ID
			slot := view.A.Slots[0].ID
			base := "/tierlists/" + tl

			So(do(mux, http.MethodPost, base+"/slots/"+slot+"/place", `{}`).Code, ShouldEqual, http.StatusBadRequest)

			w := do(mux, http.MethodPost, base+"/slots/"+slot+"/place", `{"position":4}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			placed := decode[service.TierListView](w)
			for _, s := range placed.Slots {
				if s.ID == slot {
					So(s.Position.Value(), ShouldEqual, 4)
					So(s.Tier, ShouldEqual, "S")
				}
			}

			w = do(mux, http.MethodPost, base+"/slots/"+slot+"/bench", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			benched := decode[service.TierListView](w)
			for _, s := range benched.Slots {
				if s.ID == slot {
					So(s.Position.Value(), ShouldEqual, 85)
					So(s.Tier, ShouldEqual, "F")
				}
			}
			So(do(mux, http.MethodPost, base+"/slots/nope/bench", "").Code, ShouldEqual, http.StatusNotFound)

			So(do(mux, http.MethodPost, base+"/standing", `{"delta":-1}`).Code, ShouldEqual, http.StatusBadRequest)
			w = do(mux, http.MethodPost, base+"/standing", `{"delta":2}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[service.TierListView](w).Standing, ShouldEqual, 2)

			w = do(mux, http.MethodPost, base+"/audit", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			rep := decode[audit.Report](w)
			So(rep.TierListID, ShouldEqual, tl)
			So(rep.Changed(), ShouldBeFalse)

			So(do(mux, http.MethodPost, "/audits", "").Code, ShouldEqual, http.StatusAccepted)
			So(do(mux, http.MethodPost, "/audits", fmt.Sprintf(`{"tier_list_id":%q}`, tl)).Code, ShouldEqual, http.StatusAccepted)
		})
	})
}
