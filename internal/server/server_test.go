package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stockpile/internal/catalog"
	"github.com/gravitas-games/stockpile/internal/config"
	"github.com/gravitas-games/stockpile/internal/inventory"
	"github.com/gravitas-games/stockpile/internal/network"
	"github.com/gravitas-games/stockpile/internal/stash"
	"github.com/gravitas-games/stockpile/pkg/models"
)

type staticValidator map[string]models.Player

func (v staticValidator) ValidateToken(_ context.Context, token string) (*models.Player, error) {
	p, ok := v[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &p, nil
}

var testPlayers = staticValidator{
	"admin":  {ID: "1", Username: "quartermaster", Activated: 1, Permissions: models.PermInventoryWrite | models.PermInventoryAdmin},
	"player": {ID: "2", Username: "scavenger", Activated: 1, Permissions: models.PermInventoryWrite},
	"viewer": {ID: "3", Username: "spectator", Activated: 1},
}

func newTestServer(t *testing.T, tweak func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	if tweak != nil {
		tweak(&cfg)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv, err := New(&cfg, catalog.Sample(), logger, WithValidator(testPlayers))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Shutdown()
		ts.Close()
	})
	return srv, ts
}

type reply struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	t   *testing.T
	ws  *websocket.Conn
	seq int
}

func dial(t *testing.T, ts *httptest.Server, token string) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer " + token}})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return &client{t: t, ws: ws}
}

// call sends one command and waits for the reply carrying its id.
func (c *client) call(msgType string, payload any) reply {
	c.t.Helper()
	c.seq++
	id := fmt.Sprintf("%s-%d", msgType, c.seq)

	raw, err := json.Marshal(payload)
	if err != nil {
		c.t.Fatalf("marshal payload: %v", err)
	}
	if err := c.ws.WriteJSON(network.ClientMessage{Type: msgType, ID: id, Payload: raw}); err != nil {
		c.t.Fatalf("write failed: %v", err)
	}

	c.ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var r reply
		if err := c.ws.ReadJSON(&r); err != nil {
			c.t.Fatalf("read failed waiting for %s: %v", msgType, err)
		}
		if r.ID == id {
			return r
		}
	}
}

func (c *client) state(msgType string, payload any) network.InventoryStatePayload {
	c.t.Helper()
	r := c.call(msgType, payload)
	if r.Type != network.MsgTypeInventoryState {
		c.t.Fatalf("%s: expected inventory_state, got %s %s", msgType, r.Type, r.Payload)
	}
	var st network.InventoryStatePayload
	if err := json.Unmarshal(r.Payload, &st); err != nil {
		c.t.Fatalf("decode state: %v", err)
	}
	return st
}

func (c *client) errorCode(msgType string, payload any) string {
	c.t.Helper()
	r := c.call(msgType, payload)
	if r.Type != network.MsgTypeError {
		c.t.Fatalf("%s: expected error, got %s %s", msgType, r.Type, r.Payload)
	}
	var e network.ErrorPayload
	if err := json.Unmarshal(r.Payload, &e); err != nil {
		c.t.Fatalf("decode error: %v", err)
	}
	return e.Code
}

func (c *client) join() network.WelcomePayload {
	c.t.Helper()
	r := c.call(network.MsgTypeJoin, struct{}{})
	if r.Type != network.MsgTypeWelcome {
		c.t.Fatalf("expected welcome, got %s %s", r.Type, r.Payload)
	}
	var w network.WelcomePayload
	if err := json.Unmarshal(r.Payload, &w); err != nil {
		c.t.Fatalf("decode welcome: %v", err)
	}
	return w
}

func slotsOf(items models.Collection) map[int]int {
	out := make(map[int]int, len(items))
	for _, it := range items {
		out[it.Slot] = it.Quantity
	}
	return out
}

func TestWebSocketRequiresToken(t *testing.T) {
	_, ts := newTestServer(t, nil)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got err=%v resp=%v", err, resp)
	}

	_, resp, err = websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer forged"}})
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got err=%v resp=%v", err, resp)
	}
}

func TestHealthAndCatalogEndpoints(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/catalog")
	if err != nil {
		t.Fatalf("catalog request failed: %v", err)
	}
	defer resp.Body.Close()
	var payload network.CatalogPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(payload.Items) != catalog.Sample().Len() {
		t.Fatalf("expected %d definitions, got %d", catalog.Sample().Len(), len(payload.Items))
	}
}

func TestJoinAndPing(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	c := dial(t, ts, "player")

	if code := c.errorCode(network.MsgTypeInventoryGet, struct{}{}); code != codeNotJoined {
		t.Fatalf("expected %s before join, got %s", codeNotJoined, code)
	}

	welcome := c.join()
	if welcome.PlayerID != "2" || welcome.SessionID != srv.session.ID || welcome.ConnectionID == "" {
		t.Fatalf("unexpected welcome %+v", welcome)
	}
	if welcome.SessionStatus.PlayerCount != 1 {
		t.Fatalf("expected one player, got %d", welcome.SessionStatus.PlayerCount)
	}

	if r := c.call(network.MsgTypePing, struct{}{}); r.Type != network.MsgTypePong {
		t.Fatalf("expected pong, got %s", r.Type)
	}
	if r := c.call(network.MsgTypeCatalog, struct{}{}); r.Type != network.MsgTypeCatalogState {
		t.Fatalf("expected catalog, got %s", r.Type)
	}
	if code := c.errorCode("teleport", struct{}{}); code != codeUnknownType {
		t.Fatalf("expected %s, got %s", codeUnknownType, code)
	}
}

func TestSessionFull(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) { cfg.Session.MaxPlayers = 1 })

	first := dial(t, ts, "player")
	first.join()

	second := dial(t, ts, "admin")
	if code := second.errorCode(network.MsgTypeJoin, struct{}{}); code != codeSessionFull {
		t.Fatalf("expected %s, got %s", codeSessionFull, code)
	}

	// the same player may rejoin from another connection
	again := dial(t, ts, "player")
	again.join()
}

func TestInventoryCommandFlow(t *testing.T) {
	_, ts := newTestServer(t, nil)
	c := dial(t, ts, "admin")
	c.join()

	st := c.state(network.MsgTypeInventoryAdd, network.AddPayload{Container: "inventory", Item: "bandage", Quantity: 25})
	if got := slotsOf(st.Containers["inventory"]); got[0] != 20 || got[1] != 5 || len(got) != 2 {
		t.Fatalf("unexpected stacks after add: %v", got)
	}
	if st.Weight != 2.5 || st.Ceiling != 255 {
		t.Fatalf("unexpected weight %v / %v", st.Weight, st.Ceiling)
	}

	st = c.state(network.MsgTypeInventorySplit, network.SplitPayload{Container: "inventory", Slot: 0, Count: 5})
	if got := slotsOf(st.Containers["inventory"]); got[0] != 15 || got[1] != 5 || got[2] != 5 {
		t.Fatalf("unexpected stacks after split: %v", got)
	}

	st = c.state(network.MsgTypeInventoryCombine, network.CombinePayload{Container: "inventory", From: 2, To: 1})
	if got := slotsOf(st.Containers["inventory"]); got[0] != 15 || got[1] != 10 || len(got) != 2 {
		t.Fatalf("unexpected stacks after combine: %v", got)
	}

	st = c.state(network.MsgTypeInventoryConsume, network.ConsumePayload{Container: "inventory", Slot: 0, Amount: 2.7})
	if got := slotsOf(st.Containers["inventory"]); got[0] != 13 {
		t.Fatalf("expected fractional consume to floor to 2, got %v", got)
	}

	st = c.state(network.MsgTypeInventoryRemove, network.RemovePayload{Container: "inventory", Item: "bandage", Quantity: 30})
	if len(st.Containers["inventory"]) != 0 || st.Remaining != 7 {
		t.Fatalf("expected empty inventory with 7 unremoved, got %+v remaining=%d", st.Containers["inventory"], st.Remaining)
	}

	c.state(network.MsgTypeInventoryAdd, network.AddPayload{Container: "inventory", Item: "pistol", Quantity: 1})
	st = c.state(network.MsgTypeInventoryMove, network.MovePayload{From: "inventory", Slot: 0, To: "toolbar"})
	if len(st.Containers["inventory"]) != 0 || len(st.Containers["toolbar"]) != 1 {
		t.Fatalf("unexpected containers after move: %+v", st.Containers)
	}

	st = c.state(network.MsgTypeItemData, network.ItemDataPayload{Container: "toolbar", Slot: 0, Mode: network.DataModeUpsert, Data: map[string]any{"serial": "A1"}})
	if got := st.Containers["toolbar"][0].Data["serial"]; got != "A1" {
		t.Fatalf("expected serial A1, got %v", got)
	}
	st = c.state(network.MsgTypeItemData, network.ItemDataPayload{Container: "toolbar", Slot: 0, Mode: network.DataModeClear})
	if len(st.Containers["toolbar"][0].Data) != 0 {
		t.Fatalf("expected data cleared, got %v", st.Containers["toolbar"][0].Data)
	}

	st = c.state(network.MsgTypeInventoryDrop, network.DropPayload{Container: "toolbar", Slot: 0})
	if len(st.Containers["toolbar"]) != 0 {
		t.Fatalf("expected empty toolbar after drop, got %+v", st.Containers["toolbar"])
	}

	st = c.state(network.MsgTypeInventoryGet, struct{}{})
	if len(st.Containers) != 2 || st.Weight != 0 {
		t.Fatalf("unexpected final state %+v", st)
	}
}

func TestInventoryCommandErrors(t *testing.T) {
	_, ts := newTestServer(t, nil)
	c := dial(t, ts, "admin")
	c.join()
	c.state(network.MsgTypeInventoryAdd, network.AddPayload{Container: "inventory", Item: "pistol", Quantity: 1})

	cases := []struct {
		name    string
		msgType string
		payload any
		code    string
	}{
		{"unknown item", network.MsgTypeInventoryAdd, network.AddPayload{Container: "inventory", Item: "unobtainium", Quantity: 1}, codeCatalogMiss},
		{"unknown container", network.MsgTypeInventoryAdd, network.AddPayload{Container: "vault", Item: "pistol", Quantity: 1}, codeUnknownContainer},
		{"toolbar overflow", network.MsgTypeInventoryAdd, network.AddPayload{Container: "toolbar", Item: "pistol", Quantity: 5}, codeFull},
		{"negative quantity", network.MsgTypeInventoryRemove, network.RemovePayload{Container: "inventory", Item: "pistol", Quantity: -1}, codeInvalidQuantity},
		{"nothing to remove", network.MsgTypeInventoryRemove, network.RemovePayload{Container: "inventory", Item: "bandage", Quantity: 1}, codeNoMatchingItem},
		{"drop empty slot", network.MsgTypeInventoryDrop, network.DropPayload{Container: "inventory", Slot: 9}, codeSlotEmpty},
		{"split single pistol", network.MsgTypeInventorySplit, network.SplitPayload{Container: "inventory", Slot: 0, Count: 1}, codeInvalidSplit},
		{"combine with itself", network.MsgTypeInventoryCombine, network.CombinePayload{Container: "inventory", From: 0, To: 0}, codeIncompatible},
		{"bad data mode", network.MsgTypeItemData, network.ItemDataPayload{Container: "inventory", Slot: 0, Mode: "merge"}, codeInvalidDataMode},
		{"malformed payload", network.MsgTypeInventoryDrop, "slot zero", codeInvalidPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := c.errorCode(tc.msgType, tc.payload); code != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, code)
			}
		})
	}

	st := c.state(network.MsgTypeInventoryGet, struct{}{})
	if got := slotsOf(st.Containers["inventory"]); len(got) != 1 || got[0] != 1 {
		t.Fatalf("rejected commands changed state: %v", got)
	}
}

func TestPermissions(t *testing.T) {
	_, ts := newTestServer(t, nil)

	p := dial(t, ts, "player")
	p.join()
	if code := p.errorCode(network.MsgTypeInventoryAdd, network.AddPayload{Container: "inventory", Item: "bandage", Quantity: 1}); code != codeForbidden {
		t.Fatalf("expected player add to be forbidden, got %s", code)
	}

	v := dial(t, ts, "viewer")
	v.join()
	if code := v.errorCode(network.MsgTypeInventoryDrop, network.DropPayload{Container: "inventory", Slot: 0}); code != codeForbidden {
		t.Fatalf("expected viewer drop to be forbidden, got %s", code)
	}
	v.state(network.MsgTypeInventoryGet, struct{}{})
}

func TestWeightLimitOverWire(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.Config) { cfg.Weight.Ceiling = 3 })
	c := dial(t, ts, "admin")
	c.join()

	c.state(network.MsgTypeInventoryAdd, network.AddPayload{Container: "inventory", Item: "scrap", Quantity: 3})
	if code := c.errorCode(network.MsgTypeInventoryAdd, network.AddPayload{Container: "toolbar", Item: "scrap", Quantity: 1}); code != codeOverWeight {
		t.Fatalf("expected %s, got %s", codeOverWeight, code)
	}
}

func TestStashSurvivesReconnect(t *testing.T) {
	_, ts := newTestServer(t, nil)

	first := dial(t, ts, "admin")
	first.join()
	first.state(network.MsgTypeInventoryAdd, network.AddPayload{Container: "inventory", Item: "water", Version: 1, Quantity: 3})
	first.ws.Close()

	second := dial(t, ts, "admin")
	second.join()
	st := second.state(network.MsgTypeInventoryGet, struct{}{})
	items := st.Containers["inventory"]
	if len(items) != 1 || items[0].Version != 1 || items[0].Quantity != 3 {
		t.Fatalf("expected stash to persist across connections, got %+v", items)
	}
}

func TestErrorCode(t *testing.T) {
	cases := map[error]string{
		inventory.ErrCatalogMiss:                        codeCatalogMiss,
		inventory.ErrUnknownCategory:                    codeUnknownCategory,
		stash.ErrOverWeight:                             codeOverWeight,
		ErrSessionFull:                                  codeSessionFull,
		errors.New("disk on fire"):                      codeInternal,
		errors.Join(errors.New("x"), inventory.ErrFull): codeFull,
	}
	for err, want := range cases {
		if got := errorCode(err); got != want {
			t.Errorf("errorCode(%v) = %s, want %s", err, got, want)
		}
	}
}
