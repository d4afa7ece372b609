/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Seednode/ghostrace/race"
)

const testGameID = "abcdEFGH"

func newTestClient(playerID string) *Client {
	return &Client{
		send:     make(chan any, sendBuffer),
		playerID: playerID,
	}
}

// drain returns every message queued for c so far.
func drain(c *Client) []any {
	var out []any
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func lastOf[T any](msgs []any) (T, bool) {
	var zero T
	for i := len(msgs) - 1; i >= 0; i-- {
		if m, ok := msgs[i].(T); ok {
			return m, true
		}
	}
	return zero, false
}

func TestHubFirstClientIsHost(t *testing.T) {
	h := newHub(testConfig(), testGameID)

	host, guest := newTestClient("host"), newTestClient("guest")
	h.join(host)
	h.join(guest)

	info, ok := lastOf[SessionInfoMessage](drain(host))
	if !ok || !info.IsHost || info.GameID != testGameID {
		t.Errorf("host session_info = %+v, want is_host for %s", info, testGameID)
	}

	msgs := drain(guest)
	info, ok = lastOf[SessionInfoMessage](msgs)
	if !ok || info.IsHost {
		t.Errorf("guest session_info = %+v, want spectator", info)
	}

	screen, ok := lastOf[ScreenMessage](msgs)
	if !ok || screen.Screen != race.ScreenStart {
		t.Errorf("guest screen = %+v, want start", screen)
	}

	preview, ok := lastOf[PreviewMessage](msgs)
	if !ok || preview.Count != race.DefaultPlayers || len(preview.Players) != race.DefaultPlayers {
		t.Errorf("guest preview = %+v, want %d players", preview, race.DefaultPlayers)
	}
}

func TestHubOnlyHostControls(t *testing.T) {
	h := newHub(testConfig(), testGameID)

	host, guest := newTestClient("host"), newTestClient("guest")
	h.join(host)
	h.join(guest)
	drain(host)
	drain(guest)

	h.handleAction(action{client: guest, msg: ClientMessage{Type: "player_count", Delta: 1}})
	if got := h.race.State().PlayerCount; got != race.DefaultPlayers {
		t.Fatalf("guest changed player count to %d", got)
	}
	if msgs := drain(guest); len(msgs) != 0 {
		t.Errorf("guest action produced %d messages", len(msgs))
	}

	h.handleAction(action{client: host, msg: ClientMessage{Type: "player_count", Delta: 5}})
	if got := h.race.State().PlayerCount; got != race.DefaultPlayers+1 {
		t.Fatalf("player count = %d, want %d (delta is a single step)", got, race.DefaultPlayers+1)
	}

	preview, ok := lastOf[PreviewMessage](drain(guest))
	if !ok || preview.Count != race.DefaultPlayers+1 {
		t.Errorf("guest preview = %+v, want count %d", preview, race.DefaultPlayers+1)
	}
}

func TestHubStartMirrorsRace(t *testing.T) {
	h := newHub(testConfig(), testGameID)

	host := newTestClient("host")
	h.join(host)
	drain(host)

	h.handleAction(action{client: host, msg: ClientMessage{Type: "viewport", Width: 640}})
	h.handleAction(action{client: host, msg: ClientMessage{Type: "start"}})

	if h.race.Phase() != race.Countdown {
		t.Fatalf("phase = %s, want countdown", h.race.Phase())
	}

	w, _ := h.race.TrackSize()
	if w != 600 {
		t.Errorf("track width = %v, want 600 for a 640 viewport", w)
	}

	msgs := drain(host)

	screen, ok := lastOf[ScreenMessage](msgs)
	if !ok || screen.Screen != race.ScreenRace {
		t.Errorf("screen = %+v, want race", screen)
	}
	if _, ok := lastOf[*websocket.PreparedMessage](msgs); !ok {
		t.Error("no frame sent on start")
	}

	// A second start during the countdown is ignored.
	run := h.race.RunID()
	h.handleAction(action{client: host, msg: ClientMessage{Type: "start"}})
	if h.race.RunID() != run {
		t.Error("start during a race replaced the run")
	}

	late := newTestClient("late")
	h.join(late)

	msgs = drain(late)
	if screen, _ := lastOf[ScreenMessage](msgs); screen.Screen != race.ScreenRace {
		t.Errorf("late joiner screen = %q, want race", screen.Screen)
	}
	if _, ok := lastOf[*websocket.PreparedMessage](msgs); !ok {
		t.Error("late joiner did not get the last frame")
	}
}

func TestHubHomeAndRestart(t *testing.T) {
	h := newHub(testConfig(), testGameID)

	host := newTestClient("host")
	h.join(host)

	h.handleAction(action{client: host, msg: ClientMessage{Type: "restart"}})
	if h.race.Phase() != race.Idle {
		t.Fatalf("restart on the start screen started a race")
	}

	h.handleAction(action{client: host, msg: ClientMessage{Type: "start"}})
	first := h.race.RunID()

	h.handleAction(action{client: host, msg: ClientMessage{Type: "restart"}})
	if h.race.RunID() == first || h.race.Phase() != race.Countdown {
		t.Errorf("restart: run %s phase %s, want a new countdown", h.race.RunID(), h.race.Phase())
	}

	drain(host)
	h.handleAction(action{client: host, msg: ClientMessage{Type: "home"}})

	if h.race.Screen() != race.ScreenStart || h.race.Phase() != race.Idle {
		t.Errorf("home: screen %s phase %s", h.race.Screen(), h.race.Phase())
	}
	if h.frame != nil || h.countdown != "" {
		t.Error("home kept race state for late joiners")
	}

	screen, ok := lastOf[ScreenMessage](drain(host))
	if !ok || screen.Screen != race.ScreenStart {
		t.Errorf("screen = %+v, want start", screen)
	}
}

func TestHubHandsOverHost(t *testing.T) {
	h := newHub(testConfig(), testGameID)

	host, first, second := newTestClient("host"), newTestClient("p1"), newTestClient("p2")
	h.join(host)
	h.join(first)
	h.join(second)
	drain(first)
	drain(second)

	h.drop(host)
	h.ensureHost()

	if h.hostPlayerID != "p1" {
		t.Fatalf("host = %q, want longest-connected p1", h.hostPlayerID)
	}

	info, ok := lastOf[SessionInfoMessage](drain(first))
	if !ok || !info.IsHost {
		t.Errorf("promoted client session_info = %+v, want is_host", info)
	}
	if msgs := drain(second); len(msgs) != 0 {
		t.Errorf("other client got %d messages", len(msgs))
	}

	h.drop(first)
	h.drop(second)
	h.ensureHost()

	if h.hostPlayerID != "p1" {
		t.Errorf("empty session changed host to %q", h.hostPlayerID)
	}
}

func TestHubSlowClients(t *testing.T) {
	h := newHub(testConfig(), testGameID)

	host := newTestClient("host")
	slow := &Client{send: make(chan any, 1), playerID: "slow"}
	h.clients[slow] = true
	slow.send <- "backlog"

	h.join(host)
	drain(host)

	h.Frame(race.NewDrawList(100, 100))
	if !h.clients[slow] {
		t.Fatal("slow client dropped for a frame")
	}

	h.Countdown("3")
	if h.clients[slow] {
		t.Fatal("slow client kept after missing a countdown")
	}
	if _, ok := <-slow.send; !ok {
		t.Fatal("backlog lost")
	}
	if _, ok := <-slow.send; ok {
		t.Fatal("send channel of dropped client still open")
	}
}

func TestHubTones(t *testing.T) {
	cfg := testConfig()
	cfg.prefix = "/games"

	h := newHub(cfg, testGameID)

	c := newTestClient("host")
	h.join(c)
	drain(c)

	h.emitTone(race.TickTone)
	h.emitTone(race.Tone{Frequency: 440, Duration: time.Second})

	msgs := drain(c)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (unnamed tones are skipped)", len(msgs))
	}

	msg, ok := msgs[0].(ToneMessage)
	if !ok {
		t.Fatalf("message is %T, want ToneMessage", msgs[0])
	}
	if msg.Name != "tick" || msg.URL != "/games/tones/tick.wav" || msg.Frequency != 600 || msg.DurationMS != 100 {
		t.Errorf("tone = %+v", msg)
	}
}

func TestHubReveal(t *testing.T) {
	h := newHub(testConfig(), testGameID)

	h.Show(race.ScreenResult)
	h.Reveal(race.ResultEntry{Index: 0, Rank: 1, Name: "Casper", Badge: "🥇"})
	h.Reveal(race.ResultEntry{Index: 1, Rank: 2, Name: "Boo", Badge: "💀"})

	late := newTestClient("late")
	h.join(late)

	var names []string
	for _, m := range drain(late) {
		if r, ok := m.(ResultMessage); ok {
			names = append(names, r.Name)
		}
	}
	if strings.Join(names, ",") != "Casper,Boo" {
		t.Errorf("late joiner results = %v, want Casper,Boo", names)
	}

	h.Show(race.ScreenRace)
	if len(h.results) != 0 {
		t.Error("results kept after leaving the result screen")
	}
}

func TestValidGameID(t *testing.T) {
	gm := &GameManager{hubs: make(map[string]*Hub)}

	for i := 0; i < 20; i++ {
		if id := gm.newGameID(); !validGameID(id) {
			t.Fatalf("newGameID() = %q is not a valid id", id)
		}
	}

	for _, id := range []string{"", "short", "toolong123", "abc-EFGH", "abcdEFG/"} {
		if validGameID(id) {
			t.Errorf("validGameID(%q) = true", id)
		}
	}
}

func TestReap(t *testing.T) {
	gm := &GameManager{hubs: make(map[string]*Hub)}
	cfg := testConfig()

	stale := gm.getHub(cfg, "staleHub")
	fresh := gm.getHub(cfg, "freshHub")

	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	if n := gm.reap(time.Now().Add(-time.Minute)); n != 1 {
		t.Fatalf("reap() = %d, want 1", n)
	}

	select {
	case <-stale.quit:
	default:
		t.Error("reaped hub not stopped")
	}

	if got := gm.getHub(cfg, "freshHub"); got != fresh {
		t.Error("fresh hub was replaced")
	}
	if got := gm.getHub(cfg, "staleHub"); got == stale {
		t.Error("stale hub still served")
	}

	for _, h := range gm.hubs {
		h.stop()
	}
}

func TestWebsocketSession(t *testing.T) {
	cfg := testConfig()

	errs := make(chan error, 16)
	mux, err := newRouter(cfg, errs)
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}

	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/race/" + testGameID + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var cookie bool
	for _, c := range resp.Cookies() {
		if c.Name == playerCookieName {
			cookie = true
		}
	}
	if !cookie {
		t.Error("upgrade response did not set the player cookie")
	}

	read := func(want string) map[string]any {
		t.Helper()

		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("waiting for %s: %v", want, err)
			}
			if msg["type"] == want {
				return msg
			}
		}
	}

	if info := read("session_info"); info["is_host"] != true || info["game_id"] != testGameID {
		t.Fatalf("session_info = %v", info)
	}
	if screen := read("screen"); screen["screen"] != "start" {
		t.Fatalf("screen = %v", screen)
	}
	read("preview")

	if err := conn.WriteJSON(ClientMessage{Type: "player_count", Delta: -1}); err != nil {
		t.Fatalf("write: %v", err)
	}

	preview := read("preview")
	if preview["count"] != float64(race.DefaultPlayers-1) {
		t.Fatalf("preview count = %v, want %d", preview["count"], race.DefaultPlayers-1)
	}
	if players, _ := preview["players"].([]any); len(players) != race.DefaultPlayers-1 {
		t.Fatalf("preview has %d players", len(players))
	}

	if err := conn.WriteJSON(ClientMessage{Type: "start"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if screen := read("screen"); screen["screen"] != "race" {
		t.Fatalf("screen = %v, want race", screen)
	}

	if countdown := read("countdown"); countdown["text"] != "" {
		t.Fatalf("countdown = %v, want cleared on start", countdown)
	}

	frame := read("frame")
	if ops, _ := frame["ops"].([]any); len(ops) == 0 {
		t.Fatal("frame has no draw ops")
	}

	if countdown := read("countdown"); countdown["text"] != "3" {
		t.Fatalf("countdown = %v, want 3", countdown)
	}
}

func TestHubFramesLeaveRoomForControl(t *testing.T) {
	h := newHub(testConfig(), testGameID)

	host, viewer := newTestClient("host"), newTestClient("viewer")
	h.join(host)
	h.join(viewer)
	drain(viewer)

	for i := 0; i < sendBuffer; i++ {
		h.Frame(race.NewDrawList(100, 100))
	}

	if got := len(viewer.send); got != sendBuffer/2 {
		t.Fatalf("queued %d frames, want %d", got, sendBuffer/2)
	}

	h.emitTone(race.GoTone)
	h.Countdown("GO!")
	h.Reveal(race.ResultEntry{Rank: 1, Name: "Casper"})

	if !h.clients[viewer] {
		t.Fatal("viewer dropped while behind on frames")
	}

	msgs := drain(viewer)
	if _, ok := lastOf[ToneMessage](msgs); !ok {
		t.Error("tone not queued behind frames")
	}
	if _, ok := lastOf[ResultMessage](msgs); !ok {
		t.Error("result not queued behind frames")
	}
}

func TestHubActivityKeepsSession(t *testing.T) {
	h := newHub(testConfig(), testGameID)

	idle := func() {
		h.mu.Lock()
		h.lastActive = time.Now().Add(-time.Hour)
		h.mu.Unlock()
	}
	cutoff := time.Now().Add(-time.Minute)

	for name, fn := range map[string]func(){
		"countdown": func() { h.Countdown("2") },
		"screen":    func() { h.Show(race.ScreenResult) },
		"reveal":    func() { h.Reveal(race.ResultEntry{Rank: 1}) },
	} {
		idle()
		fn()

		if h.idleSince().Before(cutoff) {
			t.Errorf("%s did not count as activity", name)
		}
	}
}
