// Ghost Race sessions
//
// Every session is its own race, driven by a hub goroutine that owns a
// race.Controller and mirrors it to every browser connected to the session.
//
// Features:
// - WebSockets per game ID: /race/:gameid and /race/:gameid/ws
// - First connection to a game becomes host; only the host's buttons count
// - Host is handed to the longest-connected client when the host leaves
// - Late joiners get the current screen, roster, countdown and results
// - Frames are rendered once per tick and shared by every client
// - Countdown and finish beeps served as WAV files from /tones/:tone
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"bytes"
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/ghostrace/race"
	"github.com/Seednode/ghostrace/tone"
)

const (
	sendBuffer   = 64
	maxMessage   = 1024
	writeTimeout = 5 * time.Second
)

// Messages coming from clients
type ClientMessage struct {
	Type  string  `json:"type"`            // "player_count", "start", "restart", "home", "viewport"
	Delta int     `json:"delta,omitempty"` // player_count
	Width float64 `json:"width,omitempty"` // viewport
}

// SessionInfoMessage is sent on connect, and again to a client promoted to host.
type SessionInfoMessage struct {
	Type   string `json:"type"` // "session_info"
	GameID string `json:"game_id"`
	IsHost bool   `json:"is_host"`
}

type ScreenMessage struct {
	Type   string      `json:"type"` // "screen"
	Screen race.Screen `json:"screen"`
}

type PreviewMessage struct {
	Type string `json:"type"` // "preview"
	race.PreviewView
}

type CountdownMessage struct {
	Type string `json:"type"` // "countdown"
	Text string `json:"text"`
}

type FrameMessage struct {
	Type string `json:"type"` // "frame"
	*race.DrawList
}

// ToneMessage tells the browser which beep to play.
type ToneMessage struct {
	Type       string  `json:"type"` // "tone"
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	Frequency  float64 `json:"frequency"`
	DurationMS int64   `json:"duration_ms"`
}

type ResultMessage struct {
	Type string `json:"type"` // "result"
	race.ResultEntry
}

// SimpleMessage is for generic notifications ("session_ended", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	seq      uint64
}

type action struct {
	client *Client
	msg    ClientMessage
}

// Hub runs one session. Everything except lastActive is owned by the run
// goroutine, which is also the only goroutine that touches the controller.
type Hub struct {
	id  string
	cfg *Config

	clients map[*Client]bool
	seq     uint64

	register chan *Client
	unreg    chan *Client
	actions  chan action
	quit     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	createdAt    time.Time
	lastActive   time.Time
	hostPlayerID string

	loop *race.Loop
	race *race.Controller

	// replayed to late joiners
	screen    race.Screen
	preview   race.PreviewView
	countdown string
	frame     *websocket.PreparedMessage
	results   []race.ResultEntry
}

func newHub(cfg *Config, gameID string) *Hub {
	now := time.Now()

	h := &Hub{
		id:         gameID,
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan action),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
		loop:       race.NewLoop(),
	}

	h.race = race.NewController(race.Options{
		Random:    cfg.random(),
		Scheduler: h.loop,
		View:      h,
		Tones:     race.ToneFunc(h.emitTone),
	})

	return h
}

func (h *Hub) run() {
	ticker := time.NewTicker(time.Second / time.Duration(h.cfg.fps))
	defer ticker.Stop()
	defer h.loop.Close()

	for {
		select {
		case <-h.quit:
			h.closeClients()
			return

		case c := <-h.register:
			h.touch()
			h.join(c)

		case c := <-h.unreg:
			h.touch()
			if h.clients[c] {
				h.drop(c)
				h.ensureHost()
			}

		case a := <-h.actions:
			h.touch()
			h.handleAction(a)

		case <-ticker.C:
			h.loop.Frame()

		case fn := <-h.loop.Due():
			fn()
		}
	}
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

func (h *Hub) join(c *Client) {
	h.seq++
	c.seq = h.seq
	h.clients[c] = true

	// First connection becomes host
	if h.hostPlayerID == "" {
		h.hostPlayerID = c.playerID
	}

	h.sendTo(c, h.sessionInfo(c))
	h.sendTo(c, ScreenMessage{Type: "screen", Screen: h.screen})
	h.sendTo(c, PreviewMessage{Type: "preview", PreviewView: h.preview})

	if h.countdown != "" {
		h.sendTo(c, CountdownMessage{Type: "countdown", Text: h.countdown})
	}
	if h.frame != nil {
		h.sendTo(c, h.frame)
	}
	for _, e := range h.results {
		h.sendTo(c, ResultMessage{Type: "result", ResultEntry: e})
	}

	logf(h.cfg, "GAMES: Client joined %s (%d connected)", h.id, len(h.clients))
}

func (h *Hub) sessionInfo(c *Client) SessionInfoMessage {
	return SessionInfoMessage{
		Type:   "session_info",
		GameID: h.id,
		IsHost: c.playerID == h.hostPlayerID,
	}
}

// sendTo queues msg for c, dropping the client if it has fallen behind.
func (h *Hub) sendTo(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		h.drop(c)
	}
}

func (h *Hub) broadcast(msg any) {
	dropped := false

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.drop(c)
			dropped = true
		}
	}

	if dropped {
		h.ensureHost()
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
}

// ensureHost hands the session to the longest-connected client once every
// connection of the current host is gone. With nobody left the host keeps
// the session, so a reload reclaims it.
func (h *Hub) ensureHost() {
	var next *Client

	for c := range h.clients {
		if c.playerID == h.hostPlayerID {
			return
		}
		if next == nil || c.seq < next.seq {
			next = c
		}
	}

	if next == nil {
		return
	}

	h.hostPlayerID = next.playerID
	logf(h.cfg, "GAMES: Host of %s handed to client %d", h.id, next.seq)

	for c := range h.clients {
		if c.playerID == next.playerID {
			h.sendTo(c, h.sessionInfo(c))
		}
	}
}

func (h *Hub) handleAction(a action) {
	if a.client.playerID == "" || a.client.playerID != h.hostPlayerID {
		return
	}

	switch a.msg.Type {
	case "player_count":
		delta := 0
		switch {
		case a.msg.Delta > 0:
			delta = 1
		case a.msg.Delta < 0:
			delta = -1
		}
		h.race.ChangePlayerCount(delta)

	case "start":
		if h.race.Screen() == race.ScreenStart && h.race.StartRace() {
			logf(h.cfg, "GAMES: Race %s started in %s with %d ghosts",
				h.race.RunID(), h.id, h.race.State().PlayerCount)
		}

	case "restart":
		if h.race.Screen() != race.ScreenStart && h.race.Restart() {
			logf(h.cfg, "GAMES: Race %s restarted in %s", h.race.RunID(), h.id)
		}

	case "home":
		h.race.Home()

	case "viewport":
		h.race.SetViewport(a.msg.Width)
	}
}

// Show, Preview, Countdown, Frame and Reveal implement race.View by
// mirroring the controller to every client.
func (h *Hub) Show(s race.Screen) {
	h.touch()
	h.screen = s
	h.results = nil
	if s == race.ScreenStart {
		h.countdown = ""
		h.frame = nil
	}

	h.broadcast(ScreenMessage{Type: "screen", Screen: s})
}

func (h *Hub) Preview(p race.PreviewView) {
	h.preview = p

	h.broadcast(PreviewMessage{Type: "preview", PreviewView: p})
}

func (h *Hub) Countdown(text string) {
	h.touch()
	h.countdown = text

	h.broadcast(CountdownMessage{Type: "countdown", Text: text})
}

// Frame encodes f once and offers it to every client. Frames only use the
// first half of a client's queue, so a viewer that falls behind skips frames
// while screens, countdowns, tones and results still fit.
func (h *Hub) Frame(f *race.DrawList) {
	data, err := json.Marshal(FrameMessage{Type: "frame", DrawList: f})
	if err != nil {
		logf(h.cfg, "ERROR: Encode frame for %s: %v", h.id, err)
		return
	}

	pm, err := websocket.NewPreparedMessage(websocket.TextMessage, data)
	if err != nil {
		logf(h.cfg, "ERROR: Prepare frame for %s: %v", h.id, err)
		return
	}
	h.frame = pm

	for c := range h.clients {
		if len(c.send) >= cap(c.send)/2 {
			continue
		}
		c.send <- pm
	}
}

func (h *Hub) Reveal(e race.ResultEntry) {
	h.touch()
	h.results = append(h.results, e)

	h.broadcast(ResultMessage{Type: "result", ResultEntry: e})
}

func (h *Hub) emitTone(t race.Tone) {
	name := tone.Name(t)
	if name == "" {
		return
	}

	h.broadcast(ToneMessage{
		Type:       "tone",
		Name:       name,
		URL:        h.cfg.prefix + "/tones/" + name + ".wav",
		Frequency:  t.Frequency,
		DurationMS: t.Duration.Milliseconds(),
	})
}

// stop ends the session. Safe to call more than once.
func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

// closeClients disconnects all clients of this hub.
func (h *Hub) closeClients() {
	for c := range h.clients {
		select {
		case c.send <- SimpleMessage{
			Type:    "session_ended",
			Message: "This race has ended. Start a new one from the home page.",
		}:
		default:
		}
		h.drop(c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "ghostrace_id"

func getOrSetPlayerID(cfg *Config, w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		logf(cfg, "ERROR: Generate player id: %v", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	path := cfg.prefix
	if path == "" {
		path = "/"
	}

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     path,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each /race/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
}

func newGameManager(idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gameID)
	gm.hubs[gameID] = hub
	go hub.run()
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap removes hubs idle since before cutoff and returns how many it ended.
func (gm *GameManager) reap(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	reaped := 0
	for id, hub := range gm.hubs {
		if hub.idleSince().Before(cutoff) {
			delete(gm.hubs, id)
			hub.stop()
			reaped++
		}
	}

	return reaped
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		gm.reap(time.Now().Add(-gm.idleTimeout))
	}
}

// validGameID accepts the IDs newGameID hands out, so random paths don't
// spin up hubs.
func validGameID(id string) bool {
	if len(id) != 8 {
		return false
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return true
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(cfg, w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub := gm.getHub(cfg, gameID)

		// Upgrade writes its own response, so a fresh cookie has to be
		// handed over explicitly.
		var header http.Header
		if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
			header = http.Header{"Set-Cookie": cookies}
		}

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			logf(cfg, "ERROR: Upgrade %s for %s: %v", gameID, realIP(r), err)
			return
		}
		conn.SetReadLimit(maxMessage)

		client := &Client{
			conn:     conn,
			send:     make(chan any, sendBuffer),
			playerID: playerID,
		}

		select {
		case hub.register <- client:
		case <-hub.quit:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "player_count", "start", "restart", "home", "viewport":
			select {
			case h.actions <- action{client: c, msg: msg}:
			case <-h.quit:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

		var err error
		switch m := msg.(type) {
		case *websocket.PreparedMessage:
			err = c.conn.WritePreparedMessage(m)
		default:
			err = c.conn.WriteJSON(m)
		}
		if err != nil {
			return
		}
	}

	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if !validGameID(gameID) {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// serveTone answers /tones/:tone with one of the pre-encoded beeps.
func serveTone(cfg *Config, bank *tone.Bank, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		name := strings.TrimSuffix(ps.ByName("tone"), ".wav")

		data, ok := bank.Get(name)
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err
			return
		}

		logf(cfg, "SERVE: Tone %q (%s) to %s in %s",
			name,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

//go:embed assets/ghostrace/index.html
var indexHTML []byte

func getIndexHandler(cfg *Config) httprouter.Handle {
	page := bytes.ReplaceAll(indexHTML, []byte("{{prefix}}"), []byte(cfg.prefix))

	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validGameID(ps.ByName("gameid")) {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(cfg, w, r)

		_, _ = w.Write(page)
	}
}

// redirectNewGame handles GET /race by generating a new random game ID
// (with server-side collision detection) and redirecting to /race/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s%s/%s", cfg.prefix, path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerGhostRace sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
//   - /tones/:tone           → WAV beeps the client plays
func registerGhostRace(cfg *Config, path string, mux *httprouter.Router, errs chan<- error) error {
	bank, err := tone.NewBank()
	if err != nil {
		return err
	}

	gm := newGameManager(cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	mux.GET(cfg.prefix+"/tones/:tone", serveTone(cfg, bank, errs))

	return nil
}
