// Trivia Rooms
//
// Players connect over a websocket, join a named room under a display name,
// and share chat, questions, and answers with everyone else in that room.
// Any player may request a question; the round stays open until every
// player currently in the room has answered, then anyone can reveal the
// correct answer and start over.
//
// Features:
// - WebSockets per room: /path/:roomid and /path/:roomid/ws
// - Display names unique per room (case-insensitive), reusable across rooms
// - One round at a time per room; re-requests return the same question
// - Questions fetched from an Open Trivia DB-compatible API, or served
//   from an embedded offline deck with --offline
// - A player disconnecting mid-round shrinks the round instead of wedging it
// - Rooms exist only while someone is in them
// - Random 8-char room IDs via crypto/rand for the shareable landing page
// - In-browser QR button to share the current room, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	_ "embed"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const adminName = "Admin"

// Messages coming from clients
type ClientMessage struct {
	Type       string `json:"type"`                 // "join", "sendMessage", "getQuestion", "sendAnswer", "getAnswer"
	PlayerName string `json:"playerName,omitempty"` // join
	Room       string `json:"room,omitempty"`       // join
	Text       string `json:"text,omitempty"`       // sendMessage / sendAnswer
}

// AckMessage acknowledges one request, to the requesting client only.
// A non-empty Error means the request was rejected; nothing was broadcast.
type AckMessage struct {
	Type  string `json:"type"`  // "ack"
	Event string `json:"event"` // echoed request type
	Error string `json:"error,omitempty"`
}

// ChatMessage carries chat lines and Admin announcements.
type ChatMessage struct {
	Type       string `json:"type"` // "message"
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
	Time       string `json:"time"`
}

// RoomPlayer is one entry in a membership snapshot.
type RoomPlayer struct {
	PlayerName string `json:"playerName"`
}

// RoomMessage is the membership snapshot broadcast on every join and leave.
type RoomMessage struct {
	Type    string       `json:"type"` // "room"
	Room    string       `json:"room"`
	Players []RoomPlayer `json:"players"`
}

// QuestionMessage broadcasts the active prompt, tagged with the requester.
type QuestionMessage struct {
	Type       string   `json:"type"` // "question"
	PlayerName string   `json:"playerName"`
	Question   string   `json:"question"`
	Choices    []string `json:"choices,omitempty"`
}

// AnswerMessage broadcasts one player's submission to the whole room.
type AnswerMessage struct {
	Type        string `json:"type"` // "answer"
	PlayerName  string `json:"playerName"`
	Text        string `json:"text"`
	Time        string `json:"time"`
	IsRoundOver bool   `json:"isRoundOver"`
}

// CorrectAnswerMessage broadcasts the reveal, tagged with the requester.
type CorrectAnswerMessage struct {
	Type       string `json:"type"` // "correctAnswer"
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
	Time       string `json:"time"`
}

func messageTime() string {
	return time.Now().Format("15:04")
}

type Client struct {
	conn *websocket.Conn
	send chan any
	id   string
}

// roomSession is the lazily-created per-room record. fetchMu serializes
// question fetches for the room so two concurrent requesters cannot open
// the round with different prompts.
type roomSession struct {
	fetchMu sync.Mutex
	round   Round
}

// Coordinator routes inbound events through the registry and per-room
// round state, and fans results out to room members. One instance is
// constructed at startup and shared by every connection.
type Coordinator struct {
	cfg    *Config
	source QuestionSource

	registry *PlayerRegistry
	rooms    RoomIndex

	mu       sync.Mutex
	clients  map[string]*Client
	sessions map[string]*roomSession
}

func newCoordinator(cfg *Config, source QuestionSource) *Coordinator {
	registry := newPlayerRegistry()

	return &Coordinator{
		cfg:      cfg,
		source:   source,
		registry: registry,
		rooms:    RoomIndex{registry: registry},
		clients:  make(map[string]*Client),
		sessions: make(map[string]*roomSession),
	}
}

// Register makes a freshly upgraded connection addressable for broadcasts.
// The client is not in any room until its join event succeeds.
func (co *Coordinator) Register(c *Client) {
	co.mu.Lock()
	defer co.mu.Unlock()

	co.clients[c.id] = c
}

// sendLocked queues msg for one client, evicting it if its buffer is full.
func (co *Coordinator) sendLocked(c *Client, msg any) {
	if _, ok := co.clients[c.id]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(co.clients, c.id)
		close(c.send)
	}
}

// broadcast sends msg to every member of room, skipping the connection id
// in except (empty means nobody is skipped).
func (co *Coordinator) broadcast(room, except string, msg any) {
	members := co.rooms.MembersOf(room)

	co.mu.Lock()
	defer co.mu.Unlock()

	for _, id := range members {
		if id == except {
			continue
		}
		if c, ok := co.clients[id]; ok {
			co.sendLocked(c, msg)
		}
	}
}

func (co *Coordinator) roomSnapshot(room string) RoomMessage {
	names := co.registry.AllInRoom(room)

	players := make([]RoomPlayer, 0, len(names))
	for _, name := range names {
		players = append(players, RoomPlayer{PlayerName: name})
	}

	return RoomMessage{
		Type:    "room",
		Room:    room,
		Players: players,
	}
}

// session returns the room's session record, creating it on first use.
func (co *Coordinator) session(room string) *roomSession {
	co.mu.Lock()
	defer co.mu.Unlock()

	s, ok := co.sessions[room]
	if !ok {
		s = &roomSession{}
		co.sessions[room] = s
	}
	return s
}

// Join registers the player and announces them to the room.
func (co *Coordinator) Join(c *Client, name, room string) error {
	player, err := co.registry.Add(c.id, name, room)
	if err != nil {
		return err
	}

	co.session(player.Room)

	logf(co.cfg, "ROOMS: Player %q joined %q", player.Name, player.Room)

	co.mu.Lock()
	co.sendLocked(c, ChatMessage{
		Type:       "message",
		PlayerName: adminName,
		Text:       "Welcome!",
		Time:       messageTime(),
	})
	co.mu.Unlock()

	co.broadcast(player.Room, c.id, ChatMessage{
		Type:       "message",
		PlayerName: adminName,
		Text:       player.Name + " has joined the game!",
		Time:       messageTime(),
	})

	co.broadcast(player.Room, "", co.roomSnapshot(player.Room))

	return nil
}

// SendMessage relays a chat line to the sender's room.
func (co *Coordinator) SendMessage(c *Client, text string) error {
	player, err := co.registry.Get(c.id)
	if err != nil {
		return err
	}

	co.broadcast(player.Room, "", ChatMessage{
		Type:       "message",
		PlayerName: player.Name,
		Text:       text,
		Time:       messageTime(),
	})

	return nil
}

// RequestQuestion opens a round for the sender's room, fetching a prompt
// from the question source if none is active. Re-requests while a round is
// open or closed rebroadcast the existing prompt, so every late client
// sees the same question. The fetch runs outside the state lock; the room
// stays Idle until the prompt is stored, and a failed fetch leaves it Idle
// so any client can retry.
func (co *Coordinator) RequestQuestion(ctx context.Context, c *Client) error {
	player, err := co.registry.Get(c.id)
	if err != nil {
		return err
	}

	s := co.session(player.Room)

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	co.mu.Lock()
	prompt := s.round.Prompt()
	co.mu.Unlock()

	if prompt == nil {
		prompt, err = co.source.Fetch(ctx)
		if err != nil {
			logf(co.cfg, "ROOMS: Question fetch for %q failed: %v", player.Room, err)
			return err
		}

		co.mu.Lock()
		s.round.Open(prompt)
		co.mu.Unlock()

		logf(co.cfg, "ROOMS: Question opened in %q by %q", player.Room, player.Name)
	}

	co.broadcast(player.Room, "", QuestionMessage{
		Type:       "question",
		PlayerName: player.Name,
		Question:   prompt.Question,
		Choices:    prompt.Choices,
	})

	return nil
}

// SubmitAnswer records the sender's answer and shows it to the room along
// with whether the round just closed.
func (co *Coordinator) SubmitAnswer(c *Client, text string) error {
	player, err := co.registry.Get(c.id)
	if err != nil {
		return err
	}

	s := co.session(player.Room)

	co.mu.Lock()
	over, err := s.round.Submit(player.ID, co.rooms.Count(player.Room))
	co.mu.Unlock()

	if err != nil {
		return err
	}

	co.broadcast(player.Room, "", AnswerMessage{
		Type:        "answer",
		PlayerName:  player.Name,
		Text:        text,
		Time:        messageTime(),
		IsRoundOver: over,
	})

	return nil
}

// RevealAnswer broadcasts the correct answer and resets the room's round.
func (co *Coordinator) RevealAnswer(c *Client) error {
	player, err := co.registry.Get(c.id)
	if err != nil {
		return err
	}

	s := co.session(player.Room)

	co.mu.Lock()
	answer, err := s.round.Reveal()
	co.mu.Unlock()

	if err != nil {
		return err
	}

	co.broadcast(player.Room, "", CorrectAnswerMessage{
		Type:       "correctAnswer",
		PlayerName: player.Name,
		Text:       answer,
		Time:       messageTime(),
	})

	return nil
}

// Disconnect tears down a connection. If the player never joined a room
// this is a silent no-op; otherwise the departure is announced and the
// room's round and session record are adjusted. Safe to run concurrently
// with in-flight handlers for the same player: once the registry entry is
// gone, later handlers observe ErrPlayerNotFound.
func (co *Coordinator) Disconnect(c *Client) {
	co.mu.Lock()
	if _, ok := co.clients[c.id]; ok {
		delete(co.clients, c.id)
		close(c.send)
	}
	co.mu.Unlock()

	player, found := co.registry.Remove(c.id)
	if !found {
		return
	}

	remaining := co.rooms.Count(player.Room)

	co.mu.Lock()
	if s, ok := co.sessions[player.Room]; ok {
		if remaining == 0 {
			delete(co.sessions, player.Room)
		} else {
			s.round.DropPlayer(player.ID, remaining)
		}
	}
	co.mu.Unlock()

	logf(co.cfg, "ROOMS: Player %q left %q", player.Name, player.Room)

	if remaining == 0 {
		return
	}

	co.broadcast(player.Room, "", ChatMessage{
		Type:       "message",
		PlayerName: adminName,
		Text:       player.Name + " has left!",
		Time:       messageTime(),
	})

	co.broadcast(player.Room, "", co.roomSnapshot(player.Room))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveTriviaWS(co *Coordinator) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
			id:   uuid.NewString(),
		}

		co.Register(client)

		go client.writePump()
		client.readPump(co)
	}
}

// ack reports a request's outcome to the sender only. Events without an
// acknowledgement in the protocol (getQuestion, getAnswer) still get one
// on failure, so errors always reach the caller and nobody else.
func (co *Coordinator) ack(c *Client, event string, err error) {
	msg := AckMessage{
		Type:  "ack",
		Event: event,
	}
	if err != nil {
		msg.Error = err.Error()
	}

	co.mu.Lock()
	co.sendLocked(c, msg)
	co.mu.Unlock()
}

func (c *Client) readPump(co *Coordinator) {
	defer func() {
		co.Disconnect(c)
		_ = c.conn.Close()
	}()

	ctx := context.Background()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join":
			co.ack(c, msg.Type, co.Join(c, msg.PlayerName, msg.Room))
		case "sendMessage":
			co.ack(c, msg.Type, co.SendMessage(c, msg.Text))
		case "getQuestion":
			if err := co.RequestQuestion(ctx, c); err != nil {
				co.ack(c, msg.Type, err)
			}
		case "sendAnswer":
			co.ack(c, msg.Type, co.SubmitAnswer(c, msg.Text))
		case "getAnswer":
			if err := co.RevealAnswer(c); err != nil {
				co.ack(c, msg.Type, err)
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// newRoomID generates a crypto-random room ID for the landing-page
// redirect. Rooms are derived from membership, so no collision registry
// is needed; an existing ID just drops the visitor into that room.
func newRoomID() string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, 8)
	for i := range out {
		out[i] = letters[int(buf[i])%len(letters)]
	}
	return string(out)
}

// QR handler: generates a PNG QR code for the current room URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("roomid")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
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

	// We are at /.../:roomid/qr; strip trailing "/qr" to get the room URL.
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

// ---- Static file paths ----

//go:embed trivia/index.html
var indexHTML []byte

//go:embed trivia/app.css
var triviaCSS []byte

//go:embed trivia/app.js
var triviaJS []byte

func getIndexHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(triviaCSS)
	}
}

func getJsHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(triviaJS)
	}
}

// redirectNewRoom handles GET /path by generating a random room ID and
// redirecting to /path/:roomid.
func redirectNewRoom(cfg *Config, path string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		roomID := newRoomID()
		logf(cfg, "ROOMS: Created room %s/%s", path, roomID)
		http.Redirect(w, r, path+"/"+roomID, http.StatusTemporaryRedirect)
	}
}

// registerTriviaGame sets up routes so that:
//   - $path                  → redirects to new random room (8-char ID)
//   - $path/:roomid          → HTML client
//   - $path/:roomid/ws       → WebSocket for that room
//   - $path/:roomid/qr       → PNG QR code for that room URL
func registerTriviaGame(cfg *Config, path string, mux *httprouter.Router, co *Coordinator) {
	// Root path → redirect to new random room
	mux.GET(path, redirectNewRoom(cfg, path))

	// Per-room client view (HTML)
	mux.GET(cfg.prefix+path+"/:roomid", getIndexHandler(cfg))

	// Shared assets (no roomid in route)
	mux.GET(cfg.prefix+"/assets/trivia/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/trivia/app.js", getJsHandler(cfg))

	// Per-room websocket
	mux.GET(cfg.prefix+path+"/:roomid/ws", serveTriviaWS(co))

	// Per-room QR code
	mux.GET(cfg.prefix+path+"/:roomid/qr", qrHandler)
}
