package main

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120 // controllers stream input at tick rate
	defaultBoardSize  = 10
	maxBoardSize      = 100
	recentRuns        = 5 // runs listed in a profile
)

// Client is one WebSocket connection: a screen watching a session or a
// phone controlling one.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	log        *zap.Logger
	msgCount   int
	msgResetAt time.Time
	// Owned by ReadPump
	session      *Session
	isController bool
	// Auth state
	pilotID  int64  // 0 = guest
	username string // "" = guest
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
		log:        hub.log.With(zap.String("remote", remoteAddr)),
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.leave()
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("ws read error", zap.Error(err))
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.log.Warn("rate limit exceeded, disconnecting")
			break
		}

		if msgType == websocket.BinaryMessage {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal error", zap.Error(err))
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }() // send closed by the hub
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Debug("unmarshal error", zap.Error(err))
		return
	}

	switch env.T {
	case MsgCreate:
		c.handleCreate()
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgControl:
		c.handleControl(env.D)
	case MsgLeave:
		c.leave()
	case MsgStart:
		c.handleStart()
	case MsgRestart:
		c.handleRestart()
	case MsgKey:
		c.handleKey(env.D)
	case MsgPointer:
		c.handlePointer(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgLeaderboard:
		c.handleLeaderboard(env.D)
	case MsgProfile:
		c.handleProfile()
	default:
		c.sendError("unknown message")
	}
}

// watch attaches the client to sess as a viewer
func (c *Client) watch(sess *Session) {
	c.leave()
	c.session = sess
	c.isController = false
	sess.Frames.Add(c)
	sess.Touch(time.Now())
}

// leave detaches from the current session, if any
func (c *Client) leave() {
	sess := c.session
	if sess == nil {
		return
	}
	if c.isController {
		sess.DetachController()
	} else {
		sess.Frames.Remove(c)
	}
	sess.Touch(time.Now())
	c.session = nil
	c.isController = false
}

func (c *Client) handleCreate() {
	sess, err := c.hub.sessions.Create(c.pilotID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.watch(sess)
	c.SendJSON(Envelope{T: MsgCreated, Data: SessionMsg{SID: sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg SessionMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess, err := c.hub.sessions.Get(msg.SID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.watch(sess)
	c.SendJSON(Envelope{T: MsgJoined, Data: SessionMsg{SID: sess.ID}})
	if sess.HasController() {
		c.SendJSON(Envelope{T: MsgCtrlOn})
	}
}

func (c *Client) handleControl(data json.RawMessage) {
	var msg SessionMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess, err := c.hub.sessions.Get(msg.SID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.leave()
	c.session = sess
	c.isController = true
	sess.AttachController()
	sess.Touch(time.Now())
	c.SendJSON(Envelope{T: MsgControlOK, Data: SessionMsg{SID: sess.ID}})
}

func (c *Client) handleStart() {
	if c.session == nil {
		c.sendError("not in a session")
		return
	}
	if c.session.Game.Phase() == PhasePlaying {
		c.sendError("run already in progress")
		return
	}
	c.session.Game.Start()
}

func (c *Client) handleRestart() {
	if c.session == nil {
		c.sendError("not in a session")
		return
	}
	if err := c.session.Game.Restart(); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleKey(data json.RawMessage) {
	if c.session == nil {
		return
	}
	var msg KeyMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	action, ok := ParseAction(msg.Action)
	if !ok {
		return
	}
	if msg.Down {
		c.session.Input.KeyDown(action)
	} else {
		c.session.Input.KeyUp(action)
	}
}

func (c *Client) handlePointer(data json.RawMessage) {
	if c.session == nil {
		return
	}
	var msg PointerMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.session.Input.SetPointer(msg.X, msg.Y)
}

// handleBinaryInput decodes the compact controller frame
// [0x01, heldMask, pointerX int8, pointerY int8]
func (c *Client) handleBinaryInput(msg []byte) {
	if c.session == nil || len(msg) != 4 || msg[0] != binaryInputTag {
		return
	}
	c.session.Input.SetHeldMask(msg[1])
	c.session.Input.SetPointer(float64(int8(msg[2]))/127, float64(int8(msg[3]))/127)
}

// signedIn records the pilot and credits the watched session's runs to them
func (c *Client) signedIn(id int64, username, token string) {
	c.pilotID = id
	c.username = username
	if c.session != nil && !c.isController {
		c.session.SetPilot(id)
	}
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: username,
		PilotID:  id,
	}})
}

// authError turns an auth failure into something safe to show the user
func (c *Client) authError(err error) {
	for _, known := range []error{
		ErrUsernameTaken, ErrInvalidCredentials, ErrRateLimited,
		ErrInvalidToken, ErrInvalidUsername, ErrWeakPassword,
	} {
		if errors.Is(err, known) {
			c.sendError(err.Error())
			return
		}
	}
	c.log.Error("auth failed", zap.Error(err))
	c.sendError("internal error")
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.authError(err)
		return
	}
	c.signedIn(id, strings.TrimSpace(msg.Username), token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.authError(err)
		return
	}
	c.signedIn(id, strings.TrimSpace(msg.Username), token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts are disabled")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError(ErrInvalidToken.Error())
		return
	}
	c.signedIn(id, username, msg.Token)
}

func (c *Client) handleLeaderboard(data json.RawMessage) {
	var msg LeaderboardMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	entries := []LeaderboardEntry{}
	if c.hub.db != nil {
		var err error
		entries, err = c.hub.db.GetLeaderboard(boardLimit(msg.Limit))
		if err != nil {
			c.log.Error("leaderboard query", zap.Error(err))
			c.sendError("internal error")
			return
		}
	}
	c.SendJSON(Envelope{T: MsgBoard, Data: entries})
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.pilotID == 0 {
		c.sendError("not authenticated")
		return
	}
	stats, err := c.hub.db.GetStats(c.pilotID)
	if err != nil || stats == nil {
		c.sendError("profile not found")
		return
	}
	unlocked, err := c.hub.db.GetAchievements(c.pilotID)
	if err != nil {
		c.log.Error("achievements query", zap.Error(err))
	}
	if unlocked == nil {
		unlocked = []string{}
	}
	runs, err := c.hub.db.GetRuns(c.pilotID, recentRuns)
	if err != nil {
		c.log.Error("recent runs query", zap.Error(err))
	}
	recent := make([]RecentRunMsg, 0, len(runs))
	for _, r := range runs {
		recent = append(recent, RecentRunMsg{
			Score:    r.Score,
			Wave:     r.Wave,
			Kills:    r.Kills,
			Duration: round1(r.Duration),
		})
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:     c.username,
		Runs:         stats.Runs,
		BestScore:    stats.BestScore,
		BestWave:     stats.BestWave,
		TotalKills:   stats.TotalKills,
		Playtime:     round1(stats.Playtime),
		Achievements: unlocked,
		Recent:       recent,
	}})
}

// boardLimit clamps a requested leaderboard size
func boardLimit(n int) int {
	if n <= 0 {
		return defaultBoardSize
	}
	if n > maxBoardSize {
		return maxBoardSize
	}
	return n
}
