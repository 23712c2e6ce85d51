package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/bcrypt"
)

// ---------- helpers ----------

type testServer struct {
	srv      *httptest.Server
	wsURL    string
	sessions *SessionManager
	db       *DB
}

// startTestServer spins up the full HTTP stack against a temp client dir
// and a temp database.
func startTestServer(t *testing.T) *testServer {
	t.Helper()

	clientDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(clientDir, "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(clientDir, "index.html"), []byte("<html>test</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(clientDir, "js", "main.js"), []byte("// test"), 0o644))

	db := openTestDB(t)
	auth := NewAuth(db, nil)
	auth.cost = bcrypt.MinCost
	analytics := NewAnalytics(db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	sessions := NewSessionManager(ctx, SessionOptions{MaxSessions: 4, Drops: false}, db, analytics, nil)
	hub := NewHub(sessions, db, auth, analytics, nil)
	go hub.Run(ctx)

	cfg := DefaultConfig()
	cfg.ClientDir = clientDir
	srv := httptest.NewServer(SetupRoutes(hub, cfg))

	t.Cleanup(func() {
		srv.Close()
		cancel()
		sessions.StopAll()
	})
	return &testServer{
		srv:      srv,
		wsURL:    "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		sessions: sessions,
		db:       db,
	}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(Envelope{T: msgType, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

// inMsg is one decoded server message: a JSON envelope or a frame
type inMsg struct {
	T     string
	D     json.RawMessage
	Frame *FrameMsg
}

func readMsg(t *testing.T, conn *websocket.Conn) inMsg {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	if kind == websocket.BinaryMessage {
		var f FrameMsg
		require.NoError(t, msgpack.Unmarshal(raw, &f))
		return inMsg{Frame: &f}
	}
	var env InEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return inMsg{T: env.T, D: env.D}
}

// readUntil skips frames and unrelated messages until one of type want
func readUntil(t *testing.T, conn *websocket.Conn, want string) inMsg {
	t.Helper()
	for range 500 {
		m := readMsg(t, conn)
		if m.Frame == nil && m.T == want {
			return m
		}
	}
	t.Fatalf("no %q message", want)
	return inMsg{}
}

// readFrameWhere skips messages until a frame satisfies ok
func readFrameWhere(t *testing.T, conn *websocket.Conn, ok func(*FrameMsg) bool) *FrameMsg {
	t.Helper()
	for range 500 {
		m := readMsg(t, conn)
		if m.Frame != nil && ok(m.Frame) {
			return m.Frame
		}
	}
	t.Fatal("no matching frame")
	return nil
}

func createSession(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	sendMsg(t, conn, MsgCreate, nil)
	var msg SessionMsg
	require.NoError(t, json.Unmarshal(readUntil(t, conn, MsgCreated).D, &msg))
	return msg.SID
}

func errorText(t *testing.T, m inMsg) string {
	t.Helper()
	var e ErrorMsg
	require.NoError(t, json.Unmarshal(m.D, &e))
	return e.Msg
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// ---------- HTTP ----------

func TestSPARouting(t *testing.T) {
	ts := startTestServer(t)

	resp, body := httpGet(t, ts.srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<html>")

	resp, body = httpGet(t, ts.srv.URL+"/"+GenerateUUID())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<html>", "session paths serve the app")

	resp, body = httpGet(t, ts.srv.URL+"/js/main.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "// test", string(body))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	resp, _ = httpGet(t, ts.srv.URL+"/not-a-session")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLeaderboardEndpoint(t *testing.T) {
	ts := startTestServer(t)
	_, err := ts.db.RecordRun(0, "s", testRun(700, 4, 10, 2, time.Minute))
	require.NoError(t, err)

	resp, body := httpGet(t, ts.srv.URL+"/api/leaderboard?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var board []LeaderboardEntry
	require.NoError(t, json.Unmarshal(body, &board))
	require.Len(t, board, 1)
	assert.Equal(t, 700, board[0].Score)
}

func TestStatsEndpoint(t *testing.T) {
	ts := startTestServer(t)
	_, err := ts.sessions.Create(0)
	require.NoError(t, err)

	resp, body := httpGet(t, ts.srv.URL+"/api/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.JSONEq(t, "1", string(stats["sessions"]))
	assert.Contains(t, stats, "runs")
}

func TestQREndpoint(t *testing.T) {
	ts := startTestServer(t)
	sess, err := ts.sessions.Create(0)
	require.NoError(t, err)

	resp, body := httpGet(t, ts.srv.URL+"/api/qr/"+sess.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, qrSize, img.Bounds().Dx())

	resp, _ = httpGet(t, ts.srv.URL+"/api/qr/"+GenerateUUID())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestControllerURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://game.local:8080/api/qr/abc", nil)
	assert.Equal(t, "http://game.local:8080/abc?ctrl=1", controllerURL("", r, "abc"))
	assert.Equal(t, "https://play.example.com/abc?ctrl=1", controllerURL("https://play.example.com/", r, "abc"))
}

// ---------- WebSocket ----------

func TestCreateSessionStreamsFrames(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)

	sid := createSession(t, conn)
	_, err := uuid.Parse(sid)
	require.NoError(t, err)

	sess, err := ts.sessions.Get(sid)
	require.NoError(t, err)
	assert.Equal(t, PhaseMenu, sess.Game.Phase())

	sendMsg(t, conn, MsgStart, nil)
	f := readFrameWhere(t, conn, func(f *FrameMsg) bool { return f.Phase == uint8(PhasePlaying) })
	assert.Equal(t, 1, f.HUD.Wave)
	assert.Greater(t, f.HUD.Health, 0.0)

	sendMsg(t, conn, MsgStart, nil)
	assert.Equal(t, "run already in progress", errorText(t, readUntil(t, conn, MsgError)))
}

func TestJoinUnknownSession(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)

	sendMsg(t, conn, MsgJoin, SessionMsg{SID: GenerateUUID()})
	assert.Equal(t, ErrSessionNotFound.Error(), errorText(t, readUntil(t, conn, MsgError)))
}

func TestUnknownMessageType(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)

	sendMsg(t, conn, "teleport", nil)
	assert.Equal(t, "unknown message", errorText(t, readUntil(t, conn, MsgError)))
}

func TestStartWithoutSession(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)

	sendMsg(t, conn, MsgStart, nil)
	assert.Equal(t, "not in a session", errorText(t, readUntil(t, conn, MsgError)))
}

func TestJoinSeesExistingController(t *testing.T) {
	ts := startTestServer(t)
	viewer := ts.dial(t)
	sid := createSession(t, viewer)

	phone := ts.dial(t)
	sendMsg(t, phone, MsgControl, SessionMsg{SID: sid})
	readUntil(t, phone, MsgControlOK)
	readUntil(t, viewer, MsgCtrlOn)

	second := ts.dial(t)
	sendMsg(t, second, MsgJoin, SessionMsg{SID: sid})
	readUntil(t, second, MsgJoined)
	readUntil(t, second, MsgCtrlOn)
}

func TestPhoneControllerDrivesInput(t *testing.T) {
	ts := startTestServer(t)
	viewer := ts.dial(t)
	sid := createSession(t, viewer)
	sess, err := ts.sessions.Get(sid)
	require.NoError(t, err)

	phone := ts.dial(t)
	sendMsg(t, phone, MsgControl, SessionMsg{SID: sid})
	readUntil(t, phone, MsgControlOK)
	readUntil(t, viewer, MsgCtrlOn)
	assert.True(t, sess.HasController())

	require.NoError(t, phone.WriteMessage(websocket.BinaryMessage, []byte{binaryInputTag, byte(1) << ActionFire, 127, 0x81}))
	assert.Eventually(t, func() bool { return sess.Input.IsActionHeld(ActionFire) }, time.Second, 10*time.Millisecond)
	x, y := sess.Input.PointerOffset()
	assert.InDelta(t, 1.0, x, 1e-9)
	assert.InDelta(t, -1.0, y, 1e-9)

	sendMsg(t, phone, MsgKey, KeyMsg{Action: "fire", Down: false})
	assert.Eventually(t, func() bool { return !sess.Input.IsActionHeld(ActionFire) }, time.Second, 10*time.Millisecond)

	phone.Close()
	readUntil(t, viewer, MsgCtrlOff)
	assert.False(t, sess.HasController())
}

func TestRegisterAndProfileOverWebSocket(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)

	sendMsg(t, conn, MsgProfile, nil)
	assert.Equal(t, "not authenticated", errorText(t, readUntil(t, conn, MsgError)))

	sendMsg(t, conn, MsgRegister, RegisterMsg{Username: " ace ", Password: "hunter22"})
	var ok AuthOKMsg
	require.NoError(t, json.Unmarshal(readUntil(t, conn, MsgAuthOK).D, &ok))
	assert.Equal(t, "ace", ok.Username)
	assert.NotEmpty(t, ok.Token)
	assert.Positive(t, ok.PilotID)

	sendMsg(t, conn, MsgProfile, nil)
	var profile ProfileDataMsg
	require.NoError(t, json.Unmarshal(readUntil(t, conn, MsgProfileData).D, &profile))
	assert.Equal(t, "ace", profile.Username)
	assert.Zero(t, profile.Runs)
	assert.Empty(t, profile.Achievements)
	assert.Empty(t, profile.Recent)

	other := ts.dial(t)
	sendMsg(t, other, MsgRegister, RegisterMsg{Username: "ace", Password: "hunter22"})
	assert.Equal(t, ErrUsernameTaken.Error(), errorText(t, readUntil(t, other, MsgError)))

	sendMsg(t, other, MsgAuth, AuthMsg{Token: ok.Token})
	var again AuthOKMsg
	require.NoError(t, json.Unmarshal(readUntil(t, other, MsgAuthOK).D, &again))
	assert.Equal(t, ok.PilotID, again.PilotID)
}

func TestSignedInViewerOwnsSession(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)
	sid := createSession(t, conn)

	sendMsg(t, conn, MsgRegister, RegisterMsg{Username: "owner", Password: "hunter22"})
	var ok AuthOKMsg
	require.NoError(t, json.Unmarshal(readUntil(t, conn, MsgAuthOK).D, &ok))

	sess, err := ts.sessions.Get(sid)
	require.NoError(t, err)
	assert.Equal(t, ok.PilotID, sess.Pilot())
}

func TestLeaderboardOverWebSocket(t *testing.T) {
	ts := startTestServer(t)
	for i, score := range []int{100, 300, 200} {
		_, err := ts.db.RecordRun(0, GenerateUUID(), testRun(score, i+1, 1, 0, time.Minute))
		require.NoError(t, err)
	}
	conn := ts.dial(t)

	sendMsg(t, conn, MsgLeaderboard, LeaderboardMsg{Limit: 2})
	var board []LeaderboardEntry
	require.NoError(t, json.Unmarshal(readUntil(t, conn, MsgBoard).D, &board))
	require.Len(t, board, 2)
	assert.Equal(t, 300, board[0].Score)
	assert.Equal(t, 200, board[1].Score)
}

func TestSessionLimitOverWebSocket(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)
	for range 4 {
		createSession(t, conn)
	}
	sendMsg(t, conn, MsgCreate, nil)
	assert.Equal(t, ErrSessionLimit.Error(), errorText(t, readUntil(t, conn, MsgError)))
}

func TestProfileListsRecentRuns(t *testing.T) {
	ts := startTestServer(t)
	conn := ts.dial(t)

	sendMsg(t, conn, MsgRegister, RegisterMsg{Username: "vet", Password: "hunter22"})
	var ok AuthOKMsg
	require.NoError(t, json.Unmarshal(readUntil(t, conn, MsgAuthOK).D, &ok))
	for i := 1; i <= recentRuns+2; i++ {
		_, err := ts.db.RecordRun(ok.PilotID, GenerateUUID(), testRun(i*100, i, i, 0, 45*time.Second))
		require.NoError(t, err)
	}

	sendMsg(t, conn, MsgProfile, nil)
	var profile ProfileDataMsg
	require.NoError(t, json.Unmarshal(readUntil(t, conn, MsgProfileData).D, &profile))
	assert.Equal(t, recentRuns+2, profile.Runs)
	require.Len(t, profile.Recent, recentRuns)
	assert.Equal(t, RecentRunMsg{Score: 700, Wave: 7, Kills: 7, Duration: 45}, profile.Recent[0], "newest first")
	assert.Equal(t, 300, profile.Recent[recentRuns-1].Score)
}
