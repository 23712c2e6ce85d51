package main

import "encoding/json"

// Client -> Server message types
const (
	MsgCreate      = "create"  // create a session and watch it
	MsgJoin        = "join"    // watch an existing session
	MsgControl     = "control" // phone controller attach
	MsgLeave       = "leave"
	MsgStart       = "start"
	MsgRestart     = "restart"
	MsgKey         = "key"     // action down/up
	MsgPointer     = "pointer" // normalized pointer offset
	MsgRegister    = "register"
	MsgLogin       = "login"
	MsgAuth        = "auth"
	MsgLeaderboard = "leaderboard"
	MsgProfile     = "profile"
)

// Server -> Client message types
const (
	MsgCreated     = "created"
	MsgJoined      = "joined"
	MsgControlOK   = "control_ok"
	MsgCtrlOn      = "ctrl_on"  // notify viewers: controller attached
	MsgCtrlOff     = "ctrl_off" // notify viewers: controller detached
	MsgRunOver     = "run_over"
	MsgAchievement = "achievement"
	MsgAuthOK      = "auth_ok"
	MsgBoard       = "board"
	MsgProfileData = "profile_data"
	MsgError       = "error"
)

// binaryInputTag marks the compact binary input frame:
// [0x01, heldMask, pointerX int8, pointerY int8]
const binaryInputTag = 0x01

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages. json.RawMessage avoids double-unmarshal.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// SessionMsg names a session
type SessionMsg struct {
	SID string `json:"sid"`
}

// KeyMsg reports an action going down or up
type KeyMsg struct {
	Action string `json:"a"`
	Down   bool   `json:"down"`
}

// PointerMsg carries the pointer offset in [-1,1]
type PointerMsg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RegisterMsg creates a pilot account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg signs a pilot in
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a pilot from a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms a signed-in pilot
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PilotID  int64  `json:"pid"`
}

// LeaderboardMsg asks for the top runs
type LeaderboardMsg struct {
	Limit int `json:"limit"`
}

// RunOverMsg is sent to viewers when a run ends
type RunOverMsg struct {
	Score    int     `json:"score"`
	Wave     int     `json:"wave"`
	Kills    int     `json:"kills"`
	Duration float64 `json:"duration"` // seconds
	Best     int     `json:"best,omitempty"`
}

// AchievementMsg announces a newly unlocked achievement
type AchievementMsg struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// ProfileDataMsg is the signed-in pilot's career
type ProfileDataMsg struct {
	Username     string         `json:"username"`
	Runs         int            `json:"runs"`
	BestScore    int            `json:"best_score"`
	BestWave     int            `json:"best_wave"`
	TotalKills   int            `json:"total_kills"`
	Playtime     float64        `json:"playtime"`
	Achievements []string       `json:"achievements"`
	Recent       []RecentRunMsg `json:"recent"`
}

// RecentRunMsg is one of the pilot's latest runs
type RecentRunMsg struct {
	Score    int     `json:"score"`
	Wave     int     `json:"wave"`
	Kills    int     `json:"kills"`
	Duration float64 `json:"duration"` // seconds
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// Frame types are msgpack-encoded and sent as binary messages once per tick.

// HUDState is what the on-screen indicators show
type HUDState struct {
	Score     int     `msgpack:"sc"`
	Wave      int     `msgpack:"w"`
	Health    float64 `msgpack:"hp"`
	Shield    float64 `msgpack:"sh"`
	Boost     float64 `msgpack:"bo"`
	RapidFire bool    `msgpack:"rf"`
	RollReady bool    `msgpack:"rr"`
}

// CameraState carries screen shake and the muzzle light intensity
type CameraState struct {
	Shake float64 `msgpack:"sk"`
	Flash float64 `msgpack:"fl"`
}

// PlayerState is the ship pose
type PlayerState struct {
	Pos     Vec3  `msgpack:"p"`
	Rot     Euler `msgpack:"r"`
	Boost   bool  `msgpack:"b"`
	Rolling bool  `msgpack:"rl"`
}

// BulletState is one bullet with its trail, newest point first
type BulletState struct {
	ID    Handle `msgpack:"id"`
	Pos   Vec3   `msgpack:"p"`
	Trail []Vec3 `msgpack:"tr"`
}

// AsteroidState is one asteroid
type AsteroidState struct {
	ID     Handle  `msgpack:"id"`
	Pos    Vec3    `msgpack:"p"`
	Rot    Euler   `msgpack:"r"`
	Size   float64 `msgpack:"s"`
	Health int     `msgpack:"hp"`
}

// EnemyState is one enemy ship
type EnemyState struct {
	ID       Handle `msgpack:"id"`
	Pos      Vec3   `msgpack:"p"`
	Rot      Euler  `msgpack:"r"`
	Health   int    `msgpack:"hp"`
	Behavior uint8  `msgpack:"bh"`
}

// ParticleState is one live explosion particle
type ParticleState struct {
	Pos  Vec3    `msgpack:"p"`
	Life float64 `msgpack:"l"`
}

// ExplosionState is one explosion
type ExplosionState struct {
	ID          Handle          `msgpack:"id"`
	Pos         Vec3            `msgpack:"p"`
	Size        float64         `msgpack:"s"`
	RingScale   float64         `msgpack:"rs"`
	RingOpacity float64         `msgpack:"ro"`
	Particles   []ParticleState `msgpack:"pt"`
}

// PowerupState is one powerup
type PowerupState struct {
	ID   Handle  `msgpack:"id"`
	Pos  Vec3    `msgpack:"p"`
	Rot  float64 `msgpack:"r"`
	Type uint8   `msgpack:"ty"`
}

// EventType tags a lifecycle or effect event
type EventType uint8

const (
	EventSpawn EventType = iota + 1
	EventDespawn
	EventExplosion
	EventPlayerHit
	EventPowerup
	EventWaveCleared
	EventGameOver
)

// Event tells the renderer something happened this tick. Renderers create
// and destroy drawables from Spawn and Despawn events keyed by Handle.
type Event struct {
	Type     EventType   `msgpack:"t"`
	Handle   Handle      `msgpack:"h,omitempty"`
	Kind     Kind        `msgpack:"k,omitempty"`
	Pos      Vec3        `msgpack:"p"`
	Amount   float64     `msgpack:"a,omitempty"`
	Powerup  PowerupType `msgpack:"pu,omitempty"`
	Wave     int         `msgpack:"w,omitempty"`
	Flawless bool        `msgpack:"fw,omitempty"`
}

// FrameMsg is everything a renderer needs for one tick
type FrameMsg struct {
	Tick         uint64           `msgpack:"tick"`
	Phase        uint8            `msgpack:"ph"`
	HUD          HUDState         `msgpack:"hud"`
	Camera       CameraState      `msgpack:"cam"`
	Player       PlayerState      `msgpack:"pl"`
	Bullets      []BulletState    `msgpack:"b"`
	EnemyBullets []BulletState    `msgpack:"eb"`
	Asteroids    []AsteroidState  `msgpack:"a"`
	Enemies      []EnemyState     `msgpack:"e"`
	Explosions   []ExplosionState `msgpack:"x"`
	Powerups     []PowerupState   `msgpack:"pu"`
	Events       []Event          `msgpack:"ev"`
}

func roundVec(v Vec3) Vec3 {
	return Vec3{round2(v.X), round2(v.Y), round2(v.Z)}
}

func roundEuler(e Euler) Euler {
	return Euler{round2(e.X), round2(e.Y), round2(e.Z)}
}
