package main

import (
	"encoding/json"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Presenter is the render side of a game. It receives one frame per tick
// and owns it after the call.
type Presenter interface {
	Present(f *FrameMsg)
}

type nopPresenter struct{}

func (nopPresenter) Present(*FrameMsg) {}

// Viewer is a connection that displays a game
type Viewer interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// FrameBroadcaster encodes frames with msgpack and fans them out to every
// viewer. A frame identical to the previous one is not resent, which keeps
// menu and game-over screens quiet.
type FrameBroadcaster struct {
	mu       sync.RWMutex
	viewers  map[Viewer]struct{}
	lastHash uint64
	log      *zap.Logger
}

// NewFrameBroadcaster creates an empty broadcaster
func NewFrameBroadcaster(log *zap.Logger) *FrameBroadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &FrameBroadcaster{
		viewers: make(map[Viewer]struct{}),
		log:     log,
	}
}

// Add attaches v. The next frame is sent even if unchanged so v gets a picture.
func (b *FrameBroadcaster) Add(v Viewer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewers[v] = struct{}{}
	b.lastHash = 0
}

// Remove detaches v
func (b *FrameBroadcaster) Remove(v Viewer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.viewers, v)
}

// Count returns the number of attached viewers
func (b *FrameBroadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.viewers)
}

// Present encodes f and sends it to every viewer
func (b *FrameBroadcaster) Present(f *FrameMsg) {
	data, err := msgpack.Marshal(f)
	if err != nil {
		b.log.Error("frame encode failed", zap.Error(err))
		return
	}
	h := xxhash.Sum64(data)

	b.mu.Lock()
	if h == b.lastHash {
		b.mu.Unlock()
		return
	}
	b.lastHash = h
	viewers := make([]Viewer, 0, len(b.viewers))
	for v := range b.viewers {
		viewers = append(viewers, v)
	}
	b.mu.Unlock()

	for _, v := range viewers {
		v.SendBinary(data)
	}
}

// BroadcastJSON sends a control message to every viewer
func (b *FrameBroadcaster) BroadcastJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.log.Error("marshal failed", zap.Error(err))
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for v := range b.viewers {
		if c, ok := v.(*Client); ok {
			c.SendRaw(data)
			continue
		}
		v.SendJSON(msg)
	}
}
