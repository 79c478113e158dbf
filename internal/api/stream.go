package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/signalsfoundry/region-globe/internal/logging"
	"github.com/signalsfoundry/region-globe/internal/scene"
)

// Hub fans scene snapshots out to stream subscribers. Slow subscribers miss
// frames rather than stall the frame loop.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan scene.Snapshot
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan scene.Snapshot)}
}

// Subscribe registers a subscriber with the given buffer size.
func (h *Hub) Subscribe(buffer int) (<-chan scene.Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan scene.Snapshot, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers a snapshot to every subscriber with buffer space.
// It returns the number of subscribers that received it.
func (h *Hub) Publish(s scene.Snapshot) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, ch := range h.subs {
		select {
		case ch <- s:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// StreamHandler writes every published snapshot to the websocket as JSON
// until the client goes away.
func StreamHandler(hub *Hub, log logging.Logger) func(*websocket.Conn) {
	if log == nil {
		log = logging.Noop()
	}
	return func(c *websocket.Conn) {
		defer c.Close()

		snaps, unsubscribe := hub.Subscribe(4)
		defer unsubscribe()

		remote := c.RemoteAddr().String()
		ctx := context.Background()
		if rid, ok := c.Locals(requestIDLocal).(string); ok && rid != "" {
			ctx = logging.ContextWithRequestID(ctx, rid)
		}
		log.Info(ctx, "stream client connected", logging.String("remote", remote))

		// Reads only detect the close; clients have nothing to say.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				data, err := json.Marshal(snap)
				if err != nil {
					log.Error(ctx, "encode snapshot", logging.Err(err))
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			case <-ping.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				log.Info(ctx, "stream client disconnected", logging.String("remote", remote))
				return
			}
		}
	}
}
