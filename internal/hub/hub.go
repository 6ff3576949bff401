package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coscribe/coscribe/pkg/logger"
	"github.com/coscribe/coscribe/pkg/metrics"
)

// Event is a live edit broadcast among sessions viewing the same note. It
// carries the originating principal id so receivers can suppress their own
// echo client-side. The hub does not re-check access control here: the
// live channel is a best-effort preview path; authoritative writes go
// through the HTTP boundary.
type Event struct {
	Type    string `json:"type"`
	NoteID  string `json:"noteId"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  string `json:"userId"`
}

// EventTypeUpdate is the wire type of server-to-client fan-out messages.
const EventTypeUpdate = "note-update"

// PresenceTracker is notified when sessions enter or leave a note's
// interest group. Tracking failures are logged, never fatal.
type PresenceTracker interface {
	Join(ctx context.Context, noteID, sessionID, userID string) error
	Leave(ctx context.Context, noteID, sessionID string) error
}

// Session is one connected client. A session belongs to at most one
// interest group at a time.
type Session struct {
	ID   string
	send chan []byte
}

// Receive returns the channel the transport drains to deliver fan-out
// messages. It is closed when the session is unregistered.
func (s *Session) Receive() <-chan []byte { return s.send }

type envelope struct {
	payload []byte
	exclude string
}

// group is one note's interest group. All events enter through a single
// buffered channel and are fanned out by one dispatch goroutine, which
// gives per-group FIFO ordering without any cross-group coordination.
type group struct {
	noteID  string
	events  chan envelope
	mu      sync.RWMutex
	members map[string]*Session
}

func (g *group) run() {
	for env := range g.events {
		g.mu.RLock()
		for id, s := range g.members {
			if id == env.exclude {
				continue
			}
			select {
			case s.send <- env.payload:
				metrics.HubEventsDelivered.Inc()
			default:
				// slow or gone consumer: at-most-once, drop
				metrics.HubEventsDropped.Inc()
			}
		}
		g.mu.RUnlock()
	}
}

// Hub maintains the session registry and the per-note interest groups.
// Join/leave are safe under concurrent access from many connections.
type Hub struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	groups    map[string]*group
	byNote    map[string]string // sessionID -> joined noteID
	sendBuf   int
	eventBuf  int
	presence  PresenceTracker
}

// Option configures a Hub.
type Option func(*Hub)

// WithPresence wires a presence tracker into join/leave transitions.
func WithPresence(p PresenceTracker) Option {
	return func(h *Hub) { h.presence = p }
}

// WithBuffers overrides the per-session send buffer and per-group event
// queue sizes.
func WithBuffers(sendBuf, eventBuf int) Option {
	return func(h *Hub) {
		if sendBuf > 0 {
			h.sendBuf = sendBuf
		}
		if eventBuf > 0 {
			h.eventBuf = eventBuf
		}
	}
}

func New(opts ...Option) *Hub {
	h := &Hub{
		sessions: make(map[string]*Session),
		groups:   make(map[string]*group),
		byNote:   make(map[string]string),
		sendBuf:  64,
		eventBuf: 256,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register adds a new idle session and returns it.
func (h *Hub) Register(sessionID string) *Session {
	s := &Session{ID: sessionID, send: make(chan []byte, h.sendBuf)}
	h.mu.Lock()
	h.sessions[sessionID] = s
	h.mu.Unlock()
	metrics.HubSessionsActive.Inc()
	return s
}

// Unregister closes the session, removing it from its group first.
func (h *Hub) Unregister(ctx context.Context, sessionID string) {
	h.Leave(ctx, sessionID)
	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	if ok {
		delete(h.sessions, sessionID)
	}
	h.mu.Unlock()
	if ok {
		close(s.send)
		metrics.HubSessionsActive.Dec()
	}
}

// Join moves the session into noteID's interest group, leaving its current
// group if it has one.
func (h *Hub) Join(ctx context.Context, sessionID, noteID, userID string) {
	h.Leave(ctx, sessionID)

	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	g, ok := h.groups[noteID]
	if !ok {
		g = &group{
			noteID:  noteID,
			events:  make(chan envelope, h.eventBuf),
			members: make(map[string]*Session),
		}
		h.groups[noteID] = g
		go g.run()
	}
	g.mu.Lock()
	g.members[sessionID] = s
	g.mu.Unlock()
	h.byNote[sessionID] = noteID
	h.mu.Unlock()

	if h.presence != nil {
		if err := h.presence.Join(ctx, noteID, sessionID, userID); err != nil {
			logger.Warnf("presence join failed for note %s: %v", noteID, err)
		}
	}
}

// Leave removes the session from its current group, if any. The group's
// dispatch loop is stopped once the last member leaves.
func (h *Hub) Leave(ctx context.Context, sessionID string) {
	h.mu.Lock()
	noteID, ok := h.byNote[sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.byNote, sessionID)
	g := h.groups[noteID]
	var empty bool
	if g != nil {
		g.mu.Lock()
		delete(g.members, sessionID)
		empty = len(g.members) == 0
		g.mu.Unlock()
		if empty {
			delete(h.groups, noteID)
		}
	}
	h.mu.Unlock()

	if empty {
		close(g.events)
	}
	if h.presence != nil {
		if err := h.presence.Leave(ctx, noteID, sessionID); err != nil {
			logger.Warnf("presence leave failed for note %s: %v", noteID, err)
		}
	}
}

// Broadcast enqueues the event for fan-out to every member of noteID's
// group except excludeSessionID. Delivery is best-effort: without a group,
// or with a saturated queue, the event is dropped.
func (h *Hub) Broadcast(noteID string, ev Event, excludeSessionID string) {
	ev.Type = EventTypeUpdate
	ev.NoteID = noteID
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("marshal hub event: %v", err)
		return
	}

	// enqueue under the hub lock so the group cannot be torn down (its
	// events channel closed by the last Leave) between lookup and send
	h.mu.Lock()
	defer h.mu.Unlock()
	g := h.groups[noteID]
	if g == nil {
		return
	}
	select {
	case g.events <- envelope{payload: payload, exclude: excludeSessionID}:
		metrics.HubEventsBroadcast.Inc()
	default:
		metrics.HubEventsDropped.Inc()
	}
}
