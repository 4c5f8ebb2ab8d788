// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package job

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// EventType names the frames pushed over a job's progress room.
type EventType string

const (
	EventProgress EventType = "translation_progress"
	EventComplete EventType = "translation_complete"
	EventError    EventType = "translation_error"
)

// Event is one frame pushed to every client watching a job.
type Event struct {
	Type    EventType `json:"type"`
	JobID   string    `json:"job_id"`
	Current int64     `json:"current,omitempty"`
	Total   int64     `json:"total,omitempty"`
	Phase   string    `json:"phase,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Hub multiplexes per-job progress events to WebSocket clients, one
// "room" per job id. Grounded on the teacher's async-job/status HTTP
// surface (cmd/cie/serve.go's indexJob/progress types), extended with
// a push channel since the teacher's clients poll instead.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*websocket.Conn]struct{}
	logger *slog.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewHub constructs an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{rooms: make(map[string]map[*websocket.Conn]struct{}), logger: logger}
}

// Join upgrades r into a WebSocket connection subscribed to jobID's
// room. The connection stays in the room until the caller passes it
// to Leave, which also closes it.
func (h *Hub) Join(w http.ResponseWriter, r *http.Request, jobID string) (*websocket.Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	room, ok := h.rooms[jobID]
	if !ok {
		room = make(map[*websocket.Conn]struct{})
		h.rooms[jobID] = room
	}
	room[conn] = struct{}{}
	h.mu.Unlock()

	return conn, nil
}

// Leave removes conn from jobID's room and closes it.
func (h *Hub) Leave(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	if room, ok := h.rooms[jobID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, jobID)
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// Broadcast pushes ev to every connection in its job's room. A failed
// write is logged and skipped; the connection stays in the room until
// its own Leave.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	room := h.rooms[ev.JobID]
	conns := make([]*websocket.Conn, 0, len(room))
	for c := range room {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("job.events.marshal_failed", "error", err)
		return
	}

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("job.events.write_failed", "job_id", ev.JobID, "error", err)
		}
	}
}

// ProgressCallback returns a job.ProgressCallback that broadcasts
// translation_progress events for jobID over h.
func (h *Hub) ProgressCallback(jobID string) ProgressCallback {
	return func(current, total int64, phase string) {
		h.Broadcast(Event{Type: EventProgress, JobID: jobID, Current: current, Total: total, Phase: phase})
	}
}
