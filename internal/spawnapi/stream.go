/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package spawnapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// StreamEvent is a status-change event pushed to connected /watch clients,
// mirroring the watch-stream shape described for C1 ("added|updated|deleted,
// object") but scoped to phase transitions. Only the Mission reconciler
// publishes events; Formation changes are not streamed.
type StreamEvent struct {
	Kind      string `json:"kind"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	EventType string `json:"eventType"`
	Phase     string `json:"phase"`
}

// Hub fans StreamEvents out to every connected /watch client.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]chan []byte),
	}
}

// Publish builds a StreamEvent and broadcasts it. It has no pointer/struct
// dependency on callers outside this package so a controller can depend on
// a narrow local interface instead of importing spawnapi.
func (h *Hub) Publish(kind, namespace, name, eventType, phase string) {
	h.Broadcast(StreamEvent{Kind: kind, Namespace: namespace, Name: name, EventType: eventType, Phase: phase})
}

// Broadcast fans an event out to every connected client, dropping it for any
// client whose send buffer is full rather than blocking the publisher.
func (h *Hub) Broadcast(event StreamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- data:
		default:
		}
	}
}

// ServeWatch upgrades the request to a WebSocket and streams events to it
// until the client disconnects.
func (h *Hub) ServeWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	send := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		close(send)
		conn.Close()
	}()

	for data := range send {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
