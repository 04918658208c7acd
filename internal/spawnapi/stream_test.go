/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package spawnapi

import "testing"

func TestHubBroadcastWithNoClientsDoesNotPanic(t *testing.T) {
	hub := NewHub()
	hub.Publish("Mission", "default", "ship-it", "updated", "Succeeded")
}

func TestHubBroadcastDeliversToRegisteredClient(t *testing.T) {
	hub := NewHub()
	send := make(chan []byte, 1)
	hub.mu.Lock()
	hub.clients[nil] = send
	hub.mu.Unlock()

	hub.Publish("Mission", "default", "ship-it", "updated", "Succeeded")

	select {
	case data := <-send:
		if len(data) == 0 {
			t.Error("expected a non-empty broadcast payload")
		}
	default:
		t.Error("expected the registered client to receive the broadcast")
	}
}
