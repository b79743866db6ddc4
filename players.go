/*
Copyright © 2026 Salma <salma247@pm.me>
*/

package main

import (
	"strings"
	"sync"
)

// Player holds the data we store server-side for one connection.
type Player struct {
	ID   string
	Name string
	Room string
}

// normalizeRoom trims and case-folds a room name so that "Lobby " and
// "lobby" address the same room.
func normalizeRoom(room string) string {
	return strings.ToLower(strings.TrimSpace(room))
}

// PlayerRegistry owns every Player record, keyed by connection identity.
// Players are kept in join order, which is also the display order of
// room membership lists.
type PlayerRegistry struct {
	mu      sync.RWMutex
	players []Player
}

func newPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{}
}

// Add registers a new player. The name must be unique (case-insensitively)
// among players currently in the same room; the same name in a different
// room is fine.
func (reg *PlayerRegistry) Add(id, name, room string) (Player, error) {
	name = strings.TrimSpace(name)
	room = normalizeRoom(room)

	if name == "" || room == "" {
		return Player{}, ErrInvalidInput
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, p := range reg.players {
		if p.Room == room && strings.EqualFold(p.Name, name) {
			return Player{}, ErrDuplicateName
		}
	}

	player := Player{
		ID:   id,
		Name: name,
		Room: room,
	}
	reg.players = append(reg.players, player)

	return player, nil
}

// Get looks up the player registered under a connection id.
func (reg *PlayerRegistry) Get(id string) (Player, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	for _, p := range reg.players {
		if p.ID == id {
			return p, nil
		}
	}

	return Player{}, ErrPlayerNotFound
}

// Remove deletes and returns the player registered under id. A missing
// player is not an error; disconnect-before-join is a normal no-op.
func (reg *PlayerRegistry) Remove(id string) (Player, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	dst := reg.players[:0]
	var removed Player
	found := false

	for _, p := range reg.players {
		if p.ID == id {
			removed = p
			found = true
			continue
		}
		dst = append(dst, p)
	}
	reg.players = dst

	return removed, found
}

// AllInRoom returns the display names of everyone in a room, in join order.
func (reg *PlayerRegistry) AllInRoom(room string) []string {
	room = normalizeRoom(room)

	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := make([]string, 0, len(reg.players))
	for _, p := range reg.players {
		if p.Room == room {
			names = append(names, p.Name)
		}
	}

	return names
}

// RoomIndex is a read-only projection over the registry. Membership is
// recomputed from registry state on every call rather than cached, so it
// can never drift.
type RoomIndex struct {
	registry *PlayerRegistry
}

// MembersOf returns the connection ids of everyone in a room, in join order.
func (ix RoomIndex) MembersOf(room string) []string {
	room = normalizeRoom(room)

	ix.registry.mu.RLock()
	defer ix.registry.mu.RUnlock()

	ids := make([]string, 0, len(ix.registry.players))
	for _, p := range ix.registry.players {
		if p.Room == room {
			ids = append(ids, p.ID)
		}
	}

	return ids
}

// Count returns the number of players currently in a room.
func (ix RoomIndex) Count(room string) int {
	room = normalizeRoom(room)

	ix.registry.mu.RLock()
	defer ix.registry.mu.RUnlock()

	count := 0
	for _, p := range ix.registry.players {
		if p.Room == room {
			count++
		}
	}

	return count
}
