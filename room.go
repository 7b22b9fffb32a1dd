/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// adminRecord is the single privileged identity for a room, held until
// explicitly reset. The pin is the only credential.
type adminRecord struct {
	pin  string
	name string
}

// room is the complete shared state for one session of the game. Rooms are
// created on first reference and deleted only by the reaper, so players who
// drop out of an active session keep their presence entry (shown as
// disconnected) and their votes.
type room struct {
	id       string
	clients  map[*client]bool
	presence map[string]string // clientID -> display name, retained across disconnects
	admin    *adminRecord
	items    json.RawMessage
	settings json.RawMessage
	votes    map[string]map[string]string // userName -> itemID -> tier
	teams    json.RawMessage
	lastSpin *spinState
	chat     []chatEntry
	bulletin *string
	devices  map[string]*client // deviceID -> canonical socket for that device

	lastActive time.Time
}

func (r *room) adminName() *string {
	if r.admin == nil {
		return nil
	}
	name := r.admin.name
	return &name
}

// RoomStore owns every room and arbitrates all mutation under one lock, so
// each inbound message runs to completion before the next touches room state.
type RoomStore struct {
	cfg     *Config
	clock   clockwork.Clock
	limiter *chatLimiter

	mu        sync.Mutex
	rooms     map[string]*room
	clientSeq int
}

func newRoomStore(cfg *Config, clock clockwork.Clock) *RoomStore {
	return &RoomStore{
		cfg:     cfg,
		clock:   clock,
		limiter: newChatLimiter(chatBurst, chatWindow, clock),
		rooms:   make(map[string]*room),
	}
}

// roomLocked returns the room for id, creating it on first reference.
func (s *RoomStore) roomLocked(id string) *room {
	r, ok := s.rooms[id]
	if !ok {
		r = &room{
			id:         id,
			clients:    make(map[*client]bool),
			presence:   make(map[string]string),
			votes:      make(map[string]map[string]string),
			devices:    make(map[string]*client),
			lastActive: s.clock.Now(),
		}
		s.rooms[id] = r
		logf(s.cfg, "ROOMS: Created room %q", id)
	}
	return r
}

func (s *RoomStore) nextClientIDLocked() string {
	id := fmt.Sprintf("client-%d", s.clientSeq)
	s.clientSeq++
	return id
}

func (s *RoomStore) touchLocked(r *room) {
	r.lastActive = s.clock.Now()
}

// playersLocked derives the presence roster: connected status is recomputed
// from the live socket set, and entries are deduplicated by trimmed,
// casefolded name, preferring the connected variant when both exist.
func (s *RoomStore) playersLocked(r *room) []playerInfo {
	connected := make(map[string]bool, len(r.clients))
	for c := range r.clients {
		connected[c.clientID] = true
	}

	byName := make(map[string]playerInfo)
	for clientID, name := range r.presence {
		if name == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(name))
		existing, seen := byName[key]
		if seen && (existing.Connected || !connected[clientID]) {
			continue
		}
		byName[key] = playerInfo{
			Name:      name,
			Connected: connected[clientID],
		}
	}

	players := make([]playerInfo, 0, len(byName))
	for _, p := range byName {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return strings.ToLower(players[i].Name) < strings.ToLower(players[j].Name)
	})

	return players
}

// votesLocked deep-copies the room vote table, since outbound payloads are
// marshaled outside the store lock.
func (s *RoomStore) votesLocked(r *room) map[string]map[string]string {
	votes := make(map[string]map[string]string, len(r.votes))
	for name, userVotes := range r.votes {
		copied := make(map[string]string, len(userVotes))
		for itemID, level := range userVotes {
			copied[itemID] = level
		}
		votes[name] = copied
	}
	return votes
}

func (s *RoomStore) chatLocked(r *room) []chatEntry {
	chat := make([]chatEntry, len(r.chat))
	copy(chat, r.chat)
	return chat
}

// syncLocked builds the snapshot a newly admitted socket receives.
func (s *RoomStore) syncLocked(r *room, clientID string) syncState {
	return syncState{
		RoomVotes:     s.votesLocked(r),
		TeamState:     r.teams,
		AdminClaimed:  r.admin != nil,
		AdminName:     r.adminName(),
		Players:       s.playersLocked(r),
		Items:         r.items,
		Settings:      r.settings,
		BulletinBoard: r.bulletin,
		ChatMessages:  s.chatLocked(r),
		ClientID:      clientID,
	}
}

// reap deletes every room that has no open sockets and has been idle for at
// least the configured TTL, and sweeps the chat limiter on the same cadence.
func (s *RoomStore) reap() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-s.cfg.roomTTL)

	for id, r := range s.rooms {
		if len(r.clients) == 0 && r.lastActive.Before(cutoff) {
			delete(s.rooms, id)
			logf(s.cfg, "ROOMS: Reaped idle room %q", id)
		}
	}

	s.limiter.sweep()
}

// reaperLoop runs one sweep immediately, then one per interval until the
// context is cancelled.
func (s *RoomStore) reaperLoop(ctx context.Context) {
	s.reap()

	ticker := s.clock.NewTicker(s.cfg.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.reap()
		}
	}
}
