/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Spinbox Wheel
//
// Several devices in one physical room join a shared session and see the same
// live state: who is present, who holds admin, the item list and votes, what
// the wheel just landed on, and team/victory announcements.
//
// The server is a per-room state machine behind a single WebSocket endpoint:
// - Rooms are created on first reference and reaped after 24h of idleness
// - Clients are identified by a monotonic process-unique client ID
// - A client-supplied device ID arbitrates duplicate connections from one
//   physical device via an explicit confirmation handshake
// - Display names are case-insensitively unique among connected clients
// - Admin is claimed with a shared 4-digit PIN, one admin per room
// - The wheel spin is computed client-side; the server stores the outcome
//   and replays it to late joiners
// - Votes, items, settings, teams, chat, and the bulletin board are room
//   slices that fan out to every open socket on mutation
//
// The server does not enforce admin authority for items, settings, votes,
// spins, teams, or the bulletin board. That trust boundary is inherited from
// the browser client, which hides those controls from non-admins.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	// Time allowed to flush a close frame to the peer.
	writeWait = 10 * time.Second

	// Room joined when the upgrade request carries no room parameter.
	defaultRoom = "default"

	// Chat messages allowed per sender within one rolling window.
	chatBurst  = 5
	chatWindow = time.Second

	multipleConnectionsNotice = "Multiple connections detected from this device. Connecting will disconnect your other session. Do you want to continue?"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is the per-connection context: transport, identity, and the per-socket
// flags the protocol depends on. All fields other than conn and send are
// guarded by the RoomStore lock.
type client struct {
	conn     *websocket.Conn
	send     chan any
	roomID   string
	clientID string
	deviceID string

	isAdmin bool
	pending bool // awaiting multiple_connections_confirm, not yet admitted
	kicked  bool // presence already deleted, skip the usual disconnect path
	closed  bool

	stashedSync *syncState // snapshot held back until the handshake resolves
}

// trySend queues a message without blocking; a full channel reports failure
// so the caller can drop the client.
func (c *client) trySend(msg any) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSocket flushes a close frame with the given code and tears down the
// transport. The peer's read loop sees the code; our own read pump then exits
// and runs disconnect cleanup.
func closeSocket(c *client, code int, reason string) {
	if c.conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = c.conn.Close()
}

// serveWSForStore upgrades /ws requests and hands the socket to the store.
// Room id and device id travel as query parameters; a missing room falls back
// to the default room.
func serveWSForStore(cfg *Config, store *RoomStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			roomID = defaultRoom
		}
		deviceID := r.URL.Query().Get("deviceId")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "WS: Upgrade failed for %s: %v", realIP(r), err)
			return
		}

		c := store.connect(conn, roomID, deviceID)

		go c.writePump()
		c.readPump(store)
	}
}

// connect assigns a fresh client identity and either admits the socket with a
// snapshot, or parks it pending the duplicate-device handshake when its
// device id is already bound to an open socket in the room.
func (s *RoomStore) connect(conn *websocket.Conn, roomID, deviceID string) *client {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(roomID)

	c := &client{
		conn:     conn,
		send:     make(chan any, 16),
		roomID:   roomID,
		clientID: s.nextClientIDLocked(),
		deviceID: deviceID,
	}

	if deviceID != "" {
		if prev := r.devices[deviceID]; prev != nil && !prev.closed {
			// Stash the snapshot now so the state the user confirmed into is
			// the state they saw prompted; delivery waits for the handshake.
			c.pending = true
			snap := s.syncLocked(r, c.clientID)
			c.stashedSync = &snap
			logf(s.cfg, "WS: Duplicate device %q in room %q, prompting %s", deviceID, roomID, c.clientID)
			c.trySend(outboundMessage{
				Type:    "multiple_connections_prompt",
				Payload: errorMessage{Message: multipleConnectionsNotice},
			})
			return c
		}
		r.devices[deviceID] = c
	}

	s.admitLocked(r, c, s.syncLocked(r, c.clientID))
	return c
}

// admitLocked registers the socket as open in the room and delivers the
// snapshot plus, when a spin has already happened, a replay of its outcome so
// the client renders the resting wheel.
func (s *RoomStore) admitLocked(r *room, c *client, snap syncState) {
	r.clients[c] = true

	s.sendLocked(r, c, outboundMessage{Type: "sync", Payload: snap})

	if r.lastSpin != nil {
		replay := *r.lastSpin
		replay.Replay = true
		s.sendLocked(r, c, outboundMessage{Type: "spin", Payload: replay})
	}

	logf(s.cfg, "WS: Admitted %s to room %q (%d connected)", c.clientID, r.id, len(r.clients))
}

func (c *client) readPump(s *RoomStore) {
	defer func() {
		s.disconnect(c)
		_ = c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logf(s.cfg, "WS: Rejecting malformed frame from %s: %v", c.clientID, err)
			continue
		}

		s.dispatch(c, msg)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// disconnect detaches a socket whose transport has closed. The presence entry
// is retained so the roster can show the player as disconnected; only a kick
// removes it. The device binding is released only if this socket still holds
// it, since a confirmed duplicate rebinds the device before the old transport
// finishes closing.
func (s *RoomStore) disconnect(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[c.roomID]
	if !ok {
		s.releaseLocked(c)
		return
	}

	wasOpen := r.clients[c]
	delete(r.clients, c)
	s.releaseLocked(c)

	if c.deviceID != "" && r.devices[c.deviceID] == c {
		delete(r.devices, c.deviceID)
	}

	if wasOpen && !c.kicked {
		s.broadcastPresenceLocked(r)
	}
}

// releaseLocked marks the client closed and closes its send channel exactly once.
func (s *RoomStore) releaseLocked(c *client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// sendLocked queues a message for one client, dropping the client outright if
// its channel is saturated. Delivery is fire-and-forget.
func (s *RoomStore) sendLocked(r *room, c *client, msg any) {
	if c.closed {
		return
	}
	if !c.trySend(msg) {
		delete(r.clients, c)
		s.releaseLocked(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

func (s *RoomStore) broadcastLocked(r *room, msg any) {
	for c := range r.clients {
		s.sendLocked(r, c, msg)
	}
}

func (s *RoomStore) broadcastPresenceLocked(r *room) {
	s.broadcastLocked(r, outboundMessage{
		Type:    "presence",
		Payload: presenceBroadcast{Players: s.playersLocked(r)},
	})
}

// decodePayload unmarshals an inbound payload, treating an absent payload as
// empty. Undecodable payloads are rejected with a log line but no response.
func decodePayload(cfg *Config, c *client, msg inboundMessage, dst any) bool {
	if len(msg.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		logf(cfg, "WS: Rejecting bad %q payload from %s: %v", msg.Type, c.clientID, err)
		return false
	}
	return true
}

// dispatch routes one decoded frame. The duplicate-device confirmation is the
// only message a pending socket may send; everything else from it is ignored
// until the handshake resolves.
func (s *RoomStore) dispatch(c *client, msg inboundMessage) {
	if msg.Type == "multiple_connections_confirm" {
		var p confirmRequest
		if !decodePayload(s.cfg, c, msg, &p) {
			return
		}
		s.handleConfirm(c, p)
		return
	}

	if c.pending {
		return
	}

	switch msg.Type {
	case "presence":
		var p presenceRequest
		if decodePayload(s.cfg, c, msg, &p) {
			s.handlePresence(c, p)
		}
	case "admin_claim":
		var p adminClaimRequest
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleAdminClaim(c, p)
		}
	case "admin_unlock":
		var p adminUnlockRequest
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleAdminUnlock(c, p)
		}
	case "admin_reset":
		var p adminResetRequest
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleAdminReset(c, p)
		}
	case "player_rename":
		var p renameRequest
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleRename(c, p)
		}
	case "player_kick":
		var p kickRequest
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleKick(c, p)
		}
	case "spin":
		var p spinState
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleSpin(c, p)
		}
	case "vote":
		var p voteRequest
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleVote(c, p)
		}
	case "items_update":
		var p itemsUpdate
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleItems(c, p)
		}
	case "settings_update":
		var p settingsUpdate
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleSettings(c, p)
		}
	case "teams":
		var p teamsUpdate
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleTeams(c, p)
		}
	case "victory":
		var p victoryRequest
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleVictory(c, p)
		}
	case "bulletin_board_update":
		var p bulletinUpdate
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleBulletin(c, p)
		}
	case "chat_message":
		var p chatRequest
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleChat(c, p)
		}
	case "check_room_status":
		var p roomStatusRequest
		if decodePayload(s.cfg, c, msg, &p) {
			s.handleRoomStatus(c, p)
		}
	case "ping":
		s.handlePing(c)
	default:
		logf(s.cfg, "WS: Rejecting unknown message type %q from %s", msg.Type, c.clientID)
	}
}

// handleConfirm resolves the duplicate-device handshake. Proceeding closes
// the prior socket with 4009, rebinds the device, and admits this socket with
// the stashed snapshot; anything else closes this socket normally, leaving
// room state untouched.
func (s *RoomStore) handleConfirm(c *client, p confirmRequest) {
	s.mu.Lock()

	if !p.Proceed || !c.pending {
		s.mu.Unlock()
		closeSocket(c, websocket.CloseNormalClosure, "Connection cancelled by user")
		return
	}

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	if prev := r.devices[c.deviceID]; prev != nil && prev != c && !prev.closed {
		delete(r.clients, prev)
		delete(r.presence, prev.clientID)
		prev.kicked = true // presence already removed
		closeSocket(prev, closeSuperseded, "Multiple connections detected")
		s.broadcastPresenceLocked(r)
		logf(s.cfg, "WS: Superseded %s with %s for device %q in room %q", prev.clientID, c.clientID, c.deviceID, r.id)
	}
	r.devices[c.deviceID] = c

	c.pending = false
	snap := s.syncLocked(r, c.clientID)
	if c.stashedSync != nil {
		snap = *c.stashedSync
		c.stashedSync = nil
	}
	s.admitLocked(r, c, snap)

	s.mu.Unlock()
}

// handlePresence claims, re-cases, or clears the caller's display name.
// Names are unique among connected clients after trimming and casefolding;
// claiming a name held only by disconnected clients purges their stale
// entries, which is how a reconnecting player reclaims their identity.
func (s *RoomStore) handlePresence(c *client, p presenceRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	if p.Name == "" {
		delete(r.presence, c.clientID)
		s.broadcastPresenceLocked(r)
		return
	}

	trimmed := strings.TrimSpace(p.Name)
	fold := strings.ToLower(trimmed)

	if current, ok := r.presence[c.clientID]; ok && strings.ToLower(strings.TrimSpace(current)) == fold {
		// Same name modulo case and whitespace, accept the restyling.
		r.presence[c.clientID] = trimmed
		s.broadcastPresenceLocked(r)
		return
	}

	connected := make(map[string]bool, len(r.clients))
	for open := range r.clients {
		connected[open.clientID] = true
	}

	for clientID, existing := range r.presence {
		if clientID == c.clientID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(existing)) == fold && connected[clientID] {
			s.sendLocked(r, c, outboundMessage{
				Type:    "presence_error",
				Payload: errorMessage{Message: fmt.Sprintf("Name %q is already taken. Please choose a different name.", trimmed)},
			})
			return
		}
	}

	for clientID, existing := range r.presence {
		if clientID == c.clientID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(existing)) == fold && !connected[clientID] {
			delete(r.presence, clientID)
		}
	}

	r.presence[c.clientID] = trimmed
	s.broadcastPresenceLocked(r)
}

func (s *RoomStore) handleAdminClaim(c *client, p adminClaimRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	if p.Name == "" || !pinPattern.MatchString(p.Pin) {
		s.sendLocked(r, c, outboundMessage{
			Type:    "admin_result",
			Payload: resultMessage{Success: false, Message: "Admin code must be 4 digits."},
		})
		return
	}

	if r.admin != nil {
		s.sendLocked(r, c, outboundMessage{
			Type:    "admin_result",
			Payload: resultMessage{Success: false, Message: "Admin already claimed."},
		})
		// Re-broadcast the standing claim so late listeners converge.
		s.broadcastLocked(r, outboundMessage{
			Type:    "admin_status",
			Payload: adminStatus{Claimed: true, AdminName: r.adminName()},
		})
		return
	}

	r.admin = &adminRecord{pin: p.Pin, name: p.Name}
	c.isAdmin = true
	logf(s.cfg, "ADMIN: %q claimed admin of room %q", p.Name, r.id)

	s.sendLocked(r, c, outboundMessage{
		Type:    "admin_result",
		Payload: resultMessage{Success: true, Message: "Admin claimed."},
	})
	s.broadcastLocked(r, outboundMessage{
		Type:    "admin_status",
		Payload: adminStatus{Claimed: true, AdminName: r.adminName()},
	})
}

// handleAdminUnlock grants the per-socket admin flag against the standing
// PIN. A second tab from the same admin unlocks independently.
func (s *RoomStore) handleAdminUnlock(c *client, p adminUnlockRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	if r.admin == nil {
		s.sendLocked(r, c, outboundMessage{
			Type:    "admin_result",
			Payload: resultMessage{Success: false, Message: "No admin claimed yet."},
		})
		return
	}
	if p.Pin == "" || r.admin.pin != p.Pin {
		s.sendLocked(r, c, outboundMessage{
			Type:    "admin_result",
			Payload: resultMessage{Success: false, Message: "Incorrect admin code."},
		})
		return
	}

	c.isAdmin = true
	s.sendLocked(r, c, outboundMessage{
		Type:    "admin_result",
		Payload: resultMessage{Success: true, Message: "Admin unlocked."},
	})
}

func (s *RoomStore) handleAdminReset(c *client, p adminResetRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	switch p.Target {
	case "votes":
		r.votes = make(map[string]map[string]string)
		r.teams = nil
		s.broadcastLocked(r, outboundMessage{
			Type:    "roomVotes",
			Payload: roomVotesBroadcast{RoomVotes: map[string]map[string]string{}},
		})
		s.broadcastLocked(r, outboundMessage{
			Type:    "teams",
			Payload: teamsUpdate{TeamState: nil},
		})
	case "admin":
		r.admin = nil
		s.broadcastLocked(r, outboundMessage{
			Type:    "admin_status",
			Payload: adminStatus{Claimed: false, AdminName: nil},
		})
		logf(s.cfg, "ADMIN: Admin of room %q reset", r.id)
	}
}

// handleRename moves a player's presence entry, their vote table, and the
// stored admin name when the admin renames themselves, atomically.
func (s *RoomStore) handleRename(c *client, p renameRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	if !c.isAdmin {
		s.sendLocked(r, c, outboundMessage{
			Type:    "player_rename_result",
			Payload: resultMessage{Success: false, Message: "Admin required."},
		})
		return
	}

	oldName := strings.TrimSpace(p.OldName)
	newName := strings.TrimSpace(p.NewName)
	if oldName == "" || newName == "" || oldName == newName {
		s.sendLocked(r, c, outboundMessage{
			Type:    "player_rename_result",
			Payload: resultMessage{Success: false, Message: "Invalid names."},
		})
		return
	}

	renamed := false
	for clientID, name := range r.presence {
		if strings.TrimSpace(name) != oldName {
			continue
		}
		r.presence[clientID] = newName

		for voteName, userVotes := range r.votes {
			if strings.TrimSpace(voteName) == oldName {
				delete(r.votes, voteName)
				r.votes[newName] = userVotes
				s.broadcastLocked(r, outboundMessage{
					Type:    "roomVotes",
					Payload: roomVotesBroadcast{RoomVotes: s.votesLocked(r)},
				})
				break
			}
		}

		if r.admin != nil && strings.TrimSpace(r.admin.name) == oldName {
			r.admin.name = newName
			s.broadcastLocked(r, outboundMessage{
				Type:    "admin_status",
				Payload: adminStatus{Claimed: true, AdminName: r.adminName()},
			})
		}

		renamed = true
		break
	}

	if !renamed {
		s.sendLocked(r, c, outboundMessage{
			Type:    "player_rename_result",
			Payload: resultMessage{Success: false, Message: "Player not found."},
		})
		return
	}

	s.broadcastPresenceLocked(r)
	s.sendLocked(r, c, outboundMessage{
		Type:    "player_rename_result",
		Payload: resultMessage{Success: true, Message: "Player renamed."},
	})
}

// handleKick removes a player entirely: presence, votes, and the socket
// itself, closed with 4008 so the client knows it was kicked rather than
// dropped.
func (s *RoomStore) handleKick(c *client, p kickRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	if !c.isAdmin {
		s.sendLocked(r, c, outboundMessage{
			Type:    "player_kick_result",
			Payload: resultMessage{Success: false, Message: "Admin required."},
		})
		return
	}

	target := strings.TrimSpace(p.PlayerName)
	if target == "" {
		s.sendLocked(r, c, outboundMessage{
			Type:    "player_kick_result",
			Payload: resultMessage{Success: false, Message: "Player name required."},
		})
		return
	}

	if r.admin != nil && strings.EqualFold(target, strings.TrimSpace(r.admin.name)) {
		s.sendLocked(r, c, outboundMessage{
			Type:    "player_kick_result",
			Payload: resultMessage{Success: false, Message: "Cannot kick yourself."},
		})
		return
	}

	targetClientID := ""
	for clientID, name := range r.presence {
		if strings.TrimSpace(name) == target {
			targetClientID = clientID
			break
		}
	}

	kicked := false
	if targetClientID != "" {
		delete(r.presence, targetClientID)

		for voteName := range r.votes {
			if strings.TrimSpace(voteName) == target {
				delete(r.votes, voteName)
				s.broadcastLocked(r, outboundMessage{
					Type:    "roomVotes",
					Payload: roomVotesBroadcast{RoomVotes: s.votesLocked(r)},
				})
				break
			}
		}

		for victim := range r.clients {
			if victim.clientID == targetClientID {
				victim.kicked = true
				closeSocket(victim, closeKicked, "Kicked by admin")
				kicked = true
				break
			}
		}
	}

	if !kicked {
		s.sendLocked(r, c, outboundMessage{
			Type:    "player_kick_result",
			Payload: resultMessage{Success: false, Message: "Player not found."},
		})
		return
	}

	logf(s.cfg, "ADMIN: Kicked %q from room %q", target, r.id)
	s.broadcastPresenceLocked(r)
	s.sendLocked(r, c, outboundMessage{
		Type:    "player_kick_result",
		Payload: resultMessage{Success: true, Message: "Player kicked."},
	})
}

// handleSpin stores the outcome as the room's last spin and republishes it.
// The originating client already computed the weighted pick and target
// rotation; receivers deduplicate by spinId.
func (s *RoomStore) handleSpin(c *client, p spinState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	p.Replay = false
	r.lastSpin = &p
	s.broadcastLocked(r, outboundMessage{Type: "spin", Payload: p})
}

// handleVote upserts one tier assignment. A user holds at most one item per
// tier: granting gold to a new item revokes gold from whichever item held it.
func (s *RoomStore) handleVote(c *client, p voteRequest) {
	if p.Name == "" || p.ItemID == "" || p.Level == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	userVotes := r.votes[p.Name]
	if userVotes == nil {
		userVotes = make(map[string]string)
		r.votes[p.Name] = userVotes
	}
	for itemID, level := range userVotes {
		if level == p.Level {
			delete(userVotes, itemID)
		}
	}
	userVotes[p.ItemID] = p.Level

	s.broadcastLocked(r, outboundMessage{
		Type:    "roomVotes",
		Payload: roomVotesBroadcast{RoomVotes: s.votesLocked(r)},
	})
}

func (s *RoomStore) handleItems(c *client, p itemsUpdate) {
	if !isJSONArray(p.Items) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	r.items = p.Items
	s.broadcastLocked(r, outboundMessage{Type: "items_update", Payload: p})
}

func (s *RoomStore) handleSettings(c *client, p settingsUpdate) {
	if isJSONNull(p.Settings) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	r.settings = p.Settings
	s.broadcastLocked(r, outboundMessage{Type: "settings_update", Payload: p})
}

// handleTeams stores and republishes a client-computed shuffle verbatim; the
// server adds no randomness of its own.
func (s *RoomStore) handleTeams(c *client, p teamsUpdate) {
	if isJSONNull(p.TeamState) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	r.teams = p.TeamState
	s.broadcastLocked(r, outboundMessage{Type: "teams", Payload: p})
}

// handleVictory announces winners to the whole room, sender included. No
// history is kept.
func (s *RoomStore) handleVictory(c *client, p victoryRequest) {
	if len(p.Winners) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)

	if !c.isAdmin {
		return
	}

	s.touchLocked(r)
	s.broadcastLocked(r, outboundMessage{Type: "victory", Payload: p})
}

func (s *RoomStore) handleBulletin(c *client, p bulletinUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	r.bulletin = p.Content
	s.broadcastLocked(r, outboundMessage{Type: "bulletin_board_update", Payload: p})
}

// handleChat appends to the room's bounded chat ring, subject to the rolling
// per-sender rate limit.
func (s *RoomStore) handleChat(c *client, p chatRequest) {
	text := strings.TrimSpace(p.Text)
	if p.Name == "" || text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.touchLocked(r)

	if !s.limiter.allow(c.clientID + "|" + p.Name) {
		s.sendLocked(r, c, outboundMessage{
			Type:    "chat_error",
			Payload: errorMessage{Message: "You're sending messages too quickly. Please slow down."},
		})
		return
	}

	entry := chatEntry{
		ID:        uuid.NewString(),
		Name:      p.Name,
		Text:      text,
		Timestamp: s.clock.Now().UnixMilli(),
	}
	r.chat = append(r.chat, entry)
	if len(r.chat) > s.cfg.chatHistory {
		r.chat = append([]chatEntry(nil), r.chat[len(r.chat)-s.cfg.chatHistory:]...)
	}

	s.broadcastLocked(r, outboundMessage{Type: "chat_message", Payload: entry})
}

// handleRoomStatus answers privately with a summary of the named room (the
// caller's own room when unnamed) without creating it.
func (s *RoomStore) handleRoomStatus(c *client, p roomStatusRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID := p.Room
	if roomID == "" {
		roomID = c.roomID
	}

	status := roomStatus{Room: roomID}
	if r, ok := s.rooms[roomID]; ok {
		status.PlayerCount = len(r.clients)
		status.AdminClaimed = r.admin != nil
		status.AdminName = r.adminName()
	}

	own := s.roomLocked(c.roomID)
	s.sendLocked(own, c, outboundMessage{Type: "room_status", Payload: status})
}

func (s *RoomStore) handlePing(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.roomLocked(c.roomID)
	s.sendLocked(r, c, outboundMessage{Type: "pong"})
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
