/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
)

// Close codes with protocol meaning, beyond the normal 1000.
const (
	closeKicked     = 4008 // removed by the room admin
	closeSuperseded = 4009 // replaced by a confirmed connection from the same device
)

// Everything on the wire is a JSON text frame of {type, payload}.
// Inbound frames decode the payload lazily so each handler can unmarshal
// into its own struct; outbound frames carry the payload value directly.
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Inbound payloads

type presenceRequest struct {
	Name string `json:"name"`
}

type adminClaimRequest struct {
	Name string `json:"name"`
	Pin  string `json:"pin"`
}

type adminUnlockRequest struct {
	Pin string `json:"pin"`
}

type adminResetRequest struct {
	Target string `json:"target"` // "votes" or "admin"
}

type renameRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

type kickRequest struct {
	PlayerName string `json:"playerName"`
}

type voteRequest struct {
	Name   string `json:"name"`
	ItemID string `json:"itemId"`
	Level  string `json:"level"` // "gold", "silver", or "bronze"
}

type itemsUpdate struct {
	Items          json.RawMessage `json:"items"`
	SourceClientID string          `json:"sourceClientId,omitempty"`
}

type settingsUpdate struct {
	Settings json.RawMessage `json:"settings"`
}

type teamsUpdate struct {
	TeamState json.RawMessage `json:"teamState"`
}

type victoryRequest struct {
	Winners []string `json:"winners"`
}

type bulletinUpdate struct {
	Content *string `json:"content"`
}

type chatRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type roomStatusRequest struct {
	Room string `json:"room"`
}

type confirmRequest struct {
	Proceed bool `json:"proceed"`
}

// Outbound payloads

type spinState struct {
	ItemID         string  `json:"itemId"`
	TargetRotation float64 `json:"targetRotation"`
	SpinID         string  `json:"spinId"`
	Source         string  `json:"source,omitempty"`
	Replay         bool    `json:"replay,omitempty"`
}

type playerInfo struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type presenceBroadcast struct {
	Players []playerInfo `json:"players"`
}

type resultMessage struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type adminStatus struct {
	Claimed   bool    `json:"claimed"`
	AdminName *string `json:"adminName"`
}

type roomVotesBroadcast struct {
	RoomVotes map[string]map[string]string `json:"roomVotes"`
}

type chatEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

type errorMessage struct {
	Message string `json:"message"`
}

type roomStatus struct {
	Room         string  `json:"room"`
	PlayerCount  int     `json:"playerCount"`
	AdminClaimed bool    `json:"adminClaimed"`
	AdminName    *string `json:"adminName"`
}

type syncState struct {
	RoomVotes     map[string]map[string]string `json:"roomVotes"`
	TeamState     json.RawMessage              `json:"teamState"`
	AdminClaimed  bool                         `json:"adminClaimed"`
	AdminName     *string                      `json:"adminName"`
	Players       []playerInfo                 `json:"players"`
	Items         json.RawMessage              `json:"items"`
	Settings      json.RawMessage              `json:"settings"`
	BulletinBoard *string                      `json:"bulletinBoard"`
	ChatMessages  []chatEntry                  `json:"chatMessages"`
	ClientID      string                       `json:"clientId"`
}
