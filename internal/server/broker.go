package server

import (
	"encoding/json"
	"sync"
)

// Feed event types.
const (
	eventDrop             = "drop"
	eventPromotion        = "promotion"
	eventMissionCompleted = "mission_completed"
	eventBlackout         = "blackout"
	eventInvestigation    = "investigation"
	eventSolved           = "solved"
)

// FeedEvent is the payload pushed to feed subscribers. Only the fields
// relevant to Type are set.
type FeedEvent struct {
	Type      string `json:"type"`
	PlayerID  string `json:"playerId,omitempty"`
	MarkerID  string `json:"markerId,omitempty"`
	EventID   string `json:"eventId,omitempty"`
	MissionID string `json:"missionId,omitempty"`
	Rep       int    `json:"rep,omitempty"`
	Total     int    `json:"total,omitempty"`
	Rank      string `json:"rank,omitempty"`
	Level     int    `json:"level,omitempty"`
	Clue      string `json:"clue,omitempty"`
}

// Broker is an in-process pub/sub for feed events, keyed by player ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the
// given player, including broadcasts.
func (b *Broker) Subscribe(playerID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[playerID] == nil {
		b.subs[playerID] = make(map[chan []byte]struct{})
	}
	b.subs[playerID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the player's subscribers.
func (b *Broker) Unsubscribe(playerID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[playerID], ch)
	if len(b.subs[playerID]) == 0 {
		delete(b.subs, playerID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given player.
func (b *Broker) Publish(playerID string, event FeedEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[playerID] {
		send(ch, data)
	}
	b.mu.RUnlock()
}

// Broadcast sends an event to every subscriber.
func (b *Broker) Broadcast(event FeedEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for _, chans := range b.subs {
		for ch := range chans {
			send(ch, data)
		}
	}
	b.mu.RUnlock()
}

func send(ch chan []byte, data []byte) {
	select {
	case ch <- data:
	default:
		// Drop if subscriber is slow.
	}
}
