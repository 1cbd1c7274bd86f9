package services

import "sync"

// PresenceTracker answers "who is connected to room R right now". It is
// purely in-memory bookkeeping: a process restart clears it, which only
// costs the notification-target filter, never message delivery.
//
// Presence is counted per connection so that a user connected from two
// devices stays present until the last connection closes.
type PresenceTracker struct {
	mu    sync.RWMutex
	rooms map[string]map[string]int // roomID -> userID -> connection count
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		rooms: make(map[string]map[string]int),
	}
}

// AddUser records one live connection of userID in roomID.
func (p *PresenceTracker) AddUser(roomID, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	users, ok := p.rooms[roomID]
	if !ok {
		users = make(map[string]int)
		p.rooms[roomID] = users
	}
	users[userID]++
}

// RemoveUser drops one live connection of userID in roomID. The room
// entry itself is discarded once its last user leaves.
func (p *PresenceTracker) RemoveUser(roomID, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	users, ok := p.rooms[roomID]
	if !ok {
		return
	}

	users[userID]--
	if users[userID] <= 0 {
		delete(users, userID)
	}
	if len(users) == 0 {
		delete(p.rooms, roomID)
	}
}

// ActiveUsers returns the user IDs currently connected to roomID. An
// unknown room yields an empty slice, not an error.
func (p *PresenceTracker) ActiveUsers(roomID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := p.rooms[roomID]
	active := make([]string, 0, len(users))
	for userID := range users {
		active = append(active, userID)
	}
	return active
}

// IsActive reports whether userID has at least one live connection to
// roomID.
func (p *PresenceTracker) IsActive(roomID, userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rooms[roomID][userID] > 0
}
