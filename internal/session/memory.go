// Package session keeps a bounded, in-process record of recent
// conversational turns per identity. It is context for the downstream
// text-understanding collaborator, never a durable log: entries vanish on
// restart and that loss only degrades conversational quality.
package session

import "sync"

// Role is one of the closed set of conversational roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single conversational exchange entry.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// DefaultLimit is the number of turns retained per identity.
const DefaultLimit = 10

// Memory is a process-scoped store of recent turns, bounded FIFO per
// device. Created once at service start and handed to the transport layer;
// one mutex guards the whole map since contention is light.
type Memory struct {
	mu    sync.Mutex
	limit int
	turns map[string][]Turn
}

func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Memory{
		limit: limit,
		turns: make(map[string][]Turn),
	}
}

// Append records a turn for deviceID, evicting the oldest entry once the
// bound is reached. It never fails.
func (m *Memory) Append(deviceID string, role Role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.turns[deviceID], Turn{Role: role, Content: content})
	if len(history) > m.limit {
		history = history[len(history)-m.limit:]
	}
	m.turns[deviceID] = history
}

// Recent returns up to limit turns for deviceID, oldest first.
func (m *Memory) Recent(deviceID string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.turns[deviceID]
	out := make([]Turn, len(history))
	copy(out, history)
	return out
}

// Clear drops all turns for deviceID.
func (m *Memory) Clear(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, deviceID)
}

// Len reports how many turns are currently held for deviceID.
func (m *Memory) Len(deviceID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns[deviceID])
}
