package session

import (
	"sync"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is one end-user's conversation: its turn history and the last
// product identifier explicitly referenced in it. Sessions live for the
// process lifetime and are never evicted.
type Session struct {
	mu            sync.Mutex
	turns         []Turn
	lastProductID string

	// inFlight serializes whole turns so overlapping messages for the same
	// session id cannot interleave mid-pipeline.
	inFlight sync.Mutex
}

// Begin marks the start of a turn for this session. Every Begin must be paired
// with End.
func (s *Session) Begin() { s.inFlight.Lock() }

func (s *Session) End() { s.inFlight.Unlock() }

func (s *Session) AppendTurn(role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: role, Content: content, At: time.Now()})
}

// Recent returns the most recent n turns in chronological order.
func (s *Session) Recent(n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

func (s *Session) SetLastProduct(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastProductID = productID
}

func (s *Session) LastProduct() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastProductID, s.lastProductID != ""
}

// Store maps session identifiers to Sessions. Safe for concurrent use across
// distinct session ids.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it lazily on first use.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s = &Session{}
	st.sessions[id] = s
	return s
}
