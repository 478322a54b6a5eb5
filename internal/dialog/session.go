package dialog

import (
	"strconv"
	"sync"
)

// State is the dialogue state of a single user.
type State int

const (
	// StateIdle means no flow is pending
	StateIdle State = iota
	// StateAwaitingNewTask means the next text message becomes a new task
	StateAwaitingNewTask
	// StateAwaitingTaskEdit means the next text message replaces the text
	// of the task recorded in the session
	StateAwaitingTaskEdit
	// StateAwaitingManualTimezone means the next text message is parsed as
	// an IANA zone identifier
	StateAwaitingManualTimezone
)

// String implements fmt.Stringer for debugging session dumps.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingNewTask:
		return "awaiting_new_task"
	case StateAwaitingTaskEdit:
		return "awaiting_task_edit"
	case StateAwaitingManualTimezone:
		return "awaiting_manual_timezone"
	default:
		return "state_" + strconv.Itoa(int(s))
	}
}

// Session is the per-owner dialogue state. It is volatile: losing it costs
// at most one in-progress multi-step entry. A session is never accessed
// concurrently because the transport handles one event per chat at a time.
type Session struct {
	OwnerID       int64
	State         State
	EditingTaskID int64
	// ShowDone remembers the last list view mode so refreshes keep it
	ShowDone bool
}

// Reset returns the session to Idle and clears flow context. The list view
// mode survives a reset on purpose; it is presentation, not flow state.
func (s *Session) Reset() {
	s.State = StateIdle
	s.EditingTaskID = 0
}

// Sessions is an in-memory session registry keyed by owner id. Different
// chats are handled concurrently, hence the lock around the map; the
// sessions themselves need none.
type Sessions struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[int64]*Session)}
}

// Get returns the owner's session, creating an Idle one on first use.
func (s *Sessions) Get(ownerID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		sess = &Session{OwnerID: ownerID, State: StateIdle}
		s.sessions[ownerID] = sess
	}
	return sess
}
