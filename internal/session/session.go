package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Oscar8918/agente-maf/internal/llm"
)

// Thread holds the in-memory transcript of one conversation plus the
// sub-agent threads spawned on its behalf. All access goes through the
// thread's own lock; the turn lock additionally serializes whole turns so
// two concurrent requests on the same thread never interleave tool rounds.
type Thread struct {
	id   string
	turn sync.Mutex

	mu      sync.RWMutex
	history []llm.Message
	subs    map[string]*Thread
}

func newThread(id string) *Thread {
	return &Thread{id: id, subs: make(map[string]*Thread)}
}

func (t *Thread) ID() string { return t.id }

// LockTurn serializes turn execution per thread. Unlock with UnlockTurn.
func (t *Thread) LockTurn()   { t.turn.Lock() }
func (t *Thread) UnlockTurn() { t.turn.Unlock() }

// History returns a copy of the transcript so callers can append to it
// without holding the thread lock.
func (t *Thread) History() []llm.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]llm.Message, len(t.history))
	copy(out, t.history)
	return out
}

// SetHistory replaces the transcript wholesale, used for rehydration and
// for committing a finished turn.
func (t *Thread) SetHistory(msgs []llm.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = make([]llm.Message, len(msgs))
	copy(t.history, msgs)
}

func (t *Thread) Append(msgs ...llm.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, msgs...)
}

func (t *Thread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.history)
}

// Sub returns the named sub-agent thread, creating it on first use. Sub
// threads share the parent's lifetime and are dropped with it.
func (t *Thread) Sub(name string) *Thread {
	t.mu.Lock()
	defer t.mu.Unlock()
	sub, ok := t.subs[name]
	if !ok {
		sub = newThread(t.id + "/" + name)
		t.subs[name] = sub
	}
	return sub
}

// ResetSub drops the named sub-agent thread so the next turn starts it
// fresh.
func (t *Thread) ResetSub(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, name)
}

// Manager is the in-memory registry of live conversation threads.
type Manager struct {
	mu      sync.RWMutex
	threads map[string]*Thread
}

func NewManager() *Manager {
	return &Manager{threads: make(map[string]*Thread)}
}

// Ensure returns the thread for id, creating it when absent. An empty id
// allocates a fresh thread with a generated identifier. created reports
// whether the thread did not exist in memory before this call.
func (m *Manager) Ensure(id string) (t *Thread, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != "" {
		if th, ok := m.threads[id]; ok {
			return th, false
		}
	} else {
		id = uuid.NewString()
	}
	th := newThread(id)
	m.threads[id] = th
	return th, true
}

func (m *Manager) Get(id string) (*Thread, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	th, ok := m.threads[id]
	return th, ok
}

// Delete drops the thread and, implicitly, its sub-agent threads. Returns
// whether the thread was present in memory.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.threads[id]
	delete(m.threads, id)
	return ok
}

// Len reports the number of live threads.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.threads)
}
