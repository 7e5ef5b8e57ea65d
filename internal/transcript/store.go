// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"sync"

	"github.com/jeranaias/parley-tui/internal/model"
)

// MaxMessages caps the in-memory transcript. When the cap is hit the
// oldest messages are dropped; the service keeps the full history.
const MaxMessages = 1000

// Generation is an opaque token identifying one lifetime of the store's
// contents. Bulk replacement and invalidation mint a new generation;
// streaming writers tagged with an old one are rejected.
type Generation uint64

// Store is the ordered, observable message list for one conversation view.
//
// A single logical owner (the conversation controller) mutates the store,
// but reads come from the UI goroutine, so all access is mutex-guarded.
type Store struct {
	mu        sync.Mutex
	messages  []model.Message
	gen       Generation
	observers []func()
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// =============================================================================
// READS
// =============================================================================

// Messages returns a snapshot copy of the transcript in order.
func (s *Store) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Get returns a copy of the message with the given id.
func (s *Store) Get(id string) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			return s.messages[i], true
		}
	}
	return model.Message{}, false
}

// Last returns a copy of the newest message.
func (s *Store) Last() (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return model.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Generation returns the current generation token. Writers that survive a
// ReplaceAll or Invalidate must re-check their token against this.
func (s *Store) Generation() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Append adds a message to the end of the transcript.
func (s *Store) Append(msg model.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	if len(s.messages) > MaxMessages {
		s.messages = s.messages[len(s.messages)-MaxMessages:]
	}
	s.mu.Unlock()
	s.notify()
}

// AppendContent appends delta to the content of the message with the given
// id. Unknown ids are ignored: a rolled-back message must not resurrect.
func (s *Store) AppendContent(id, delta string) {
	s.appendContent(nil, id, delta)
}

// AppendContentAt is AppendContent guarded by a generation token. It
// reports whether the mutation applied; a stale token is a silent no-op.
func (s *Store) AppendContentAt(gen Generation, id, delta string) bool {
	return s.appendContent(&gen, id, delta)
}

// appendContent holds the lock across the generation check and the
// mutation so a ReplaceAll cannot slip in between and expose the new
// transcript to a stale writer.
func (s *Store) appendContent(gen *Generation, id, delta string) bool {
	if delta == "" {
		return false
	}
	s.mu.Lock()
	if gen != nil && *gen != s.gen {
		s.mu.Unlock()
		return false
	}
	applied := false
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Content += delta
			applied = true
			break
		}
	}
	s.mu.Unlock()
	if applied {
		s.notify()
	}
	return applied
}

// Remove deletes the message with the given id. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	s.remove(nil, id)
}

// RemoveAt is Remove guarded by a generation token.
func (s *Store) RemoveAt(gen Generation, id string) {
	s.remove(&gen, id)
}

// remove shares appendContent's single-acquisition discipline.
func (s *Store) remove(gen *Generation, id string) {
	s.mu.Lock()
	if gen != nil && *gen != s.gen {
		s.mu.Unlock()
		return
	}
	removed := false
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify()
	}
}

// SetAcknowledged clears the pending flag on the message with the given id.
// Observers fire only when the flag actually flipped.
func (s *Store) SetAcknowledged(id string) {
	s.mu.Lock()
	applied := false
	for i := range s.messages {
		if s.messages[i].ID == id {
			if s.messages[i].Pending {
				s.messages[i].Pending = false
				applied = true
			}
			break
		}
	}
	s.mu.Unlock()
	if applied {
		s.notify()
	}
}

// ReplaceAll swaps the entire transcript, preserving the order of msgs.
// The generation is bumped so in-flight streaming writers from the old
// view cannot mutate the new one.
func (s *Store) ReplaceAll(msgs []model.Message) {
	s.mu.Lock()
	s.messages = make([]model.Message, len(msgs))
	copy(s.messages, msgs)
	if len(s.messages) > MaxMessages {
		s.messages = s.messages[len(s.messages)-MaxMessages:]
	}
	s.gen++
	s.mu.Unlock()
	s.notify()
}

// Invalidate bumps the generation without touching contents. Used when a
// streaming operation is cancelled and its tail must be discarded.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

// =============================================================================
// OBSERVERS
// =============================================================================

// Subscribe registers fn to run after every visible mutation. Observers
// must be fast and must not mutate the store; the UI uses this to schedule
// a redraw.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	obs := make([]func(), len(s.observers))
	copy(obs, s.observers)
	s.mu.Unlock()
	for _, fn := range obs {
		fn()
	}
}
