package service

import (
	"context"
	"sync"

	"github.com/set-night/mindchat/internal/domain"
)

// newChatSlot is held while a send creates the chat it goes to. Server ids
// are never empty.
const newChatSlot domain.ID = ""

// chatSlots allows at most one holder per chat; later callers queue until
// the slot frees up or their context ends.
type chatSlots struct {
	mu    sync.Mutex
	slots map[domain.ID]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func newChatSlots() *chatSlots {
	return &chatSlots{slots: make(map[domain.ID]*slot)}
}

func (s *chatSlots) acquire(ctx context.Context, id domain.ID) (func(), error) {
	s.mu.Lock()
	sl, ok := s.slots[id]
	if !ok {
		sl = &slot{ch: make(chan struct{}, 1)}
		s.slots[id] = sl
	}
	sl.refs++
	s.mu.Unlock()

	select {
	case sl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-sl.ch
				s.done(id, sl)
			})
		}, nil
	case <-ctx.Done():
		s.done(id, sl)
		return nil, ctx.Err()
	}
}

func (s *chatSlots) done(id domain.ID, sl *slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl.refs--
	if sl.refs == 0 && s.slots[id] == sl {
		delete(s.slots, id)
	}
}
