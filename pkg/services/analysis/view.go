package analysis

import "github.com/de-tools/ratio-atlas/pkg/models/domain"

// Subscribe returns a channel that receives the current state right away and
// every change after it. A slow reader only ever sees the latest state. The
// returned func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan domain.SessionState, func()) {
	ch := make(chan domain.SessionState, 1)

	s.mu.RLock()
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	ch <- s.snapshotLocked()
	s.subMu.Unlock()
	s.mu.RUnlock()

	var once bool
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if once {
			return
		}
		once = true
		delete(s.subscribers, id)
		close(ch)
	}
}

// publishLocked fans the current state out to subscribers. s.mu must be held
// for writing.
func (s *Store) publishLocked() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if len(s.subscribers) == 0 {
		return
	}
	for _, ch := range s.subscribers {
		st := s.snapshotLocked()
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
}
