package store

type watcher struct {
	userID string
	ch     chan struct{}
}

// Watch returns a channel that receives a signal after any committed write
// touching the given user's readings, plus a cancel func. The channel has a
// one-slot buffer; a slow consumer coalesces bursts into a single signal
// rather than blocking writers.
func (s *Store) Watch(userID string) (<-chan struct{}, func()) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	id := s.nextWID
	s.nextWID++
	w := &watcher{userID: userID, ch: make(chan struct{}, 1)}
	s.watchers[id] = w

	cancel := func() {
		s.watchMu.Lock()
		defer s.watchMu.Unlock()
		if _, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(w.ch)
		}
	}
	return w.ch, cancel
}

func (s *Store) notify(userID string) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, w := range s.watchers {
		if w.userID != userID {
			continue
		}
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
}
