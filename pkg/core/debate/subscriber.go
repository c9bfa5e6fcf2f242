package debate

import "sync"

// maxPendingRecords bounds how far a live subscriber may fall behind before
// it is cut off. A cut-off subscriber still receives everything queued so
// far, then its channel closes; the rest is available from Events.
const maxPendingRecords = 4096

// subscriber delivers records to one client in order without ever blocking
// the debate. Records queue up while the client is slow and a pump goroutine
// feeds them to out.
type subscriber struct {
	out    chan Record
	notify chan struct{}
	quit   chan struct{}

	mu       sync.Mutex
	pending  []Record
	finished bool
	quitOnce sync.Once
}

func newSubscriber() *subscriber {
	s := &subscriber{
		out:    make(chan Record, 100),
		notify: make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
	go s.pump()
	return s
}

// push queues r. It reports false once the subscriber has been cut off for
// falling too far behind.
func (s *subscriber) push(r Record) bool {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return false
	}
	if len(s.pending) >= maxPendingRecords {
		s.finished = true
		s.mu.Unlock()
		s.wake()
		return false
	}
	s.pending = append(s.pending, r)
	s.mu.Unlock()
	s.wake()
	return true
}

// finish closes out once every queued record has been delivered.
func (s *subscriber) finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	s.wake()
}

// cancel closes out without delivering what is still queued.
func (s *subscriber) cancel() {
	s.quitOnce.Do(func() { close(s.quit) })
}

func (s *subscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			done := s.finished
			s.mu.Unlock()
			if done {
				return
			}
			select {
			case <-s.notify:
				continue
			case <-s.quit:
				return
			}
		}
		r := s.pending[0]
		s.pending[0] = Record{}
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.out <- r:
		case <-s.quit:
			return
		}
	}
}
