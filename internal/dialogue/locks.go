package dialogue

import "sync"

// subjectLocks serializes turns per subject key. Two messages from the
// same subject must not interleave their read-modify-write of the session;
// messages from different subjects run concurrently.
type subjectLocks struct {
	mu    sync.Mutex
	locks map[string]*subjectLock
}

type subjectLock struct {
	mu   sync.Mutex
	refs int
}

func newSubjectLocks() *subjectLocks {
	return &subjectLocks{locks: make(map[string]*subjectLock)}
}

// Lock acquires the per-subject mutex and returns its release function.
// Entries are reference counted so the map does not grow with every
// subject ever seen.
func (s *subjectLocks) Lock(subjectKey string) func() {
	s.mu.Lock()
	entry, ok := s.locks[subjectKey]
	if !ok {
		entry = &subjectLock{}
		s.locks[subjectKey] = entry
	}
	entry.refs++
	s.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		s.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(s.locks, subjectKey)
		}
		s.mu.Unlock()
	}
}
