package game

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the scheduler relies on.
type Timer interface {
	Stop() bool
}

// TimerFunc runs f once d has elapsed.
type TimerFunc func(d time.Duration, f func()) Timer

// RealTimers backs the scheduler with time.AfterFunc.
func RealTimers(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Handle identifies one scheduled task.
type Handle struct {
	Key string
	Gen uint64
}

type scheduledTask struct {
	gen   uint64
	timer Timer
}

// Scheduler keeps at most one pending delayed action per key. Every task gets a
// generation from a process-wide counter; a task that fires after it was
// cancelled or superseded finds a different generation and does nothing.
type Scheduler struct {
	mu    sync.Mutex
	after TimerFunc
	next  uint64
	tasks map[string]scheduledTask
}

func NewScheduler(after TimerFunc) *Scheduler {
	if after == nil {
		after = RealTimers
	}
	return &Scheduler{
		after: after,
		tasks: make(map[string]scheduledTask),
	}
}

// Schedule arranges for fire to run once after d, replacing whatever was
// pending under key. fire receives the task's generation.
func (s *Scheduler) Schedule(key string, d time.Duration, fire func(gen uint64)) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tasks[key]; ok {
		existing.timer.Stop()
	}
	s.next++
	gen := s.next
	timer := s.after(d, func() {
		s.fire(key, gen, fire)
	})
	s.tasks[key] = scheduledTask{gen: gen, timer: timer}
	return Handle{Key: key, Gen: gen}
}

func (s *Scheduler) fire(key string, gen uint64, fire func(gen uint64)) {
	s.mu.Lock()
	task, ok := s.tasks[key]
	if !ok || task.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.tasks, key)
	s.mu.Unlock()
	fire(gen)
}

// Cancel stops whatever is pending under key.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[key]
	if !ok {
		return false
	}
	task.timer.Stop()
	delete(s.tasks, key)
	return true
}

// CancelHandle stops h only if it is still the pending task for its key.
func (s *Scheduler) CancelHandle(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[h.Key]
	if !ok || task.gen != h.Gen {
		return false
	}
	task.timer.Stop()
	delete(s.tasks, h.Key)
	return true
}

// Pending returns the generation waiting under key.
func (s *Scheduler) Pending(key string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[key]
	return task.gen, ok
}
