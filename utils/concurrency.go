package utils

import (
	"sync"
	"time"
)

// WorkerPool runs jobs on a bounded number of goroutines, optionally
// spacing job starts by a minimum interval.
type WorkerPool struct {
	rateLimit time.Duration
	semaphore chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	lastStart time.Time
}

// NewWorkerPool creates a WorkerPool with maxWorkers slots. A zero
// rateLimit starts jobs as soon as a slot is free.
func NewWorkerPool(maxWorkers int, rateLimit time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		rateLimit: rateLimit,
		semaphore: make(chan struct{}, maxWorkers),
	}
}

// Submit blocks until a slot is free, then runs job in its own goroutine.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.enforceRateLimit()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) enforceRateLimit() {
	if wp.rateLimit <= 0 {
		return
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if elapsed := time.Since(wp.lastStart); elapsed < wp.rateLimit {
		time.Sleep(wp.rateLimit - elapsed)
	}
	wp.lastStart = time.Now()
}

// TextSet is a thread-safe set of strings. The monitor keys it by the raw
// text of listings it has already replied to.
type TextSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewTextSet creates an empty TextSet.
func NewTextSet() *TextSet {
	return &TextSet{seen: make(map[string]struct{})}
}

// Add returns true if s was newly added, false if already present.
func (t *TextSet) Add(s string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.seen[s]; exists {
		return false
	}
	t.seen[s] = struct{}{}
	return true
}

// Contains reports whether s has been added.
func (t *TextSet) Contains(s string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.seen[s]
	return exists
}

// Size returns the number of distinct strings tracked.
func (t *TextSet) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.seen)
}
