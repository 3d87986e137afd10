package workflow

import (
	"sync"
	"testing"
)

func TestOwnerLocksSerialize(t *testing.T) {
	locks := newOwnerLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.acquire("owner-1:letter")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestOwnerLocksReleaseEntries(t *testing.T) {
	locks := newOwnerLocks()

	unlock := locks.acquire("owner-1:letter")
	other := locks.acquire("owner-2:quest")

	locks.mu.Lock()
	held := len(locks.locks)
	locks.mu.Unlock()
	if held != 2 {
		t.Fatalf("entries while held = %d, want 2", held)
	}

	unlock()
	other()

	locks.mu.Lock()
	left := len(locks.locks)
	locks.mu.Unlock()
	if left != 0 {
		t.Errorf("entries after release = %d, want 0", left)
	}
}

func TestOwnerLocksEntrySurvivesWaiters(t *testing.T) {
	locks := newOwnerLocks()

	unlock := locks.acquire("owner-1:letter")

	done := make(chan struct{})
	go func() {
		second := locks.acquire("owner-1:letter")
		second()
		close(done)
	}()

	// The waiter must serialize on the same mutex even though the first
	// holder releases before it runs.
	unlock()
	<-done

	locks.mu.Lock()
	left := len(locks.locks)
	locks.mu.Unlock()
	if left != 0 {
		t.Errorf("entries after all releases = %d, want 0", left)
	}
}
