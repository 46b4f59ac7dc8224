package store

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// newQueueOnlyStore builds a Store without a database so the write-queue
// mechanics can be tested in isolation. Nothing here touches s.db.
func newQueueOnlyStore() *Store {
	s := &Store{queue: make(chan func(), 256), done: make(chan struct{}), log: zap.NewNop()}
	go s.writer()
	return s
}

func TestStore_CloseDuringEnqueueDoesNotPanic(t *testing.T) {
	s := newQueueOnlyStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.enqueue(func() {})
			}
		}()
	}
	s.Close()
	wg.Wait()
	s.Close() // second close is a no-op
}

func TestStore_QueuedWritesDrainOnClose(t *testing.T) {
	s := newQueueOnlyStore()

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		s.enqueue(func() { ran.Add(1) })
	}
	s.Close()

	deadline := time.Now().Add(time.Second)
	for ran.Load() < 10 {
		if time.Now().After(deadline) {
			t.Fatalf("writer drained %d of 10 queued writes", ran.Load())
		}
		time.Sleep(time.Millisecond)
	}
}
