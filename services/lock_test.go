package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTournamentLockIsExclusive(t *testing.T) {
	locks := newTournamentLocks()

	// Без взаимного исключения два потока увидели бы одного и того же
	// занятого в критической секции.
	var active int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(1)
			defer unlock()
			assert.EqualValues(t, 1, atomic.AddInt32(&active, 1))
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
}

func TestTournamentLockSerializesWriters(t *testing.T) {
	locks := newTournamentLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 64, counter)
}

func TestTournamentLockDoesNotCoupleTournaments(t *testing.T) {
	locks := newTournamentLocks()

	unlockHeld := locks.Lock(1)
	defer unlockHeld()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different tournament must not block")
	}
}

func TestTournamentLockReusesMutexPerTournament(t *testing.T) {
	locks := newTournamentLocks()

	unlock := locks.Lock(3)
	unlock()
	unlock = locks.Lock(3)
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Len(t, locks.byID, 1)
}
