package service

import (
	"sync"
	"testing"
	"time"

	"mines_wager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLockUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lock("missing")
	assert.ErrorIs(t, err, ErrUndefinedUser)
}

func TestRegistryEmptyEntryDroppedOnUnlock(t *testing.T) {
	r := NewRegistry()

	h := r.LockOrCreate("p1")
	assert.Nil(t, h.Session())
	h.Unlock()

	assert.Zero(t, r.Len())
	_, err := r.Lock("p1")
	assert.ErrorIs(t, err, ErrUndefinedUser)
}

func TestRegistryWaiterSeesRemoval(t *testing.T) {
	r := NewRegistry()

	h := r.LockOrCreate("p1")
	h.Set(&domain.Session{PlayerID: "p1"})

	got := make(chan error, 1)
	go func() {
		w, err := r.Lock("p1")
		if err == nil {
			w.Unlock()
		}
		got <- err
	}()

	// give the waiter time to block on the entry lock
	time.Sleep(20 * time.Millisecond)
	h.Remove()
	h.Unlock()

	select {
	case err := <-got:
		assert.ErrorIs(t, err, ErrUndefinedUser)
	case <-time.After(time.Second):
		t.Fatal("waiter never returned")
	}
}

func TestRegistryRecreateAfterRemove(t *testing.T) {
	r := NewRegistry()

	h := r.LockOrCreate("p1")
	h.Set(&domain.Session{PlayerID: "p1", DisplayName: "old"})
	h.Remove()
	h.Unlock()

	h = r.LockOrCreate("p1")
	assert.Nil(t, h.Session())
	h.Set(&domain.Session{PlayerID: "p1", DisplayName: "new"})
	h.Unlock()

	h, err := r.Lock("p1")
	require.NoError(t, err)
	assert.Equal(t, "new", h.Session().DisplayName)
	h.Unlock()
}

func TestRegistrySerializesPerPlayer(t *testing.T) {
	r := NewRegistry()
	h := r.LockOrCreate("p1")
	h.Set(&domain.Session{PlayerID: "p1"})
	h.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := r.Lock("p1")
			if err != nil {
				return
			}
			s := h.Session()
			s.Balance = s.Balance.Add(dec("1"))
			h.Unlock()
		}()
	}
	wg.Wait()

	h, err := r.Lock("p1")
	require.NoError(t, err)
	defer h.Unlock()
	assert.True(t, h.Session().Balance.Equal(dec("100")))
}
