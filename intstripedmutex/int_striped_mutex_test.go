package intstripedmutex

import (
	"sync"
	"testing"
)

func TestSameKeySameLock(t *testing.T) {
	m := New(16)
	if m.GetLock(StringKey("sheet:Prompts")) != m.GetLock(StringKey("sheet:Prompts")) {
		t.Fatal("equal keys must map to the same stripe")
	}
	if m.GetLock(3) != m.GetLock(19) {
		t.Fatal("keys congruent modulo stripes must share a stripe")
	}
}

func TestLockStringSerialises(t *testing.T) {
	m := New(4)
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.LockString("abc:Prompts")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("expected 50 increments, got %d", counter)
	}
}

func TestLockStringUnlockReleasesStripe(t *testing.T) {
	m := New(1)
	unlock := m.LockString("a:Prompts")
	unlock()
	if !m.GetLock(StringKey("b:Other")).TryLock() {
		t.Fatal("stripe still held after unlock")
	}
}
