package intstripedmutex

import (
	"hash/fnv"
	"sync"
)

// IntStripedMutex serialises work per key over a fixed number of mutexes.
// Equal keys always map to the same stripe; unrelated keys may share one.
type IntStripedMutex struct {
	stripes []*sync.Mutex
}

// LockString acquires the stripe for a string key and returns its unlock func.
func (m *IntStripedMutex) LockString(key string) func() {
	l := m.GetLock(StringKey(key))
	l.Lock()
	return l.Unlock
}

// GetLock retrieve a lock for a given key
func (m *IntStripedMutex) GetLock(key uint64) *sync.Mutex {
	return m.stripes[key%uint64(len(m.stripes))]
}

// StringKey hashes a string key with FNV-1a.
func StringKey(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

// New creates a IntStripedMutex
func New(stripes uint) *IntStripedMutex {
	if stripes == 0 {
		stripes = 1
	}
	m := &IntStripedMutex{
		make([]*sync.Mutex, stripes),
	}
	for i := 0; i < len(m.stripes); i++ {
		m.stripes[i] = &sync.Mutex{}
	}

	return m
}
