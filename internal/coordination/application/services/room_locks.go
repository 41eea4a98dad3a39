package services

import (
	"sync"

	"github.com/google/uuid"
)

// RoomLocks serializes mutations per room. Every mutating command holds the
// write lock for validate, mutate, recompute, persist; reads take the read
// lock so they never observe a half-recomputed date.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.RWMutex
}

// NewRoomLocks creates an empty lock manager.
func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[uuid.UUID]*sync.RWMutex)}
}

func (l *RoomLocks) lockFor(roomID uuid.UUID) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[roomID]
	if !ok {
		lock = &sync.RWMutex{}
		l.locks[roomID] = lock
	}
	return lock
}

// Lock acquires the room's write lock and returns the unlock func.
func (l *RoomLocks) Lock(roomID uuid.UUID) func() {
	lock := l.lockFor(roomID)
	lock.Lock()
	return lock.Unlock
}

// RLock acquires the room's read lock and returns the unlock func.
func (l *RoomLocks) RLock(roomID uuid.UUID) func() {
	lock := l.lockFor(roomID)
	lock.RLock()
	return lock.RUnlock
}
