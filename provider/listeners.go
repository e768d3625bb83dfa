package provider

import (
	"sync"

	"github.com/google/uuid"
)

// Listeners is a registry of sign-in state listeners shared by provider implementations.
// The zero value is ready to use.
type Listeners struct {
	listeners map[uuid.UUID]func(bool)
	lock      sync.RWMutex
}

// Add registers listener and returns a func that removes it.
func (l *Listeners) Add(listener func(signedIn bool)) func() {
	id := uuid.New()

	l.lock.Lock()
	if l.listeners == nil {
		l.listeners = make(map[uuid.UUID]func(bool))
	}
	l.listeners[id] = listener
	l.lock.Unlock()

	return func() {
		l.lock.Lock()
		delete(l.listeners, id)
		l.lock.Unlock()
	}
}

// Notify calls every registered listener with signedIn. Listeners run outside the lock
// so they may register or unregister others.
func (l *Listeners) Notify(signedIn bool) {
	l.lock.RLock()
	snapshot := make([]func(bool), 0, len(l.listeners))
	for _, fn := range l.listeners {
		snapshot = append(snapshot, fn)
	}
	l.lock.RUnlock()

	for _, fn := range snapshot {
		fn(signedIn)
	}
}

// Len reports the number of registered listeners.
func (l *Listeners) Len() int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return len(l.listeners)
}
