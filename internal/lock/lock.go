// Package lock serialises writers per owner: in-process with LocalLocker,
// across instances with RedisLocker.
package lock

import (
	"context"
	"sync"
)

// Unlock освобождает захваченный ключ. Повторный вызов ничего не делает.
type Unlock func()

// Locker захватывает ключ до вызова Unlock или отмены ctx
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// OwnerKey ключ блокировки для операций над данными владельца
func OwnerKey(scope, ownerID string) string {
	return scope + ":" + ownerID
}

type entry struct {
	sem  chan struct{}
	refs int
}

// LocalLocker keyed mutex внутри процесса. Записи удаляются, когда ключ никто не держит и не ждёт.
type LocalLocker struct {
	mu   sync.Mutex
	keys map[string]*entry
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{keys: make(map[string]*entry)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

func (l *LocalLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}

// size число отслеживаемых ключей, для тестов
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
