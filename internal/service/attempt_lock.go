package service

import (
	"sync"
	"time"
)

// attemptEntry 包装互斥锁、持有/排队计数和最后使用时间，用于定期清理
type attemptEntry struct {
	mu       sync.Mutex
	refs     int
	lastUsed time.Time
}

// attemptLocks serializes read-modify-write sequences per attempt id, so two
// concurrent submits for the same attempt never work from the same stale
// base. Cross-attempt operations never contend.
type attemptLocks struct {
	mu      sync.Mutex
	entries map[uint]*attemptEntry
}

func newAttemptLocks() *attemptLocks {
	l := &attemptLocks{entries: make(map[uint]*attemptEntry)}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			l.sweep(10 * time.Minute)
		}
	}()

	return l
}

// sweep 删除空闲超窗的条目。仍被持有或有排队者的条目不删，
// 否则同一会话会拿到新条目并与旧持有者并发执行。
func (l *attemptLocks) sweep(idleFor time.Duration) {
	l.mu.Lock()
	for id, e := range l.entries {
		if e.refs == 0 && time.Since(e.lastUsed) > idleFor {
			delete(l.entries, id)
		}
	}
	l.mu.Unlock()
}

// Lock 独占指定会话，返回解锁函数
func (l *attemptLocks) Lock(attemptID uint) func() {
	l.mu.Lock()
	e, ok := l.entries[attemptID]
	if !ok {
		e = &attemptEntry{}
		l.entries[attemptID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		e.lastUsed = time.Now()
		l.mu.Unlock()
	}
}
