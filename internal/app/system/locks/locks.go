// internal/app/system/locks/locks.go

// Package locks provides keyed mutexes used to serialize mutations on a
// per-record basis: per class for enrollment writes and per
// (assignment, student) pair for submission replacement.
package locks

import (
	"fmt"
	"sort"
	"sync"
)

// Keyed hands out one mutex per string key. Mutexes are never released;
// the key space here (class ids, assignment/student pairs) is small and
// bounded by the data set.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyed returns an empty keyed-mutex set.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*sync.Mutex)}
}

func (k *Keyed) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *Keyed) Lock(key string) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}

// LockAll acquires the mutexes for all keys in sorted order, which keeps
// concurrent multi-key callers from deadlocking against each other.
// Duplicate keys are locked once. The returned function releases all of them.
func (k *Keyed) LockAll(keys []string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		uniq = append(uniq, key)
	}
	sort.Strings(uniq)

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, key := range uniq {
		m := k.get(key)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// ClassKey is the lock key for a class record.
func ClassKey(classID int64) string { return fmt.Sprintf("class:%d", classID) }

// StudentKey is the lock key for a student's enrollment set.
func StudentKey(studentID int64) string { return fmt.Sprintf("student:%d", studentID) }

// SubmissionKey is the lock key for one (assignment, student) pair.
func SubmissionKey(assignmentID, studentID int64) string {
	return fmt.Sprintf("submission:%d:%d", assignmentID, studentID)
}
