package storage

import "time"

// Storage defines interface for any object storage
type Storage[K comparable, V any] interface {
	Set(key K, value V)
	Get(key K) (V, bool)
	Delete(key K) bool
	GetAll() map[K]V
	GetAllValues() []V
	MarkDirty(key K)
	MarkSeen(key K)
	GetDirty() map[K]V
	ClearDirty(keys []K)
	LastUpdate(key K) (time.Time, bool)
	IdleSince(t time.Time) []K
	ForEach(fn func(key K, value V) bool)
	Count() int
}

var _ Storage[string, int] = (*MemoryStorage[string, int])(nil)
