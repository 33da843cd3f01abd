package orderledger

import (
	"hash/fnv"
	"sync"
)

const shardCount = 64

// keyLock serialises work per key. Keys hash onto a fixed set of shards, so unrelated
// sessions only contend when they happen to share a shard.
type keyLock struct {
	shards [shardCount]sync.Mutex
}

func (l *keyLock) shard(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.shards[h.Sum32()%shardCount]
}

func (l *keyLock) withLock(key string, f func() error) error {
	m := l.shard(key)
	m.Lock()
	defer m.Unlock()

	return f()
}
