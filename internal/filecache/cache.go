// Package filecache is an in-memory, fsnotify-invalidated cache of file
// contents and modification times, serving the File Handler's
// request-time reads.
package filecache

import (
	"encoding/binary"
	"os"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

// Cache holds file contents keyed by an xxhash of their path, alongside
// the modification time observed when they were cached, and drops entries
// when fsnotify reports the underlying file changed.
type Cache struct {
	store    *fastcache.Cache
	modTimes sync.Map // path (string) -> time.Time
	watched  sync.Map // path (string) -> struct{}
	watcher  *fsnotify.Watcher
}

// New returns a Cache backed by a fastcache of at most maxBytes.
func New(maxBytes int) (*Cache, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	c := &Cache{
		store:   fastcache.New(maxBytes),
		watcher: watcher,
	}
	go c.invalidateLoop()
	return c, nil
}

func (c *Cache) invalidateLoop() {
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.invalidate(ev.Name)
		case _, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (c *Cache) invalidate(path string) {
	c.store.Del(cacheKey(path))
	c.modTimes.Delete(path)
	c.watched.Delete(path)
}

// Read returns the contents and modification time for path, serving from
// cache when the path is known and falling back to disk (and populating
// the cache) otherwise.
func (c *Cache) Read(path string) ([]byte, time.Time, error) {
	if mt, ok := c.modTimes.Load(path); ok {
		if data := c.store.Get(nil, cacheKey(path)); len(data) > 0 {
			return data, mt.(time.Time), nil
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, err
	}

	c.store.Set(cacheKey(path), data)
	c.modTimes.Store(path, info.ModTime())
	if _, already := c.watched.LoadOrStore(path, struct{}{}); !already {
		_ = c.watcher.Add(path)
	}

	return data, info.ModTime(), nil
}

// Close stops the fsnotify watcher goroutine.
func (c *Cache) Close() error {
	return c.watcher.Close()
}

func cacheKey(path string) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, xxhash.Sum64String(path))
	return buf
}
