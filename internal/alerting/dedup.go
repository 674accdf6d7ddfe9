package alerting

import (
	"sync"
	"time"
)

// Deduper 记录已推送的告警 id，TTL 内不重复推送。
type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	max  int
	now  func() time.Time
	seen map[int64]time.Time
}

// NewDeduper 构造去重器；ttl<=0 时默认 6 小时。
func NewDeduper(ttl time.Duration, max int, now func() time.Time) *Deduper {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	if max <= 0 {
		max = 10000
	}
	if now == nil {
		now = time.Now
	}
	return &Deduper{ttl: ttl, max: max, now: now, seen: make(map[int64]time.Time)}
}

// ShouldProcess reports whether id has not been seen within the TTL, and marks it seen.
func (d *Deduper) ShouldProcess(id int64) bool {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return false
	}
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.max {
		for k, v := range d.seen {
			if now.After(v) {
				delete(d.seen, k)
			}
			if len(d.seen) <= d.max {
				break
			}
		}
	}
	return true
}

// Forget drops id so a later failure can be retried.
func (d *Deduper) Forget(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}
