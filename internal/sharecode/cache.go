// Package sharecode holds database exports behind short one-time transfer
// codes. Entries are time-boxed; an expired code is a miss even before the
// sweeper has run.
package sharecode

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Codes avoid lookalike characters (I, O, 0, 1).
const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLen = 8

// DefaultTTL bounds how long a transfer code stays redeemable.
const DefaultTTL = 10 * time.Minute

type entry struct {
	payload  string
	storedAt time.Time
}

// Cache is an explicitly owned in-memory code store with its own eviction
// sweep. Close stops the sweeper.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	gen     func() string
	stop    chan struct{}
	once    sync.Once
}

// New creates a cache and starts its sweep loop (<=0 ttl means DefaultTTL).
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		gen:     newCode,
		stop:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for code, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, code)
		}
	}
}

// Put stores a payload and returns its code. A drawn code that still maps to
// a live entry is redrawn rather than replacing someone's pending transfer.
func (c *Cache) Put(payload string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	code := c.gen()
	for {
		e, taken := c.entries[code]
		if !taken || c.now().Sub(e.storedAt) > c.ttl {
			break
		}
		code = c.gen()
	}
	c.entries[code] = entry{payload: payload, storedAt: c.now()}
	return code
}

// Get redeems a code. Dashes and case from hand-typed input are tolerated.
func (c *Cache) Get(code string) (string, bool) {
	code = Normalize(code)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[code]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, code)
		return "", false
	}
	return e.payload, true
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Close stops the sweep loop. Safe to call more than once.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func newCode() string {
	b := make([]byte, codeLen)
	for i := range b {
		b[i] = codeChars[rand.Intn(len(codeChars))]
	}
	return string(b)
}

// Normalize strips the display dash and uppercases hand-typed input.
func Normalize(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}

// Format renders a code for display as XXXX-XXXX.
func Format(code string) string {
	if len(code) != codeLen {
		return code
	}
	return code[:4] + "-" + code[4:]
}
