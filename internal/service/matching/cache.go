package matching

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// staleRetention keeps expired expansions around long enough to serve them
// while a refresh is in flight, after which go-cache purges them.
const staleRetention = 10

// LoaderFunc loads and expands availability for one organization.
type LoaderFunc func(ctx context.Context, organizationID uuid.UUID, referenceDate time.Time) (*IndexedSet, error)

type cacheEntry struct {
	set           *IndexedSet
	referenceDate time.Time
	loadedAt      time.Time
}

type inflightLoad struct {
	done chan struct{}
	set  *IndexedSet
	err  error
}

// ExpansionCache memoizes the expansion step per organization. Expansion is
// the expensive half of a match and the underlying data changes
// infrequently, so one refresh at a time is allowed per key: concurrent
// callers during a refresh are served the previous value when one exists, or
// wait for the in-flight load when none does.
type ExpansionCache struct {
	ttl  time.Duration
	load LoaderFunc

	store *gocache.Cache

	mu       sync.Mutex
	inflight map[string]*inflightLoad
}

func NewExpansionCache(ttl time.Duration, load LoaderFunc) *ExpansionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ExpansionCache{
		ttl:      ttl,
		load:     load,
		store:    gocache.New(staleRetention*ttl, ttl),
		inflight: make(map[string]*inflightLoad),
	}
}

// Get returns the expanded instance set for an organization, refreshing it
// when it is missing, older than the TTL, or was expanded for a different
// reference date.
func (c *ExpansionCache) Get(ctx context.Context, organizationID uuid.UUID, referenceDate time.Time) (*IndexedSet, error) {
	key := organizationID.String()

	c.mu.Lock()
	entry := c.entryLocked(key)
	if entry != nil && c.freshLocked(entry, referenceDate) {
		c.mu.Unlock()
		return entry.set, nil
	}

	if fl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		if entry != nil {
			// Serve stale while the refresh proceeds.
			return entry.set, nil
		}
		select {
		case <-fl.done:
			return fl.set, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fl := &inflightLoad{done: make(chan struct{})}
	c.inflight[key] = fl

	if entry != nil {
		// A previous value exists: refresh in the background and serve it.
		c.mu.Unlock()
		go c.refresh(context.Background(), key, organizationID, referenceDate, fl)
		return entry.set, nil
	}

	c.mu.Unlock()
	c.refresh(ctx, key, organizationID, referenceDate, fl)
	return fl.set, fl.err
}

// Invalidate forces the next Get for the organization to reload.
func (c *ExpansionCache) Invalidate(organizationID uuid.UUID) {
	c.store.Delete(organizationID.String())
}

func (c *ExpansionCache) refresh(ctx context.Context, key string, organizationID uuid.UUID, referenceDate time.Time, fl *inflightLoad) {
	set, err := c.load(ctx, organizationID, referenceDate)

	c.mu.Lock()
	if err == nil {
		c.store.Set(key, &cacheEntry{
			set:           set,
			referenceDate: referenceDate,
			loadedAt:      time.Now(),
		}, staleRetention*c.ttl)
	} else {
		log.Error().Err(err).
			Str("organization_id", key).
			Msg("availability expansion refresh failed")
	}
	delete(c.inflight, key)
	c.mu.Unlock()

	fl.set = set
	fl.err = err
	close(fl.done)
}

func (c *ExpansionCache) entryLocked(key string) *cacheEntry {
	if v, ok := c.store.Get(key); ok {
		return v.(*cacheEntry)
	}
	return nil
}

func (c *ExpansionCache) freshLocked(entry *cacheEntry, referenceDate time.Time) bool {
	return time.Since(entry.loadedAt) < c.ttl && entry.referenceDate.Equal(referenceDate)
}
