package completion

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

const (
	DefaultCacheMaxEntries = 1024
	DefaultCacheTTL        = 6 * time.Hour
)

// languagePair is a translation direction. Language names are compared
// case-insensitively, so "French" and "french" share entries.
type languagePair struct {
	source string
	target string
}

func newLanguagePair(source string, target string) languagePair {
	return languagePair{
		source: strings.ToLower(strings.TrimSpace(source)),
		target: strings.ToLower(strings.TrimSpace(target)),
	}
}

type translationKey struct {
	pair languagePair
	text string
}

type cachedTranslation struct {
	key         translationKey
	translation string
	storedAt    time.Time
}

// translationCache keeps the most recently used translations for a fixed
// time after they were produced. A nil cache stores nothing.
type translationCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[translationKey]*list.Element
	recent     *list.List
}

func newTranslationCache(maxEntries int, ttl time.Duration) *translationCache {
	if maxEntries <= 0 || ttl <= 0 {
		return nil
	}

	return &translationCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[translationKey]*list.Element, maxEntries),
		recent:     list.New(),
	}
}

func (c *translationCache) lookup(pair languagePair, text string, now time.Time) (string, bool) {
	if c == nil {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[translationKey{pair: pair, text: text}]
	if !ok {
		return "", false
	}

	cached := elem.Value.(*cachedTranslation) //nolint:forcetypeassert // only translations are stored
	if now.Sub(cached.storedAt) >= c.ttl {
		c.remove(elem)
		return "", false
	}

	c.recent.MoveToFront(elem)

	return cached.translation, true
}

func (c *translationCache) store(pair languagePair, text string, translation string, now time.Time) {
	if c == nil || translation == "" {
		return
	}

	key := translationKey{pair: pair, text: text}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		cached := elem.Value.(*cachedTranslation) //nolint:forcetypeassert // only translations are stored
		cached.translation = translation
		cached.storedAt = now
		c.recent.MoveToFront(elem)

		return
	}

	c.entries[key] = c.recent.PushFront(&cachedTranslation{
		key:         key,
		translation: translation,
		storedAt:    now,
	})

	for len(c.entries) > c.maxEntries {
		c.remove(c.recent.Back())
	}
}

func (c *translationCache) size() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *translationCache) remove(elem *list.Element) {
	cached := elem.Value.(*cachedTranslation) //nolint:forcetypeassert // only translations are stored

	delete(c.entries, cached.key)
	c.recent.Remove(elem)
}
