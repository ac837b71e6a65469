package completion

import (
	"testing"
	"time"
)

//nolint:gochecknoglobals // Test fixture.
var cacheNow = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func TestTranslationCacheLookupStore(t *testing.T) {
	cache := newTranslationCache(2, time.Hour)
	if cache == nil {
		t.Fatalf("expected cache instance")
	}

	pair := newLanguagePair("English", "French")
	cache.store(pair, "hello", "bonjour", cacheNow)

	text, ok := cache.lookup(pair, "hello", cacheNow.Add(time.Minute))
	if !ok {
		t.Fatalf("expected cached translation to be present")
	}

	if text != "bonjour" {
		t.Fatalf("unexpected translation: %q", text)
	}
}

func TestTranslationCacheDisabled(t *testing.T) {
	tests := []struct {
		name       string
		maxEntries int
		ttl        time.Duration
	}{
		{"Zero size", 0, time.Hour},
		{"Zero TTL", 4, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cache := newTranslationCache(test.maxEntries, test.ttl)
			pair := newLanguagePair("English", "French")

			cache.store(pair, "hello", "bonjour", cacheNow)

			if _, ok := cache.lookup(pair, "hello", cacheNow); ok {
				t.Fatalf("expected disabled cache to miss")
			}
		})
	}
}

func TestTranslationCacheExpiresAfterTTL(t *testing.T) {
	cache := newTranslationCache(2, time.Minute)
	pair := newLanguagePair("English", "French")
	cache.store(pair, "hello", "bonjour", cacheNow)

	if _, ok := cache.lookup(pair, "hello", cacheNow.Add(time.Minute)); ok {
		t.Fatalf("expected translation to expire")
	}

	if cache.size() != 0 {
		t.Fatalf("expected expired translation to be removed")
	}
}

func TestTranslationCacheHitDoesNotExtendTTL(t *testing.T) {
	cache := newTranslationCache(2, time.Hour)
	pair := newLanguagePair("English", "French")
	cache.store(pair, "hello", "bonjour", cacheNow)

	if _, ok := cache.lookup(pair, "hello", cacheNow.Add(50*time.Minute)); !ok {
		t.Fatalf("expected translation before expiry")
	}

	if _, ok := cache.lookup(pair, "hello", cacheNow.Add(61*time.Minute)); ok {
		t.Fatalf("expected translation to expire an hour after it was stored")
	}
}

func TestTranslationCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := newTranslationCache(2, time.Hour)
	pair := newLanguagePair("English", "German")

	cache.store(pair, "a", "text-a", cacheNow)
	cache.store(pair, "b", "text-b", cacheNow)

	if _, ok := cache.lookup(pair, "a", cacheNow); !ok {
		t.Fatalf("expected entry a to exist before eviction check")
	}

	cache.store(pair, "c", "text-c", cacheNow)

	if _, ok := cache.lookup(pair, "a", cacheNow); !ok {
		t.Fatalf("expected entry a to remain after evicting least recently used")
	}

	if _, ok := cache.lookup(pair, "b", cacheNow); ok {
		t.Fatalf("expected entry b to be evicted")
	}

	if _, ok := cache.lookup(pair, "c", cacheNow); !ok {
		t.Fatalf("expected entry c to be cached")
	}
}

func TestTranslationCacheSeparatesLanguagePairs(t *testing.T) {
	cache := newTranslationCache(4, time.Hour)
	cache.store(newLanguagePair("English", "French"), "hi", "salut", cacheNow)

	if _, ok := cache.lookup(newLanguagePair("English", "German"), "hi", cacheNow); ok {
		t.Fatalf("expected a different target language to miss")
	}

	if _, ok := cache.lookup(newLanguagePair("French", "English"), "hi", cacheNow); ok {
		t.Fatalf("expected the reverse direction to miss")
	}

	text, ok := cache.lookup(newLanguagePair(" english", "FRENCH "), "hi", cacheNow)
	if !ok || text != "salut" {
		t.Fatalf("expected language names to match case-insensitively, got %q, %v", text, ok)
	}
}
