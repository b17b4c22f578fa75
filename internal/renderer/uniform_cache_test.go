package renderer

import (
	"testing"
)

func fakeLookup(calls *int) func(uint32, string) int32 {
	return func(_ uint32, name string) int32 {
		*calls++
		if name == "missing" {
			return -1
		}
		return int32(len(name))
	}
}

func TestNewUniformCache(t *testing.T) {
	cache := NewUniformCache(0)

	if cache == nil {
		t.Fatal("NewUniformCache returned nil")
	}

	if cache.locations == nil {
		t.Error("locations map should be initialized")
	}
}

func TestUniformCacheLooksUpOnce(t *testing.T) {
	calls := 0
	cache := NewUniformCache(3)
	cache.lookup = fakeLookup(&calls)

	first := cache.GetLocation("diffuseColor")
	second := cache.GetLocation("diffuseColor")

	if first != 12 || second != 12 {
		t.Errorf("Expected location 12, got %d and %d", first, second)
	}
	if calls != 1 {
		t.Errorf("Expected 1 lookup, got %d", calls)
	}
}

func TestUniformCacheRemembersMissing(t *testing.T) {
	calls := 0
	cache := NewUniformCache(3)
	cache.lookup = fakeLookup(&calls)

	cache.GetLocation("missing")
	loc := cache.GetLocation("missing")

	if loc != -1 {
		t.Errorf("Expected -1, got %d", loc)
	}
	if calls != 1 {
		t.Errorf("Expected missing location to be cached, got %d lookups", calls)
	}
}

func TestUniformCacheClear(t *testing.T) {
	calls := 0
	cache := NewUniformCache(0)
	cache.lookup = fakeLookup(&calls)
	cache.GetLocation("test")

	cache.Clear()

	if len(cache.locations) != 0 {
		t.Error("Clear should empty the cache")
	}
	cache.GetLocation("test")
	if calls != 2 {
		t.Errorf("Expected lookup after clear, got %d lookups", calls)
	}
}
