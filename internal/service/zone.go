package service

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ZoneResolver maps a user's stored IANA zone name to a location. Empty or
// unknown names fall back to the default zone.
type ZoneResolver struct {
	fallback *time.Location
	mu       sync.RWMutex
	cache    map[string]*time.Location
}

func NewZoneResolver(fallback *time.Location) *ZoneResolver {
	if fallback == nil {
		fallback = time.UTC
	}
	return &ZoneResolver{fallback: fallback, cache: make(map[string]*time.Location)}
}

func (z *ZoneResolver) Default() *time.Location {
	return z.fallback
}

func (z *ZoneResolver) Resolve(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return z.fallback
	}

	z.mu.RLock()
	loc, ok := z.cache[name]
	z.mu.RUnlock()
	if ok {
		return loc
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = z.fallback
	}
	z.mu.Lock()
	z.cache[name] = loc
	z.mu.Unlock()
	return loc
}

// Lookup validates a zone name typed by a user.
func (z *ZoneResolver) Lookup(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty time zone", ErrInvalidInput)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", ErrInvalidInput, name)
	}
	return loc, nil
}
