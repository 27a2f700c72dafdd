// Package cache holds the last fetched backend data for one session. A slot's
// value and its timestamp always change together; freshness is computed at
// read time from the timestamp.
package cache

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/julianstephens/drivewise/internal/models"
)

// Slot names one fixed cache entry.
type Slot string

const (
	SlotTripDaily   Slot = "trip_daily"
	SlotTripMonthly Slot = "trip_monthly"
	SlotTripYearly  Slot = "trip_yearly"
	SlotFinancial   Slot = "financial_advice"
	SlotWellness    Slot = "wellness_advice"
	SlotInvestment  Slot = "investment_advice"
)

// Slots lists every slot the store knows about.
var Slots = []Slot{SlotTripDaily, SlotTripMonthly, SlotTripYearly, SlotFinancial, SlotWellness, SlotInvestment}

// TripSlot returns the trip statistics slot for period.
func TripSlot(period models.Period) Slot {
	switch period {
	case models.PeriodMonthly:
		return SlotTripMonthly
	case models.PeriodYearly:
		return SlotTripYearly
	default:
		return SlotTripDaily
	}
}

type entry struct {
	value     any
	key       string // hash of the request inputs, empty for unkeyed slots
	updatedAt time.Time
}

// Store is the session cache. The zero value is not usable; call New.
type Store struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[Slot]entry
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:     time.Now,
		entries: make(map[Slot]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value in slot, or nil.
func (s *Store) Get(slot Slot) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[slot].value
}

// Set overwrites slot and stamps it with the current time.
func (s *Store) Set(slot Slot, value any) {
	s.SetKeyed(slot, "", value)
}

// SetKeyed overwrites slot, recording the request key the value answers.
func (s *Store) SetKeyed(slot Slot, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[slot] = entry{value: value, key: key, updatedAt: s.now()}
}

// IsValid reports whether slot was set less than ttl ago.
func (s *Store) IsValid(slot Slot, ttl time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validLocked(slot, ttl)
}

// IsValidKeyed is IsValid that also requires the slot to hold the answer for key.
func (s *Store) IsValidKeyed(slot Slot, key string, ttl time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validLocked(slot, ttl) && s.entries[slot].key == key
}

func (s *Store) validLocked(slot Slot, ttl time.Duration) bool {
	e, ok := s.entries[slot]
	if !ok || e.updatedAt.IsZero() {
		return false
	}
	return s.now().Sub(e.updatedAt) < ttl
}

// LastUpdated returns when slot was last set; ok is false if never.
func (s *Store) LastUpdated(slot Slot) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[slot]
	return e.updatedAt, ok
}

// Clear empties every slot and timestamp.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[Slot]entry)
}

// Lookup returns the value in slot as a T.
func Lookup[T any](s *Store, slot Slot) (T, bool) {
	v, ok := s.Get(slot).(T)
	return v, ok
}

// Key hashes request inputs into a cache key.
func Key(inputs any) (string, error) {
	h, err := hashstructure.Hash(inputs, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("failed to hash cache key: %w", err)
	}
	return strconv.FormatUint(h, 16), nil
}
