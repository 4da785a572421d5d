package registry

import (
	"sync"
	"time"

	"github.com/phantom-chat/phantom/internal/domain"
)

// roomRegistry is the in-memory token -> room map. A single RWMutex
// serializes every read and write, which makes eviction and membership
// mutation on the same token mutually exclusive: a join racing an eviction
// sweep either lands before the delete or observes the room as gone.
type roomRegistry struct {
	rooms map[string]*domain.Room
	mu    sync.RWMutex

	now func() time.Time
}

func New() domain.Registry {
	return &roomRegistry{
		rooms: make(map[string]*domain.Room),
		now:   time.Now,
	}
}

// NewWithClock injects the clock, for deterministic expiry in tests.
func NewWithClock(now func() time.Time) domain.Registry {
	return &roomRegistry{
		rooms: make(map[string]*domain.Room),
		now:   now,
	}
}

// Create overwrites silently: re-creating an existing token is treated as
// a fresh room. Collisions across issued tokens are not detected; the
// identifier space makes them vanishingly unlikely.
func (r *roomRegistry) Create(token string, ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[token] = &domain.Room{
		Token:       token,
		Expiry:      r.now().Add(ttl),
		MemberCount: 0,
	}
}

func (r *roomRegistry) Exists(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[token]
	return ok
}

func (r *roomRegistry) IsValid(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[token]
	return ok && !room.Expired(r.now())
}

func (r *roomRegistry) RemainingTTL(token string) (time.Duration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[token]
	if !ok {
		return 0, domain.ErrRoomNotFound
	}

	return room.Expiry.Sub(r.now()), nil
}

func (r *roomRegistry) IncrementMembers(token string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[token]
	if !ok {
		return 0, domain.ErrRoomNotFound
	}

	room.MemberCount++
	return room.MemberCount, nil
}

func (r *roomRegistry) DecrementMembers(token string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[token]
	if !ok {
		return 0, domain.ErrRoomNotFound
	}

	if room.MemberCount > 0 {
		room.MemberCount--
	}
	return room.MemberCount, nil
}

func (r *roomRegistry) EvictExpired(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for token, room := range r.rooms {
		if room.Expired(now) {
			delete(r.rooms, token)
			evicted = append(evicted, token)
		}
	}

	return evicted
}
