package domain

import (
	"errors"
	"time"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Room is the unit of relay: a token-scoped, time-bounded group of
// connections. Expiry is fixed at creation and never extended by activity.
type Room struct {
	Token       string    `json:"token"`
	Expiry      time.Time `json:"expiry"`
	MemberCount int       `json:"memberCount"`
}

func (r *Room) Expired(now time.Time) bool {
	return !now.Before(r.Expiry)
}

// Registry is the single source of truth for active rooms. All mutating
// operations are atomic with respect to concurrent callers; eviction and
// membership changes on the same token are mutually exclusive.
type Registry interface {
	// Create inserts a fresh room for token expiring ttl from now. An
	// existing room under the same token is silently overwritten.
	Create(token string, ttl time.Duration)

	// Exists reports whether the token is present, expired or not.
	Exists(token string) bool

	// IsValid reports whether the token is present and not yet expired.
	// Trust decisions must use IsValid, not Exists: the sweeper only
	// removes expired rooms periodically.
	IsValid(token string) bool

	// RemainingTTL returns the time left before the room expires, or
	// ErrRoomNotFound.
	RemainingTTL(token string) (time.Duration, error)

	// IncrementMembers / DecrementMembers adjust the member count and
	// return the new value. Decrement floors at zero. Both return
	// ErrRoomNotFound for an absent token.
	IncrementMembers(token string) (int, error)
	DecrementMembers(token string) (int, error)

	// EvictExpired removes every room whose expiry is at or before now
	// and returns the evicted tokens.
	EvictExpired(now time.Time) []string
}
