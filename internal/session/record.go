package session

import (
	"time"

	"vinylshelf/internal/models"

	"github.com/segmentio/ksuid"
)

// PayloadKeyAttempt is the fixed key under which a login attempt is kept in
// the serialized session data.
const PayloadKeyAttempt = "params"

// Payload enumerates the kinds of data a session may carry. The login
// attempt exists only between redirect and callback; the user only after a
// successful login. Both serialize into the record's data blob.
type Payload struct {
	Attempt *models.LoginAttempt `json:"params,omitempty"`
	User    *models.User         `json:"user,omitempty"`
}

// Empty reports whether the payload carries nothing worth persisting.
func (p Payload) Empty() bool {
	return p.Attempt == nil && p.User == nil
}

// Record is one session as the store sees it. The store owns persistence;
// cached copies are replaced on every write.
type Record struct {
	ID          string
	Data        Payload
	ExpiresAt   time.Time
	RefreshedAt time.Time
	CreatedAt   time.Time
}

// NewRecord creates a blank record with a fresh opaque id expiring after ttl.
func NewRecord(ttl time.Duration) *Record {
	now := time.Now()
	return &Record{
		ID:        ksuid.New().String(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// Expired reports whether the record's lifetime has passed.
func (r *Record) Expired() bool {
	return time.Now().After(r.ExpiresAt)
}

// clone returns a copy so cached records cannot be mutated behind the
// store's back.
func (r *Record) clone() *Record {
	dup := *r
	if r.Data.Attempt != nil {
		attempt := *r.Data.Attempt
		dup.Data.Attempt = &attempt
	}
	if r.Data.User != nil {
		user := *r.Data.User
		dup.Data.User = &user
	}
	return &dup
}
