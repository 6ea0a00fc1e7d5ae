package session

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultCacheCapacity bounds the in-memory fast path independent of
// session volume.
const DefaultCacheCapacity = 1000

// Store persists session records durably and keeps a non-authoritative
// cached copy in front. The store exclusively owns persistence; every
// write replaces the cached copy, and a cache miss reads through.
type Store struct {
	backend Backend
	cache   Cache
}

// NewStore combines a durable backend with a cache. A nil cache falls back
// to a bounded LRU of DefaultCacheCapacity entries.
func NewStore(backend Backend, cache Cache) *Store {
	if cache == nil {
		cache = NewLRUCache(DefaultCacheCapacity)
	}
	return &Store{backend: backend, cache: cache}
}

// Create persists a brand-new record. It fails if a record with the same id
// already exists. The cache is populated only after the durable write
// succeeded.
func (s *Store) Create(ctx context.Context, record *Record) error {
	row, err := encodeRecord(record)
	if err != nil {
		return err
	}
	if err := s.backend.Insert(ctx, row); err != nil {
		return backendError(err)
	}
	s.cache.Put(record.ID, record.clone())

	logrus.WithFields(logrus.Fields{
		"session_id": record.ID,
		"expires_at": record.ExpiresAt,
	}).Debug("Session record created")
	return nil
}

// Save overwrites an existing record's mutable fields and bumps its
// refreshed timestamp, writing through to durable storage before the cache
// copy is replaced.
func (s *Store) Save(ctx context.Context, record *Record) error {
	record.RefreshedAt = time.Now()
	row, err := encodeRecord(record)
	if err != nil {
		return err
	}
	if err := s.backend.Update(ctx, row); err != nil {
		return backendError(err)
	}
	s.cache.Put(record.ID, record.clone())

	logrus.WithField("session_id", record.ID).Debug("Session record saved")
	return nil
}

// Load returns the record for id, or (nil, nil) when none exists. A cache
// hit is trusted without consulting durable storage; a miss reads through
// and populates the cache. Expired records are never served.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	if cached, ok := s.cache.Get(id); ok {
		if cached.Expired() {
			return nil, nil
		}
		return cached.clone(), nil
	}

	row, err := s.backend.FindByID(ctx, id)
	if err != nil {
		return nil, backendError(err)
	}
	if row == nil {
		return nil, nil
	}

	record, err := decodeRow(row)
	if err != nil {
		return nil, err
	}
	s.cache.Put(record.ID, record.clone())
	if record.Expired() {
		return nil, nil
	}
	return record, nil
}

// Delete removes the record from durable storage and evicts the cached
// copy. Deleting an absent record succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteByID(ctx, id); err != nil {
		return backendError(err)
	}
	s.cache.Pop(id)

	logrus.WithField("session_id", id).Debug("Session record deleted")
	return nil
}

// encodeRecord converts a record to its durable shape, rejecting payloads
// or timestamps the store cannot represent.
func encodeRecord(record *Record) (*Row, error) {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return nil, encodeError(err)
	}
	expiresAt, err := checkTimestamp(record.ExpiresAt)
	if err != nil {
		return nil, err
	}
	refreshedAt := record.RefreshedAt
	if refreshedAt.IsZero() {
		refreshedAt = time.Now()
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &Row{
		ID:          record.ID,
		Data:        data,
		ExpiresAt:   expiresAt,
		RefreshedAt: refreshedAt.UTC(),
		CreatedAt:   createdAt.UTC(),
	}, nil
}

// decodeRow converts a durable row back into a record.
func decodeRow(row *Row) (*Record, error) {
	var payload Payload
	if err := json.Unmarshal(row.Data, &payload); err != nil {
		return nil, decodeError(err)
	}
	return &Record{
		ID:          row.ID,
		Data:        payload,
		ExpiresAt:   row.ExpiresAt,
		RefreshedAt: row.RefreshedAt,
		CreatedAt:   row.CreatedAt,
	}, nil
}

// checkTimestamp rejects instants outside the range representable as
// nanoseconds in an int64, instead of silently truncating them.
func checkTimestamp(t time.Time) (time.Time, error) {
	if t.After(time.Unix(0, math.MaxInt64)) || t.Before(time.Unix(0, math.MinInt64)) {
		return time.Time{}, encodeError(errors.New("timestamp out of representable range"))
	}
	return t.UTC(), nil
}
