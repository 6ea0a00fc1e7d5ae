package session

import (
	"time"

	"vinylshelf/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CookieName carries the opaque session id between requests.
const CookieName = "vinylshelf_session"

const contextKey = "vinylshelf/session"

// Session is the per-request view of one session record. Records are
// created lazily on the first write and loaded lazily on the first read,
// so requests that never touch the session cost nothing.
type Session struct {
	store  *Store
	ttl    time.Duration
	secure bool

	id     string
	record *Record
	loaded bool
}

// Middleware attaches a lazy Session to every request. ttl is the rolling
// inactivity window; secure controls the cookie's Secure attribute.
func Middleware(store *Store, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := &Session{store: store, ttl: ttl, secure: secure}
		if id, err := c.Cookie(CookieName); err == nil {
			sess.id = id
		}
		c.Set(contextKey, sess)
		c.Next()
	}
}

// Get returns the request's Session. It panics when the middleware is not
// installed, which is a wiring bug.
func Get(c *gin.Context) *Session {
	return c.MustGet(contextKey).(*Session)
}

// User returns the authenticated user stored in the session, or nil.
func (s *Session) User(c *gin.Context) (*models.User, error) {
	if err := s.load(c); err != nil {
		return nil, err
	}
	if s.record == nil {
		return nil, nil
	}
	return s.record.Data.User, nil
}

// SetUser stores the authenticated user, establishing the session if
// needed.
func (s *Session) SetUser(c *gin.Context, user *models.User) error {
	if err := s.ensure(c); err != nil {
		return err
	}
	s.record.Data.User = user
	return s.save(c)
}

// Attempt returns the in-flight login attempt, or nil when none exists.
func (s *Session) Attempt(c *gin.Context) (*models.LoginAttempt, error) {
	if err := s.load(c); err != nil {
		return nil, err
	}
	if s.record == nil {
		return nil, nil
	}
	return s.record.Data.Attempt, nil
}

// SetAttempt stores the login attempt under its fixed payload key,
// establishing the session if needed.
func (s *Session) SetAttempt(c *gin.Context, attempt *models.LoginAttempt) error {
	if err := s.ensure(c); err != nil {
		return err
	}
	s.record.Data.Attempt = attempt
	return s.save(c)
}

// RemoveAttempt discards the login attempt. Attempts are single-use: this
// runs on both the success and the failure path of a callback.
func (s *Session) RemoveAttempt(c *gin.Context) error {
	if err := s.load(c); err != nil {
		return err
	}
	if s.record == nil || s.record.Data.Attempt == nil {
		return nil
	}
	s.record.Data.Attempt = nil
	return s.save(c)
}

// Clear deletes the whole session record and drops the cookie.
func (s *Session) Clear(c *gin.Context) error {
	if err := s.load(c); err != nil {
		return err
	}
	if s.record != nil {
		if err := s.store.Delete(c.Request.Context(), s.record.ID); err != nil {
			return err
		}
	}
	s.record = nil
	s.id = ""
	c.SetCookie(CookieName, "", -1, "/", "", s.secure, true)
	return nil
}

// load reads the record behind the cookie once per request.
func (s *Session) load(c *gin.Context) error {
	if s.loaded {
		return nil
	}
	s.loaded = true
	if s.id == "" {
		return nil
	}
	record, err := s.store.Load(c.Request.Context(), s.id)
	if err != nil {
		logrus.WithError(err).WithField("session_id", s.id).Warn("Failed to load session, treating as absent")
		return nil
	}
	s.record = record
	return nil
}

// ensure guarantees a live record exists, creating one on first write.
func (s *Session) ensure(c *gin.Context) error {
	if err := s.load(c); err != nil {
		return err
	}
	if s.record != nil {
		return nil
	}
	s.record = NewRecord(s.ttl)
	if err := s.store.Create(c.Request.Context(), s.record); err != nil {
		s.record = nil
		return err
	}
	s.id = s.record.ID
	c.SetCookie(CookieName, s.id, int(s.ttl/time.Second), "/", "", s.secure, true)
	return nil
}

// save writes the record through, rolling the expiry window forward.
func (s *Session) save(c *gin.Context) error {
	s.record.ExpiresAt = time.Now().Add(s.ttl)
	return s.store.Save(c.Request.Context(), s.record)
}
