package fithub

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	SessionName = "fithub"

	tokenKey = "strava_access_token"
	idKey    = "sid"
)

// RandomString produces a random url-safe string from n bytes
func RandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Session holds the bearer token of the current visitor
type Session struct {
	c    echo.Context
	sess *sessions.Session
}

// LoadSession reads the session of the request
func LoadSession(c echo.Context) (*Session, error) {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return nil, err
	}
	return &Session{c: c, sess: sess}, nil
}

// Token returns the stored bearer token
func (s *Session) Token() (string, bool) {
	token, ok := s.sess.Values[tokenKey].(string)
	return token, ok && token != ""
}

// SaveToken stores the bearer token after a successful exchange
func (s *Session) SaveToken(token string) error {
	s.sess.Values[tokenKey] = token
	return s.save()
}

// ClearToken removes the bearer token
func (s *Session) ClearToken() error {
	delete(s.sess.Values, tokenKey)
	return s.save()
}

// ID returns the session's identifier, assigning one if needed
func (s *Session) ID() (string, error) {
	if id, ok := s.sess.Values[idKey].(string); ok && id != "" {
		return id, nil
	}
	id, err := RandomString(16)
	if err != nil {
		return "", err
	}
	s.sess.Values[idKey] = id
	return id, s.save()
}

func (s *Session) save() error {
	return s.sess.Save(s.c.Request(), s.c.Response())
}
