package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionName     = "thoughtfactory"
	sessionTokenKey = "token"
	csrfCookieName  = "csrf"
	csrfFieldName   = "csrf_token"
)

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func newCookieStore(cfg Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.AppKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionLifetime.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func createSession(db *sqlx.DB, userID int64, lifetime time.Duration) (string, error) {
	token := uuid.NewString()
	expiresAt := time.Now().UTC().Add(lifetime)

	_, err := db.Exec(db.Rebind(`
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES (?, ?, ?)`), token, userID, expiresAt)
	if err != nil {
		return "", errors.Wrap(err, "inserting session")
	}

	return token, nil
}

// getSessionUser resolves an unexpired session token to its user, or nil.
func getSessionUser(db *sqlx.DB, token string) (*User, error) {
	var user User
	err := db.Get(&user, db.Rebind(`
		SELECT u.id, u.name, u.email, u.password, u.is_admin
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`), token, time.Now().UTC())
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolving session")
	}
	return &user, nil
}

func deleteSession(db *sqlx.DB, token string) error {
	_, err := db.Exec(db.Rebind("DELETE FROM sessions WHERE token = ?"), token)
	return errors.Wrap(err, "deleting session")
}

func cleanupExpiredSessions(db *sqlx.DB) error {
	_, err := db.Exec(db.Rebind("DELETE FROM sessions WHERE expires_at < ?"), time.Now().UTC())
	return errors.Wrap(err, "cleaning up expired sessions")
}

func (b *Blog) session(r *http.Request) *sessions.Session {
	// Get only fails when the cookie cannot be decoded, in which case a
	// fresh session is returned and overwrites it on the next save.
	sess, _ := b.sessions.Get(r, sessionName)
	return sess
}

// startSession logs userID in for the rest of the browser session.
func (b *Blog) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	token, err := createSession(b.db, userID, b.cfg.SessionLifetime)
	if err != nil {
		return err
	}

	sess := b.session(r)
	sess.Values[sessionTokenKey] = token
	return sess.Save(r, w)
}

func (b *Blog) endSession(w http.ResponseWriter, r *http.Request) error {
	sess := b.session(r)
	if token, ok := sess.Values[sessionTokenKey].(string); ok {
		if err := deleteSession(b.db, token); err != nil {
			return err
		}
	}
	delete(sess.Values, sessionTokenKey)
	return sess.Save(r, w)
}

// flash queues msg for the next page rendered. Messages under a key are kept
// apart from the ones shown in the page banner.
func (b *Blog) flash(w http.ResponseWriter, r *http.Request, msg string, key ...string) {
	sess := b.session(r)
	sess.AddFlash(msg, key...)
	if err := sess.Save(r, w); err != nil {
		log.Printf("saving flash: %v", err)
	}
}

func (b *Blog) popFlashes(w http.ResponseWriter, r *http.Request, key ...string) []string {
	sess := b.session(r)
	raw := sess.Flashes(key...)
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		log.Printf("clearing flashes: %v", err)
	}

	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return msgs
}

// Request-scoped current user

type ctxKeyUser struct{}

func withUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, u)
}

// currentUser returns the logged-in user for r, or nil for visitors.
func currentUser(r *http.Request) *User {
	u, _ := r.Context().Value(ctxKeyUser{}).(*User)
	return u
}

// withSession resolves the session cookie once per request and stores the
// user, admin role included, in the request context.
func (b *Blog) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := b.session(r).Values[sessionTokenKey].(string)
		if ok && token != "" {
			user, err := getSessionUser(b.db, token)
			if err != nil {
				log.Printf("session lookup: %v", err)
			} else if user != nil {
				r = r.WithContext(withUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireLogin sends visitors to the login page.
func (b *Blog) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			b.flash(w, r, "Please log in to access this page.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// requireAdmin must run after requireLogin.
func (b *Blog) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if u := currentUser(r); u == nil || !u.IsAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// Forms echo the csrf cookie back in a hidden field.

func setCSRFCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func getCSRFToken(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func validateCSRF(r *http.Request) bool {
	cookieToken := getCSRFToken(r)
	formToken := r.FormValue(csrfFieldName)

	if cookieToken == "" || formToken == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(formToken)) == 1
}

func parseFormWithCSRF(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return false
	}
	if !validateCSRF(r) {
		http.Error(w, "Invalid CSRF token", http.StatusForbidden)
		return false
	}
	return true
}

// ensureCSRFToken hands out the token already held by the browser, issuing
// one on its first visit.
func (b *Blog) ensureCSRFToken(w http.ResponseWriter, r *http.Request) string {
	token := getCSRFToken(r)
	if token != "" {
		return token
	}

	token, err := generateToken()
	if err != nil {
		log.Printf("issuing csrf token: %v", err)
		return ""
	}
	setCSRFCookie(w, token, b.cfg.SecureCookies)
	return token
}
