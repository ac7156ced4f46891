// Package session identifies browser sessions with a cookie and carries the session id in the
// request context.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	ctxKey    struct{}
	issuedKey struct{}
)

// validID accepts ids that are safe to use as a path element.
var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// Manager issues and reads the session cookie
type Manager struct {
	cookieName string
	maxAge     time.Duration
	secure     bool
	logger     *slog.Logger
}

func NewManager(cookieName string, maxAge time.Duration, secure bool, logger *slog.Logger) *Manager {
	return &Manager{
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     secure,
		logger:     logger.With(slog.String("component", "session")),
	}
}

// NewID returns 32 lowercase hex characters.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidID reports whether id can be used as a session id.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// Middleware ensures every request has a session id, setting the cookie when the request has
// none or carries a malformed one.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(m.cookieName); err == nil && ValidID(c.Value) {
			sid = c.Value
		}
		if sid == "" {
			sid = NewID()
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(m.maxAge.Seconds()),
				SameSite: http.SameSiteLaxMode,
				Secure:   m.secure,
			})
			m.logger.DebugContext(r.Context(), "issued session", slog.String("sid", sid))
			r = r.WithContext(context.WithValue(r.Context(), issuedKey{}, true))
		}
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), sid)))
	})
}

func WithID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sid)
}

// ID returns the session id stored in ctx.
func ID(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(ctxKey{}).(string)
	return sid, ok && sid != ""
}

// Issued reports whether the session id in ctx was minted for this request because the
// request carried no usable cookie.
func Issued(ctx context.Context) bool {
	issued, _ := ctx.Value(issuedKey{}).(bool)
	return issued
}
