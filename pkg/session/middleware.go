package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName carries the session ID for browsers.
	CookieName = "catalog_session"

	// HeaderName carries the session ID for API clients.
	HeaderName = "X-Catalog-Session"
)

type contextKey struct{}

// WithID stores a session ID in a context.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session ID stored by Middleware, or "".
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Middleware resolves the session of each request, creating one when the
// request carries no live session, and stores its ID in the request context.
func Middleware(store Store, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := requestID(r)

			sess, err := lookup(ctx, store, id)
			if err != nil {
				slog.Error("session lookup failed", "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			if sess == nil {
				now := time.Now()
				sess = &Session{
					ID:           uuid.NewString(),
					CreatedAt:    now,
					LastActiveAt: now,
					ExpiresAt:    now.Add(ttl),
				}
				if err := store.Create(ctx, sess); err != nil {
					slog.Error("session create failed", "error", err)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			} else if err := store.Touch(ctx, sess.ID); err != nil {
				slog.Warn("session touch failed", "error", err)
			}

			w.Header().Set(HeaderName, sess.ID)
			next.ServeHTTP(w, r.WithContext(WithID(ctx, sess.ID)))
		})
	}
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(HeaderName); id != "" {
		return id
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

func lookup(ctx context.Context, store Store, id string) (*Session, error) {
	if id == "" {
		return nil, nil //nolint:nilnil // no session requested
	}
	return store.Get(ctx, id)
}
