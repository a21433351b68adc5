// session.go - Cookie-backed session resolution
package api

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/insight-studio/backend/internal/session"
)

const (
	// SessionCookieName is the cookie carrying the signed session ID.
	SessionCookieName = "studio_session"

	cookieSessionIDKey  = "sid"
	contextSessionIDKey = "sessionID"
)

// NewCookieStore creates the signed cookie store used by SessionMiddleware.
func NewCookieStore(secret string, secure bool, maxAgeSeconds int) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionMiddleware resolves the dashboard session for every request,
// creating one (and setting the cookie) when the cookie is missing, invalid
// or refers to a session that has since been cleaned up.
func SessionMiddleware(store sessions.Store, mgr *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A cookie that fails to decode still yields a fresh session.
			sess, _ := store.Get(c.Request(), SessionCookieName)

			id, _ := sess.Values[cookieSessionIDKey].(string)
			ctx, created := mgr.GetOrCreate(id)
			if created || sess.IsNew {
				sess.Values[cookieSessionIDKey] = ctx.ID
				if err := sess.Save(c.Request(), c.Response()); err != nil {
					return NewInternalError("failed to save session cookie", err)
				}
			}

			c.Set(contextSessionIDKey, ctx.ID)
			return next(c)
		}
	}
}

func sessionID(c echo.Context) string {
	id, _ := c.Get(contextSessionIDKey).(string)
	return id
}

// currentSession returns the request's session snapshot.
func currentSession(c echo.Context, mgr *session.Manager) (*session.Context, error) {
	ctx, ok := mgr.Get(sessionID(c))
	if !ok {
		return nil, NewNotFoundError("session", sessionID(c))
	}
	return ctx, nil
}

// requireDataset returns the session snapshot, failing with NO_DATASET when
// nothing is loaded.
func requireDataset(c echo.Context, mgr *session.Manager) (*session.Context, error) {
	ctx, err := currentSession(c, mgr)
	if err != nil {
		return nil, err
	}
	if ctx.Dataset == nil || ctx.Dataset.Table == nil {
		return nil, NewNoDatasetError()
	}
	return ctx, nil
}
