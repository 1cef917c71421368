package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// NewSessionStore builds the cookie store backing admin sessions
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SaveAccessToken stores the access token in the named session
func SaveAccessToken(c echo.Context, name, token string, maxAge int) error {
	sess, err := session.Get(name, c)
	if sess == nil {
		return err
	}
	sess.Options.MaxAge = maxAge
	sess.Values[accessTokenKey] = token
	return sess.Save(c.Request(), c.Response())
}

// AccessToken returns the access token held by the named session, if any
func AccessToken(c echo.Context, name string) string {
	return tokenFromSession(c, name)
}

// ClearSession expires the named session cookie
func ClearSession(c echo.Context, name string) error {
	sess, err := session.Get(name, c)
	if sess == nil {
		return err
	}
	sess.Options.MaxAge = -1
	delete(sess.Values, accessTokenKey)
	return sess.Save(c.Request(), c.Response())
}
