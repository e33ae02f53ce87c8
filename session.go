package folio

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/folio/content"
)

const (
	sessionName      = "folio_admin"
	flashSessionName = "folio_flash"
	// userKey holds the signed-in user as JSON inside the admin session.
	userKey = "folio-auth-user"

	ctxWorkspaceKey = "folio.workspace"
)

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// CurrentUser returns the user stored in the admin session.
func CurrentUser(c echo.Context) (content.User, bool) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return content.User{}, false
	}
	raw, ok := sess.Values[userKey].(string)
	if !ok {
		return content.User{}, false
	}
	var u content.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || !u.Valid() {
		return content.User{}, false
	}
	return u, true
}

func setUserSession(c echo.Context, u content.User) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	sess.Values[userKey] = string(raw)
	return sess.Save(c.Request(), c.Response())
}

func clearUserSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, userKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// addFlash carries n across the next redirect.
func addFlash(c echo.Context, n content.Notice) error {
	sess, err := session.Get(flashSessionName, c)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	sess.AddFlash(string(raw))
	return sess.Save(c.Request(), c.Response())
}

// takeFlashes returns and clears pending flash notices.
func takeFlashes(c echo.Context) []content.Notice {
	sess, err := session.Get(flashSessionName, c)
	if err != nil {
		return nil
	}
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	notices := make([]content.Notice, 0, len(flashes))
	for _, f := range flashes {
		raw, ok := f.(string)
		if !ok {
			continue
		}
		var n content.Notice
		if err := json.Unmarshal([]byte(raw), &n); err == nil {
			notices = append(notices, n)
		}
	}
	_ = sess.Save(c.Request(), c.Response())
	return notices
}

// requireUser redirects to the login page unless the request carries an
// admin session, and attaches the user's workspace to the context.
func (a *App) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.Redirect(http.StatusSeeOther, "/login/")
		}
		c.Set(ctxWorkspaceKey, a.Workspaces.Get(user))
		return next(c)
	}
}

// workspace returns the request's workspace, loading it first if this is
// the first use since sign-in.
func (a *App) workspace(c echo.Context) *content.Workspace {
	ws := c.Get(ctxWorkspaceKey).(*content.Workspace)
	if !ws.Loaded() {
		_ = a.Content.Load(c.Request().Context(), ws)
	}
	return ws
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
