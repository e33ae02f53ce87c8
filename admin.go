package folio

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/content"
)

// adminResponse is the JSON body of every admin mutation.
type adminResponse struct {
	Record  any              `json:"record,omitempty"`
	Dialog  string           `json:"dialog,omitempty"`
	Notices []content.Notice `json:"notices"`
	Stats   content.Stats    `json:"stats"`
}

// statusFor maps a controller error to an HTTP status.
func statusFor(err error) int {
	switch {
	case content.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrAuthRequired):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func (a *App) adminJSON(c echo.Context, code int, ws *content.Workspace, record any) error {
	notices := ws.Notices()
	if notices == nil {
		notices = []content.Notice{}
	}
	return c.JSON(code, adminResponse{Record: record, Notices: notices, Stats: ws.Stats()})
}

func (a *App) adminError(c echo.Context, ws *content.Workspace, err error) error {
	if errors.Is(err, content.ErrAuthRequired) {
		return c.Redirect(http.StatusSeeOther, "/login/")
	}
	return a.adminJSON(c, statusFor(err), ws, nil)
}

// --- session ---

func (a *App) handleLoginPage(c echo.Context) error {
	if _, ok := CurrentUser(c); ok {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return renderOrJSON(c, http.StatusOK, a.Views.Login, LoginData{
		CSRFToken: CsrfToken(c),
		Notices:   takeFlashes(c),
	})
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many login attempts. Try again later."})
	}
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	pass := c.FormValue("password")
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(a.Config.AdminEmail))) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1
	if !emailOK || !passOK {
		a.loginLimiter.Record(ip)
		a.Logger.Warn("admin login failed", zap.String("ip", ip))
		return renderOrJSON(c, http.StatusUnauthorized, a.Views.Login, LoginData{
			ShowError: true,
			CSRFToken: CsrfToken(c),
		})
	}

	user := content.NewUser(email)
	if err := setUserSession(c, user); err != nil {
		return err
	}
	a.Logger.Info("admin signed in", zap.String("user", user.ID))
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleLogout(c echo.Context) error {
	if user, ok := CurrentUser(c); ok {
		a.Workspaces.Drop(user.ID)
	}
	if err := clearUserSession(c); err != nil {
		return err
	}
	if err := addFlash(c, content.SuccessNotice("Logged Out", "You have been successfully logged out.")); err != nil {
		a.Logger.Warn("logout flash", zap.Error(err))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// --- dashboard ---

func (a *App) handleDashboard(c echo.Context) error {
	ws := c.Get(ctxWorkspaceKey).(*content.Workspace)
	_ = a.Content.Load(c.Request().Context(), ws)

	projectState, editingProject := ws.ProjectDialog()
	postState, editingPost := ws.PostDialog()
	notices := ws.Notices()
	if notices == nil {
		notices = []content.Notice{}
	}
	return renderOrJSON(c, http.StatusOK, a.Views.Dashboard, DashboardData{
		User:           ws.User(),
		Projects:       ws.Projects(),
		Posts:          ws.Posts(),
		Stats:          ws.Stats(),
		Notices:        notices,
		ProjectDialog:  projectState,
		EditingProject: editingProject,
		PostDialog:     postState,
		EditingPost:    editingPost,
		CSRFToken:      CsrfToken(c),
	})
}

func (a *App) handleStats(c echo.Context) error {
	ws := a.workspace(c)
	return c.JSON(http.StatusOK, ws.Stats())
}

func (a *App) handleMessages(c echo.Context) error {
	messages, err := a.Gateway.ListContactMessages(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to load messages").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": messages})
}

// --- projects ---

func (a *App) handleProjectNew(c echo.Context) error {
	ws := a.workspace(c)
	_ = ws.OpenProjectDialog("")
	return c.JSON(http.StatusOK, adminResponse{Dialog: content.DialogEditing.String(), Notices: []content.Notice{}, Stats: ws.Stats()})
}

func (a *App) handleProjectEdit(c echo.Context) error {
	ws := a.workspace(c)
	id := c.Param("id")
	if err := ws.OpenProjectDialog(id); err != nil {
		return a.adminError(c, ws, err)
	}
	state, editing := ws.ProjectDialog()
	return c.JSON(http.StatusOK, adminResponse{Record: editing, Dialog: state.String(), Notices: []content.Notice{}, Stats: ws.Stats()})
}

func (a *App) handleProjectCancel(c echo.Context) error {
	ws := a.workspace(c)
	ws.CloseProjectDialog()
	return a.adminJSON(c, http.StatusOK, ws, nil)
}

func (a *App) handleProjectCreate(c echo.Context) error {
	ws := a.workspace(c)
	form, err := projectForm(c)
	if err != nil {
		return a.formError(c, ws, err)
	}
	p, err := a.Content.CreateProject(c.Request().Context(), ws, content.CreateProjectRequest{ProjectForm: form})
	if err != nil {
		return a.adminError(c, ws, err)
	}
	a.Cache.Invalidate()
	return a.adminJSON(c, http.StatusOK, ws, p)
}

func (a *App) handleProjectUpdate(c echo.Context) error {
	ws := a.workspace(c)
	form, err := projectForm(c)
	if err != nil {
		return a.formError(c, ws, err)
	}
	req := content.UpdateProjectRequest{ID: c.Param("id"), ProjectForm: form}
	p, err := a.Content.UpdateProject(c.Request().Context(), ws, req)
	if err != nil {
		return a.adminError(c, ws, err)
	}
	a.Cache.Invalidate()
	return a.adminJSON(c, http.StatusOK, ws, p)
}

func (a *App) handleProjectSubmit(c echo.Context) error {
	ws := a.workspace(c)
	form, err := projectForm(c)
	if err != nil {
		return a.formError(c, ws, err)
	}
	p, err := a.Content.SubmitProject(c.Request().Context(), ws, form)
	if err != nil {
		return a.adminError(c, ws, err)
	}
	a.Cache.Invalidate()
	return a.adminJSON(c, http.StatusOK, ws, p)
}

func (a *App) handleProjectDelete(c echo.Context) error {
	ws := a.workspace(c)
	if err := a.Content.DeleteProject(c.Request().Context(), ws, c.Param("id")); err != nil {
		return a.adminError(c, ws, err)
	}
	a.Cache.Invalidate()
	return a.adminJSON(c, http.StatusOK, ws, nil)
}

// --- posts ---

func (a *App) handlePostNew(c echo.Context) error {
	ws := a.workspace(c)
	_ = ws.OpenPostDialog("")
	return c.JSON(http.StatusOK, adminResponse{Dialog: content.DialogEditing.String(), Notices: []content.Notice{}, Stats: ws.Stats()})
}

func (a *App) handlePostEdit(c echo.Context) error {
	ws := a.workspace(c)
	if err := ws.OpenPostDialog(c.Param("id")); err != nil {
		return a.adminError(c, ws, err)
	}
	state, editing := ws.PostDialog()
	return c.JSON(http.StatusOK, adminResponse{Record: editing, Dialog: state.String(), Notices: []content.Notice{}, Stats: ws.Stats()})
}

func (a *App) handlePostCancel(c echo.Context) error {
	ws := a.workspace(c)
	ws.ClosePostDialog()
	return a.adminJSON(c, http.StatusOK, ws, nil)
}

func (a *App) handlePostCreate(c echo.Context) error {
	ws := a.workspace(c)
	form, err := postForm(c)
	if err != nil {
		return a.formError(c, ws, err)
	}
	p, err := a.Content.CreatePost(c.Request().Context(), ws, content.CreatePostRequest{PostForm: form})
	if err != nil {
		return a.adminError(c, ws, err)
	}
	a.Cache.Invalidate()
	return a.adminJSON(c, http.StatusOK, ws, p)
}

func (a *App) handlePostUpdate(c echo.Context) error {
	ws := a.workspace(c)
	form, err := postForm(c)
	if err != nil {
		return a.formError(c, ws, err)
	}
	req := content.UpdatePostRequest{ID: c.Param("id"), PostForm: form}
	p, err := a.Content.UpdatePost(c.Request().Context(), ws, req)
	if err != nil {
		return a.adminError(c, ws, err)
	}
	a.Cache.Invalidate()
	return a.adminJSON(c, http.StatusOK, ws, p)
}

func (a *App) handlePostSubmit(c echo.Context) error {
	ws := a.workspace(c)
	form, err := postForm(c)
	if err != nil {
		return a.formError(c, ws, err)
	}
	p, err := a.Content.SubmitPost(c.Request().Context(), ws, form)
	if err != nil {
		return a.adminError(c, ws, err)
	}
	a.Cache.Invalidate()
	return a.adminJSON(c, http.StatusOK, ws, p)
}

func (a *App) handlePostDelete(c echo.Context) error {
	ws := a.workspace(c)
	if err := a.Content.DeletePost(c.Request().Context(), ws, c.Param("id")); err != nil {
		return a.adminError(c, ws, err)
	}
	a.Cache.Invalidate()
	return a.adminJSON(c, http.StatusOK, ws, nil)
}

// formError reports a request that could not be read into a form.
func (a *App) formError(c echo.Context, ws *content.Workspace, err error) error {
	if !content.IsValidation(err) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form").SetInternal(err)
	}
	ws.Notify(content.ErrorNotice(err.Error()))
	return a.adminJSON(c, http.StatusUnprocessableEntity, ws, nil)
}
