package folio

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/content"
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	projects, err := a.Cache.Projects(ctx)
	if err != nil {
		return err
	}
	posts, err := a.Cache.Posts(ctx)
	if err != nil {
		return err
	}
	return renderOrJSON(c, http.StatusOK, a.Views.Home, HomeData{
		Projects: projects,
		Posts:    posts,
		Notices:  takeFlashes(c),
		SiteURL:  a.Config.URL,
	})
}

func (a *App) handlePost(c echo.Context) error {
	post, err := a.Cache.Post(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	return renderOrJSON(c, http.StatusOK, a.Views.Post, PostData{Post: post, SiteURL: a.Config.URL})
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	projects, err := a.Cache.Projects(ctx)
	if err != nil {
		return err
	}
	posts, err := a.Cache.Posts(ctx)
	if err != nil {
		return err
	}
	return writeXML(c, "application/xml; charset=utf-8", a.siteMap(projects, posts))
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.Posts(c.Request().Context())
	if err != nil {
		return err
	}
	return writeXML(c, "application/rss+xml; charset=utf-8", a.postFeed(posts))
}

func (a *App) handleAPIProjects(c echo.Context) error {
	projects, err := a.Cache.Projects(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"projects": projects})
}

func (a *App) handleAPIPosts(c echo.Context) error {
	posts, err := a.Cache.Posts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"posts": posts})
}

func (a *App) handleAPIPost(c echo.Context) error {
	post, err := a.Cache.Post(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, content.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Post not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleContact(c echo.Context) error {
	if !a.contactLimiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many messages. Try again later."})
	}

	var sub contact.Submission
	if err := c.Echo().JSONSerializer.Deserialize(c, &sub); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	res, err := a.Contact.Submit(c.Request().Context(), sub)
	if err != nil {
		var ve *content.ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": ve.Message})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save message"})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Message sent successfully",
		"id":      res.ID,
	})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound && a.Views.NotFound != nil {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error",
			zap.Int("status", code),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
		if a.Views.ServerError != nil {
			_ = RenderStatus(c, code, a.Views.ServerError())
			return
		}
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
