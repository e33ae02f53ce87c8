package folio

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
)

const maxUploadSize = 10 << 20 // 10MB

// formAttachment reads the optional file field. A request without the field,
// or one that is not multipart, yields nil.
func formAttachment(c echo.Context, field string) (*content.Attachment, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > maxUploadSize {
		return nil, &content.ValidationError{Message: "Image must be 10MB or smaller"}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUploadSize {
		return nil, &content.ValidationError{Message: "Image must be 10MB or smaller"}
	}
	return &content.Attachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

func formStatus(c echo.Context) content.Status {
	return content.Status(strings.TrimSpace(c.FormValue("status")))
}

func projectForm(c echo.Context) (content.ProjectForm, error) {
	file, err := formAttachment(c, "imageFile")
	if err != nil {
		return content.ProjectForm{}, err
	}
	return content.ProjectForm{
		Title:        strings.TrimSpace(c.FormValue("title")),
		Description:  c.FormValue("description"),
		Technologies: c.FormValue("technologies"),
		Status:       formStatus(c),
		ImageURL:     strings.TrimSpace(c.FormValue("image")),
		ImageFile:    file,
		GithubURL:    strings.TrimSpace(c.FormValue("githubUrl")),
		DemoURL:      strings.TrimSpace(c.FormValue("liveUrl")),
	}, nil
}

func postForm(c echo.Context) (content.PostForm, error) {
	file, err := formAttachment(c, "imageFile")
	if err != nil {
		return content.PostForm{}, err
	}
	return content.PostForm{
		Title:     strings.TrimSpace(c.FormValue("title")),
		Excerpt:   c.FormValue("excerpt"),
		Content:   c.FormValue("content"),
		Status:    formStatus(c),
		ImageURL:  strings.TrimSpace(c.FormValue("image")),
		ImageFile: file,
	}, nil
}
