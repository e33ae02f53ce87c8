package folio

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/content"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct horse"
)

type testSite struct {
	t      *testing.T
	app    *App
	srv    *httptest.Server
	client *http.Client
	csrf   string
}

type adminBody struct {
	Record  json.RawMessage  `json:"record"`
	Dialog  string           `json:"dialog"`
	Notices []content.Notice `json:"notices"`
	Stats   content.Stats    `json:"stats"`
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	return newTestSiteWith(t, ViewFuncs{})
}

// newTestSiteWith starts a site rendering through views.
func newTestSiteWith(t *testing.T, views ViewFuncs, opts ...Option) *testSite {
	t.Helper()
	dir := t.TempDir()
	a := New(SiteConfig{
		Name:          "Test Portfolio",
		URL:           "https://example.com",
		DatabasePath:  filepath.Join(dir, "folio.db"),
		UploadsDir:    filepath.Join(dir, "uploads"),
		AdminEmail:    testAdminEmail,
		AdminPassword: testAdminPassword,
		SessionSecret: "test-session-secret-0123456789abcdef",
	}, views, opts...)
	require.NoError(t, a.Init())

	srv := httptest.NewServer(a.Echo)
	t.Cleanup(func() {
		srv.Close()
		_ = a.Close()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testSite{t: t, app: a, srv: srv, client: client}
}

func (s *testSite) do(req *http.Request) *http.Response {
	s.t.Helper()
	if s.csrf != "" {
		req.Header.Set("X-CSRF-Token", s.csrf)
	}
	resp, err := s.client.Do(req)
	require.NoError(s.t, err)
	s.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testSite) get(path string) *http.Response {
	s.t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.srv.URL+path, nil)
	require.NoError(s.t, err)
	return s.do(req)
}

func (s *testSite) postForm(path string, form url.Values) *http.Response {
	s.t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

// postMultipart sends fields plus an optional imageFile part.
func (s *testSite) postMultipart(path string, fields map[string]string, filename string, file []byte) *http.Response {
	s.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("imageFile", filename)
		require.NoError(s.t, err)
		_, err = part.Write(file)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, w.Close())

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+path, &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(req)
}

func (s *testSite) postJSON(path string, body any) *http.Response {
	s.t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(s.t, err)
	req, err := http.NewRequest(http.MethodPost, s.srv.URL+path, bytes.NewReader(raw))
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *testSite) delete(path string) *http.Response {
	s.t.Helper()
	req, err := http.NewRequest(http.MethodDelete, s.srv.URL+path, nil)
	require.NoError(s.t, err)
	return s.do(req)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// fetchCSRF reads the token from the login page.
func (s *testSite) fetchCSRF() {
	s.t.Helper()
	resp := s.get("/login/")
	require.Equal(s.t, http.StatusOK, resp.StatusCode)
	data := decode[LoginData](s.t, resp)
	require.NotEmpty(s.t, data.CSRFToken)
	s.csrf = data.CSRFToken
}

func (s *testSite) login() {
	s.t.Helper()
	s.fetchCSRF()
	resp := s.postForm("/login/", url.Values{
		"email":    {testAdminEmail},
		"password": {testAdminPassword},
	})
	require.Equal(s.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(s.t, "/admin/", resp.Header.Get("Location"))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAdminRequiresLogin(t *testing.T) {
	s := newTestSite(t)

	resp := s.get("/admin/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login/", resp.Header.Get("Location"))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestSite(t)
	s.fetchCSRF()

	resp := s.postForm("/login/", url.Values{
		"email":    {testAdminEmail},
		"password": {"wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	data := decode[LoginData](t, resp)
	assert.True(t, data.ShowError)

	resp = s.get("/admin/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestSite(t)
	s.fetchCSRF()

	bad := url.Values{"email": {testAdminEmail}, "password": {"nope"}}
	for i := 0; i < 5; i++ {
		resp := s.postForm("/login/", bad)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp := s.postForm("/login/", url.Values{
		"email":    {testAdminEmail},
		"password": {testAdminPassword},
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestLoginPageRedirectsSignedInUser(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.get("/login/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/", resp.Header.Get("Location"))
}

func TestDashboardStartsEmpty(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.get("/admin/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decode[DashboardData](t, resp)
	assert.Equal(t, testAdminEmail, data.User.Email)
	assert.Empty(t, data.Projects)
	assert.Empty(t, data.Posts)
	assert.Equal(t, content.Stats{}, data.Stats)
	assert.Equal(t, content.DialogIdle, data.ProjectDialog)
}

func TestProjectLifecycle(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.postMultipart("/admin/projects/", map[string]string{
		"title":        "Portfolio Site",
		"description":  "My personal site",
		"technologies": "React, Node.js ,Go",
		"status":       "published",
		"githubUrl":    "https://github.com/jane/site",
	}, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[adminBody](t, resp)

	var created content.Project
	require.NoError(t, json.Unmarshal(body.Record, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"React", "Node.js", "Go"}, created.Technologies)
	assert.True(t, created.Published)
	assert.Equal(t, content.NewUser(testAdminEmail).ID, created.UserID)
	require.Len(t, body.Notices, 1)
	assert.Equal(t, "Project Created", body.Notices[0].Title)
	assert.Equal(t, 1, body.Stats.TotalProjects)
	assert.Equal(t, 1, body.Stats.Published)

	resp = s.get("/api/projects")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	public := decode[map[string][]content.Project](t, resp)
	require.Len(t, public["projects"], 1)

	resp = s.get("/admin/projects/" + created.ID + "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edit := decode[adminBody](t, resp)
	assert.Equal(t, "editing", edit.Dialog)

	resp = s.postMultipart("/admin/projects/submit/", map[string]string{
		"title":        "Portfolio Site v2",
		"description":  "My personal site",
		"technologies": "Go",
		"status":       "draft",
	}, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode[adminBody](t, resp)
	var updated content.Project
	require.NoError(t, json.Unmarshal(body.Record, &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Portfolio Site v2", updated.Title)
	assert.False(t, updated.Published)
	assert.Equal(t, 1, body.Stats.Drafts)

	resp = s.get("/api/projects")
	public = decode[map[string][]content.Project](t, resp)
	assert.Empty(t, public["projects"], "drafts are not public")

	resp = s.delete("/admin/projects/" + created.ID + "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode[adminBody](t, resp)
	assert.Equal(t, 0, body.Stats.TotalProjects)
}

func TestProjectValidation(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.postMultipart("/admin/projects/", map[string]string{
		"title": "No description",
	}, "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[adminBody](t, resp)
	require.Len(t, body.Notices, 1)
	assert.Equal(t, content.NoticeError, body.Notices[0].Kind)
	assert.Equal(t, 0, body.Stats.TotalProjects)
}

func TestDeleteUnknownProject(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.delete("/admin/projects/does-not-exist/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[adminBody](t, resp)
	require.Len(t, body.Notices, 1)
	assert.Equal(t, "Failed to delete project", body.Notices[0].Description)
}

func TestEditUnknownPost(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.get("/admin/posts/missing/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestImageUploadStoresBlob(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.postMultipart("/admin/projects/", map[string]string{
		"title":        "With image",
		"description":  "Has a screenshot",
		"technologies": "Go",
	}, "shot.PNG", pngBytes(t, 64, 32))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[adminBody](t, resp)
	var p content.Project
	require.NoError(t, json.Unmarshal(body.Record, &p))
	require.True(t, strings.HasPrefix(p.ImageURL, "/uploads/portfolio-images/images/"), p.ImageURL)
	assert.True(t, strings.HasSuffix(p.ImageURL, ".jpg"))

	img := s.get(p.ImageURL)
	require.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/jpeg", img.Header.Get("Content-Type"))
}

func TestImageUploadFallsBackToDataURL(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.postMultipart("/admin/projects/", map[string]string{
		"title":        "Broken image",
		"description":  "Not really a picture",
		"technologies": "Go",
	}, "notes.png", []byte("definitely not an image"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[adminBody](t, resp)

	var p content.Project
	require.NoError(t, json.Unmarshal(body.Record, &p))
	assert.True(t, strings.HasPrefix(p.ImageURL, "data:"), p.ImageURL)

	var warnings []content.Notice
	for _, n := range body.Notices {
		if n.Kind == content.NoticeWarning {
			warnings = append(warnings, n)
		}
	}
	require.Len(t, warnings, 1)
	assert.Equal(t, "Upload Error", warnings[0].Title)
}

func TestPostLifecycle(t *testing.T) {
	s := newTestSite(t)
	s.login()

	fields := map[string]string{
		"title":   "My First Post!",
		"excerpt": "Short intro",
		"content": "Hello world",
		"status":  "published",
	}
	resp := s.postMultipart("/admin/posts/", fields, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[adminBody](t, resp)
	var first content.BlogPost
	require.NoError(t, json.Unmarshal(body.Record, &first))
	assert.Equal(t, "my-first-post", first.Slug)

	resp = s.postMultipart("/admin/posts/", fields, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode[adminBody](t, resp)
	var second content.BlogPost
	require.NoError(t, json.Unmarshal(body.Record, &second))
	assert.Equal(t, "my-first-post-2", second.Slug)

	resp = s.get("/api/posts/my-first-post")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[content.BlogPost](t, resp)
	assert.Equal(t, first.ID, got.ID)

	resp = s.get("/blog/my-first-post/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[PostData](t, resp)
	assert.Equal(t, "Hello world", page.Post.Content)

	resp = s.get("/api/posts")
	list := decode[map[string][]content.BlogPost](t, resp)
	require.Len(t, list["posts"], 2)
	assert.Equal(t, second.ID, list["posts"][0].ID, "newest first")

	resp = s.delete("/admin/posts/" + first.ID + "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.get("/api/posts/my-first-post")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = s.get("/blog/my-first-post/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostDialogCancel(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.get("/admin/posts/new/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "editing", decode[adminBody](t, resp).Dialog)

	resp = s.postForm("/admin/posts/cancel/", url.Values{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.get("/admin/")
	data := decode[DashboardData](t, resp)
	assert.Equal(t, content.DialogIdle, data.PostDialog)
}

func TestAdminMutationRequiresCSRF(t *testing.T) {
	s := newTestSite(t)
	s.login()
	s.csrf = ""

	resp := s.postMultipart("/admin/projects/", map[string]string{
		"title":        "Sneaky",
		"description":  "cross-site",
		"technologies": "Go",
	}, "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.postForm("/admin/logout/", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = s.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	home := decode[HomeData](t, resp)
	require.Len(t, home.Notices, 1)
	assert.Equal(t, "Logged Out", home.Notices[0].Title)

	resp = s.get("/admin/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login/", resp.Header.Get("Location"))
}

func TestMessagesListsContactSubmissions(t *testing.T) {
	s := newTestSite(t)

	resp := s.postJSON("/api/contact", map[string]string{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
		"subject":   "Hello",
		"message":   "Nice work",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ack := decode[map[string]string](t, resp)
	assert.Equal(t, "Message sent successfully", ack["message"])
	assert.NotEmpty(t, ack["id"])

	s.login()
	resp = s.get("/admin/messages/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[map[string][]content.ContactMessage](t, resp)
	require.Len(t, list["messages"], 1)
	assert.Equal(t, "Ada Lovelace", list["messages"][0].Name)
	assert.False(t, list["messages"][0].Read)
}

func TestContactValidation(t *testing.T) {
	s := newTestSite(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{
			name: "missing fields",
			body: map[string]string{"firstName": "Ada", "email": "ada@example.com"},
			want: "All fields are required",
		},
		{
			name: "bad email",
			body: map[string]string{
				"firstName": "Ada", "lastName": "L", "email": "ada-at-example",
				"subject": "Hi", "message": "Hello",
			},
			want: "Invalid email format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.postJSON("/api/contact", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, decode[map[string]string](t, resp)["error"])
		})
	}

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/contact", strings.NewReader("{not json"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp := s.do(req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestContactRateLimited(t *testing.T) {
	s := newTestSite(t)
	body := map[string]string{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
		"subject": "Hi", "message": "Hello",
	}
	for i := 0; i < 5; i++ {
		resp := s.postJSON("/api/contact", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := s.postJSON("/api/contact", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestFeedAndSitemap(t *testing.T) {
	s := newTestSite(t)
	s.login()

	resp := s.postMultipart("/admin/posts/", map[string]string{
		"title":   "Feed Me",
		"excerpt": "An excerpt",
		"content": "Body",
		"status":  "published",
	}, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.postMultipart("/admin/posts/", map[string]string{
		"title":   "Hidden Draft",
		"excerpt": "Not yet",
		"content": "Body",
	}, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.get("/feed.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/rss+xml")
	feed, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(feed), "<title>Feed Me</title>")
	assert.Contains(t, string(feed), "https://example.com/blog/feed-me/")
	assert.NotContains(t, string(feed), "Hidden Draft")
	assert.Contains(t, string(feed), "<lastBuildDate>")
	assert.Contains(t, string(feed), `<guid isPermaLink="true">https://example.com/blog/feed-me/</guid>`)

	resp = s.get("/sitemap.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sitemap, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(sitemap), "<loc>https://example.com</loc>")
	assert.Contains(t, string(sitemap), "<loc>https://example.com/blog/feed-me/</loc>")
	assert.NotContains(t, string(sitemap), "hidden-draft")
	assert.Contains(t, string(sitemap), "<changefreq>weekly</changefreq>")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&content.ValidationError{Message: "Title is required"}, http.StatusUnprocessableEntity},
		{&content.StorageError{Op: "delete", Collection: "projects", Err: content.ErrNotFound}, http.StatusNotFound},
		{content.ErrAuthRequired, http.StatusUnauthorized},
		{&content.StorageError{Op: "insert", Collection: "projects", Err: io.ErrUnexpectedEOF}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
