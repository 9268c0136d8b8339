package main

import (
	"html/template"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// browser is a cookie-keeping client that reports redirects instead of
// following them.
type browser struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: csrfCookieName, Value: testCSRFToken, Path: "/"}})

	return &browser{
		t:   t,
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) get(path string) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.srv.URL + path)
	require.NoError(b.t, err)
	return b.read(resp)
}

func (b *browser) post(path string, form url.Values) (int, string, string) {
	b.t.Helper()
	form.Set(csrfFieldName, testCSRFToken)
	resp, err := b.client.PostForm(b.srv.URL+path, form)
	require.NoError(b.t, err)
	return b.read(resp)
}

func (b *browser) read(resp *http.Response) (int, string, string) {
	b.t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func (b *browser) register(name, email, password string) (int, string) {
	b.t.Helper()
	code, loc, _ := b.post("/register", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
	})
	return code, loc
}

func newTestServer(t *testing.T) (*Blog, *httptest.Server) {
	t.Helper()
	blog := setupTestBlog(t)
	srv := httptest.NewServer(blog.Handler())
	t.Cleanup(srv.Close)
	return blog, srv
}

func TestE2E_RegisterTwice(t *testing.T) {
	blog, srv := newTestServer(t)

	first := newBrowser(t, srv)
	code, loc := first.register("Reader", "reader@example.com", "readerpass")
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/", loc)

	_, _, home := first.get("/")
	assert.Contains(t, home, "Log Out")

	second := newBrowser(t, srv)
	code, loc = second.register("Impostor", "reader@example.com", "otherpass1")
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/login", loc)

	_, _, page := second.get("/login")
	assert.Contains(t, page, "already signed up with that email")

	var count int
	require.NoError(t, blog.db.Get(&count, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 1, count)
}

func TestE2E_LoginOutcomes(t *testing.T) {
	_, srv := newTestServer(t)

	newBrowser(t, srv).register("Reader", "reader@example.com", "readerpass")

	tests := []struct {
		name     string
		email    string
		password string
		wantLoc  string
		wantText string
	}{
		{"unknown email", "nobody@example.com", "readerpass", "/login", "That email does not exist, please try again!"},
		{"wrong password", "reader@example.com", "wrongpass", "/login", "Incorrect Password, please try again!"},
		{"success", "reader@example.com", "readerpass", "/", "Log Out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBrowser(t, srv)
			code, loc, _ := b.post("/login", url.Values{
				"email":    {tt.email},
				"password": {tt.password},
			})
			assert.Equal(t, http.StatusSeeOther, code)
			assert.Equal(t, tt.wantLoc, loc)

			_, _, page := b.get(loc)
			assert.Contains(t, page, tt.wantText)
		})
	}
}

func TestE2E_FlashShownOnce(t *testing.T) {
	_, srv := newTestServer(t)
	b := newBrowser(t, srv)

	b.post("/login", url.Values{"email": {"nobody@example.com"}, "password": {"whatever1"}})

	_, _, page := b.get("/login")
	assert.Contains(t, page, "That email does not exist")

	_, _, page = b.get("/login")
	assert.NotContains(t, page, "That email does not exist")
}

func TestE2E_CommentFlow(t *testing.T) {
	blog, srv := newTestServer(t)

	admin := newBrowser(t, srv)
	admin.register("Admin", "admin@email.com", "adminpass")
	admin.post("/add_new_post", url.Values{
		"title":    {"Hello World"},
		"subtitle": {"A first post"},
		"img_url":  {"https://example.com/bg.jpg"},
		"body":     {"<p>Welcome</p>"},
	})

	posts, err := getPosts(blog.db)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	path := postURL(posts[0].ID)

	visitor := newBrowser(t, srv)
	code, loc, _ := visitor.post(path, url.Values{"comment": {"drive-by"}})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/login", loc)
	_, _, page := visitor.get("/login")
	assert.Contains(t, page, "You need to be logged in to comment on posts.")

	reader := newBrowser(t, srv)
	reader.register("Reader", "reader@example.com", "readerpass")

	code, loc, _ = reader.post(path, url.Values{"comment": {"First comment"}})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, path, loc)
	reader.post(path, url.Values{"comment": {"Second comment"}})

	_, _, page = reader.get(path)
	first := strings.Index(page, "First comment")
	second := strings.Index(page, "Second comment")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, second, first, "newest comment should be listed first")
	assert.Contains(t, page, template.HTMLEscapeString(avatarURL("reader@example.com")))
	assert.NotContains(t, page, "drive-by")
}

func TestE2E_AdminEditsPost(t *testing.T) {
	blog, srv := newTestServer(t)

	admin := newBrowser(t, srv)
	admin.register("Admin", "admin@email.com", "adminpass")

	code, loc, _ := admin.post("/add_new_post", url.Values{
		"title":    {"Original Title"},
		"subtitle": {"Subtitle"},
		"img_url":  {"https://example.com/bg.jpg"},
		"body":     {"Body"},
	})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/", loc)

	posts, err := getPosts(blog.db)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	code, loc, _ = admin.post("/edit_post/"+strconv.FormatInt(posts[0].ID, 10), url.Values{
		"title":    {"Revised Title"},
		"subtitle": {"Subtitle"},
		"img_url":  {"https://example.com/bg.jpg"},
		"body":     {"Body"},
	})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, postURL(posts[0].ID), loc)

	_, _, home := admin.get("/")
	assert.Contains(t, home, "Revised Title")
	assert.NotContains(t, home, "Original Title")
}

func TestE2E_NonAdminCannotPost(t *testing.T) {
	_, srv := newTestServer(t)

	reader := newBrowser(t, srv)
	reader.register("Reader", "reader@example.com", "readerpass")

	code, _, _ := reader.get("/add_new_post")
	assert.Equal(t, http.StatusForbidden, code)

	code, _, _ = reader.post("/add_new_post", url.Values{
		"title":    {"Sneaky"},
		"subtitle": {"Subtitle"},
		"img_url":  {"https://example.com/bg.jpg"},
		"body":     {"Body"},
	})
	assert.Equal(t, http.StatusForbidden, code)

	reader.get("/logout")
	code, loc, _ := reader.get("/add_new_post")
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/login", loc)
}
