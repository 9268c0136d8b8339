package main

import (
	"bytes"
	"crypto/md5"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates static
var assets embed.FS

var bodyPolicy = bluemonday.UGCPolicy()

func linebreaks(s string) template.HTML {
	s = template.HTMLEscapeString(s)

	paragraphs := strings.Split(s, "\n\n")
	var result []string

	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			p = strings.ReplaceAll(p, "\n", "<br>")
			result = append(result, "<p>"+p+"</p>")
		}
	}

	return template.HTML(strings.Join(result, "\n"))
}

// sanitize keeps the formatting markup of a post body and drops scripts,
// event handlers and other active content.
func sanitize(s string) template.HTML {
	return template.HTML(bodyPolicy.Sanitize(s))
}

func avatarURL(email string) string {
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://secure.gravatar.com/avatar/%x?s=100&d=retro&r=pg", hash)
}

// timeAgo renders the largest non-zero unit between t and now, with years of
// 365 days and months of 30 days.
func timeAgo(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}

	days := int(d / (24 * time.Hour))
	secs := int((d % (24 * time.Hour)) / time.Second)

	years, days := days/365, days%365
	months, days := days/30, days%30
	weeks, days := days/7, days%7
	hours, secs := secs/3600, secs%3600
	minutes, secs := secs/60, secs%60

	units := []struct {
		name  string
		value int
	}{
		{"year", years},
		{"month", months},
		{"week", weeks},
		{"day", days},
		{"hour", hours},
		{"minute", minutes},
		{"second", secs},
	}

	for _, u := range units {
		if u.value == 1 {
			return fmt.Sprintf("1 %s ago.", u.name)
		}
		if u.value > 1 {
			return fmt.Sprintf("%d %ss ago.", u.value, u.name)
		}
	}
	return "Now."
}

func loadTemplates() map[string]*template.Template {
	templates := make(map[string]*template.Template)
	pages := []string{"index.html", "post.html", "make-post.html", "register.html", "login.html", "about.html", "contact.html"}

	funcs := template.FuncMap{
		"linebreaks": linebreaks,
		"sanitize":   sanitize,
		"avatar":     avatarURL,
		"timeago":    func(t time.Time) string { return timeAgo(t, time.Now()) },
	}

	for _, page := range pages {
		templates[page] = template.Must(
			template.New("").Funcs(funcs).ParseFS(assets,
				"templates/base.html",
				"templates/"+page,
			))
	}

	return templates
}

func staticFiles() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// render executes page into a buffer so that a template error still yields a
// clean 500 instead of a half-written page.
func (b *Blog) render(w http.ResponseWriter, r *http.Request, page string, status int, data map[string]any) {
	user := currentUser(r)

	data["CurrentUser"] = user
	data["LoggedIn"] = user != nil
	data["IsAdmin"] = user != nil && user.IsAdmin
	data["Year"] = time.Now().Year()
	data["Flashes"] = b.popFlashes(w, r)
	data["CSRFToken"] = b.ensureCSRFToken(w, r)

	var buf bytes.Buffer
	if err := b.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		log.Printf("rendering %s: %v", page, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
