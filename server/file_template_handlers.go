package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/jrsteele09/resumeforge-web/users"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	contentTypeHTML = "text/html; charset=utf-8"
	layoutTemplate  = "layout.html"
)

var templateFuncs = template.FuncMap{
	"label": func(key string) string {
		return strings.ReplaceAll(key, "_", " ")
	},
	"isList": func(v any) bool {
		_, ok := v.([]any)
		return ok
	},
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

// mustParseTemplate is for handler constructors, which run once at startup
func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}

// Page is the data every rendered page shares
type Page struct {
	AppName string
	Title   string
	User    *users.Profile
	Error   string
	Notice  string
}

func (s *Server) newPage(r *http.Request, title string) Page {
	return Page{
		AppName: s.config.GetAppName(),
		Title:   title,
		User:    currentUser(r),
		Error:   r.URL.Query().Get("error"),
		Notice:  r.URL.Query().Get("notice"),
	}
}

// render writes a page. HTMX requests receive only the page's "result"
// fragment when it defines one.
func render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, status int, data any) {
	name := "layout"
	if isHTMXRequest(r) && tmpl.Lookup("result") != nil {
		name = "result"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
