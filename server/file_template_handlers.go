package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/jrsteele09/paramed-portal/locale"
	"github.com/jrsteele09/paramed-portal/users"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

// Pages rendered inside the shared layout
const (
	pageIndex            = "index.html"
	pagePrograms         = "programs.html"
	pageContact          = "contact.html"
	pageLogin            = "login.html"
	pagePending          = "pending.html"
	pageAdminDashboard   = "admin_dashboard.html"
	pageStudentDashboard = "student_dashboard.html"
	pageStudentPlanning  = "student_planning.html"
	pageAccount          = "account.html"
)

var pageNames = []string{
	pageIndex, pagePrograms, pageContact, pageLogin, pagePending,
	pageAdminDashboard, pageStudentDashboard, pageStudentPlanning, pageAccount,
}

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the layout from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// Page is the data every template receives.
type Page struct {
	AppName string
	Lang    string
	Dir     string
	Langs   []string
	Path    string // Requested path, used by the language switch and the pending placeholder
	Title   string // Label key of the page title
	User    *users.User
	Error   string
	Data    any

	catalog *locale.Catalog
}

// T looks up a shell label in the page language.
func (p Page) T(key string) string {
	return p.catalog.T(p.Lang, key)
}

func (p Page) Number(n int) string {
	return p.catalog.Number(p.Lang, n)
}

func (s *Server) newPage(r *http.Request, titleKey string) Page {
	lang := langFromContext(r.Context(), s.catalog.Default())
	return Page{
		AppName: s.config.GetAppName(),
		Lang:    lang,
		Dir:     s.catalog.Dir(lang),
		Langs:   s.catalog.Supported(),
		Path:    r.URL.RequestURI(),
		Title:   titleKey,
		User:    s.store.Snapshot().User,
		catalog: s.catalog,
	}
}

// render executes a page into a buffer first so a template error never produces half a page.
func (s *Server) render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("unknown page template")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		log.Err(err).Str("template", name).Msg("template execution failed")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Language", page.Lang)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
