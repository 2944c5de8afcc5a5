// Package server provides a local browser for generated project documents
// and recorded rank history.
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/pra-ai-team/marketing-agent/internal/history"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

var projectNameRe = regexp.MustCompile(`^\d{8}$`)

// Server serves the project browser. The history database is optional; the
// history page just renders empty without it.
type Server struct {
	outDir string
	db     *history.DB
	pages  map[string]*template.Template
	mux    *http.ServeMux
}

// New creates a new Server over the given output directory.
func New(outDir string, db *history.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"rank": func(r int) string {
			if r == 0 {
				return "圏外"
			}
			return fmt.Sprintf("%d位", r)
		},
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page clones the base so it gets its own content and title blocks.
	pageNames := []string{"index.html", "project.html", "document.html", "history.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{outDir: outDir, db: db, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/project/", s.handleProject)
	s.mux.HandleFunc("/history", s.handleHistory)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	projects, err := s.listProjects()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Projects": projects,
	})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/project/")
	project, doc, _ := strings.Cut(rest, "/")
	if !projectNameRe.MatchString(project) {
		http.NotFound(w, r)
		return
	}

	if doc == "" {
		s.renderProjectIndex(w, project)
		return
	}
	s.renderDocument(w, r, project, doc)
}

func (s *Server) renderProjectIndex(w http.ResponseWriter, project string) {
	entries, err := os.ReadDir(filepath.Join(s.outDir, project))
	if err != nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	var docs []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			docs = append(docs, entry.Name())
		}
	}
	sort.Strings(docs)

	s.render(w, "project.html", map[string]any{
		"Project":   project,
		"Documents": docs,
	})
}

func (s *Server) renderDocument(w http.ResponseWriter, r *http.Request, project, doc string) {
	// Only top-level markdown documents are served.
	if doc != filepath.Base(doc) || !strings.HasSuffix(doc, ".md") {
		http.NotFound(w, r)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.outDir, project, doc))
	if err != nil {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}

	s.render(w, "document.html", map[string]any{
		"Project":  project,
		"Document": doc,
		"Content":  string(data),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	if s.db != nil {
		runs, err := s.db.Runs(20)
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		data["Runs"] = runs

		if len(runs) > 0 {
			ranks, err := s.db.RanksForRun(runs[0].ID)
			if err == nil {
				data["LatestRanks"] = ranks
			}
		}
	}
	s.render(w, "history.html", data)
}

// listProjects returns the dated project folder names, newest first.
func (s *Server) listProjects() ([]string, error) {
	entries, err := os.ReadDir(s.outDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() && projectNameRe.MatchString(entry.Name()) {
			projects = append(projects, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(projects)))
	return projects, nil
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(outDir string, db *history.DB, port int) error {
	srv, err := New(outDir, db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
