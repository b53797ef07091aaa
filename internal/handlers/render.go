package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/middleware"
	"hostel-backend/internal/models"

	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"
)

const layoutFile = "layout.html"

// pageView is the root value every template receives.
type pageView struct {
	Title     string
	Flashes   []Flash
	CSRFField template.HTML
	Admin     bool
	Data      any
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages   map[string]*template.Template
	flashes *FlashStore
	log     zerolog.Logger
}

// NewRenderer parses every page in fsys together with layout.html.
func NewRenderer(fsys fs.FS, flashes *FlashStore, log zerolog.Logger) (*Renderer, error) {
	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		tmpl, err := template.New(layoutFile).Funcs(templateFuncs).ParseFS(fsys, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[strings.TrimSuffix(name, ".html")] = tmpl
	}
	if len(pages) == 0 {
		return nil, errors.New("no page templates found")
	}

	return &Renderer{pages: pages, flashes: flashes, log: log}, nil
}

// HTML renders page with status. Queued flash messages are consumed and
// shown ahead of extra, which belong to this response only.
func (rn *Renderer) HTML(w http.ResponseWriter, r *http.Request, status int, page, title string, data any, extra ...Flash) {
	tmpl, ok := rn.pages[page]
	if !ok {
		rn.ServerError(w, r, fmt.Errorf("unknown page %q", page))
		return
	}

	view := pageView{
		Title:     title,
		Flashes:   append(rn.flashes.Pop(w, r), extra...),
		CSRFField: csrf.TemplateField(r),
		Admin:     auth.AdminFrom(r.Context()).Authenticated,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutFile, view); err != nil {
		rn.ServerError(w, r, fmt.Errorf("render %s: %w", page, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Flash queues a message for the next page.
func (rn *Renderer) Flash(w http.ResponseWriter, r *http.Request, category, message string) {
	rn.flashes.Add(w, r, category, message)
}

// ServerError logs err and writes a generic 500.
func (rn *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	rn.log.Error().Err(err).
		Str("request_id", middleware.RequestIDFrom(r.Context())).
		Str("path", r.URL.Path).
		Msg("request failed")
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// backOr returns the referring page, or fallback when there is none.
func backOr(r *http.Request, fallback string) string {
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return fallback
}

var templateFuncs = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"statuses": func() []models.Status { return models.Statuses },
	"statusLabel": func(s models.Status) string {
		switch s {
		case models.StatusInProgress:
			return "In progress"
		case models.StatusClosed:
			return "Closed"
		default:
			return "Open"
		}
	},
	// when formats a stored created_at for display.
	"when": func(created string) string {
		c := models.Complaint{CreatedAt: created}
		if t, ok := c.CreatedTime(); ok {
			return t.Format("02 Jan 2006 15:04") + " UTC"
		}
		return created
	},
	"humanBytes": humanBytes,
	"percent": func(p float64) string {
		return fmt.Sprintf("%.1f%%", p)
	},
}

func humanBytes(n any) string {
	var b float64
	switch v := n.(type) {
	case int64:
		b = float64(v)
	case *int64:
		if v == nil {
			return "unknown"
		}
		b = float64(*v)
	case uint64:
		b = float64(v)
	default:
		return fmt.Sprint(n)
	}
	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	i := 0
	for b >= 1024 && i < len(units)-1 {
		b /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.0f %s", b, units[i])
	}
	return fmt.Sprintf("%.1f %s", b, units[i])
}
