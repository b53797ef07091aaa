package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/middleware"
	"hostel-backend/internal/models"
	"hostel-backend/internal/services"

	"github.com/gorilla/mux"
)

// AdminHandler serves the password-protected admin pages.
type AdminHandler struct {
	admin         *services.AdminService
	authn         *auth.Authenticator
	render        *Renderer
	secureCookies bool
}

func NewAdminHandler(admin *services.AdminService, authn *auth.Authenticator, render *Renderer, secureCookies bool) *AdminHandler {
	return &AdminHandler{
		admin:         admin,
		authn:         authn,
		render:        render,
		secureCookies: secureCookies,
	}
}

type listPage struct {
	Complaints []models.Complaint
	Filter     map[string]string
	Query      template.URL
}

// LoginForm renders the password form, or skips it for a logged-in admin.
// GET /admin/login
func (h *AdminHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.AdminFrom(r.Context()).Authenticated {
		http.Redirect(w, r, "/admin/list", http.StatusFound)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "admin_login", "Admin login", nil)
}

// Login checks the password and starts a session.
// POST /admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	token, admin, err := h.authn.Login(r.Context(), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.AdminLogins.WithLabelValues("failure").Inc()
			h.render.HTML(w, r, http.StatusUnauthorized, "admin_login", "Admin login", nil, Flash{FlashDanger, "Invalid password"})
			return
		}
		h.render.ServerError(w, r, err)
		return
	}

	metrics.AdminLogins.WithLabelValues("success").Inc()
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  admin.ExpiresAt,
		MaxAge:   int(time.Until(admin.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/admin/list", http.StatusSeeOther)
}

// Logout ends the session.
// GET /admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	h.render.Flash(w, r, FlashInfo, "Logged out")
	http.Redirect(w, r, "/admin/login", http.StatusFound)
}

// List shows complaints newest first, narrowed by the query filters
// GET /admin/list?search=&status=&date_from=&date_to=
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.render.HTML(w, r, http.StatusBadRequest, "admin_list", "Complaints", listPage{
			Filter: rawFilter(r),
		}, Flash{FlashDanger, filterMessage(err)})
		return
	}

	list, err := h.admin.List(r.Context(), auth.AdminFrom(r.Context()), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render.HTML(w, r, http.StatusOK, "admin_list", "Complaints", listPage{
		Complaints: list,
		Filter:     filter.Values(),
		Query:      filterQuery(filter),
	})
}

// View shows one complaint with every field.
// GET /admin/complaint/{id}
func (h *AdminHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(r)
	if !ok {
		h.notFound(w, r)
		return
	}

	c, err := h.admin.Get(r.Context(), auth.AdminFrom(r.Context()), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "complaint", c.Title, complaintPage{Complaint: c})
}

// UpdateStatus sets a complaint's status and returns to the previous page.
// POST /admin/complaint/{id}/status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(r)
	if !ok {
		h.notFound(w, r)
		return
	}

	err := h.admin.UpdateStatus(r.Context(), auth.AdminFrom(r.Context()), id, r.FormValue("status"))
	switch {
	case err == nil:
		h.render.Flash(w, r, FlashSuccess, "Status updated")
	case errors.Is(err, models.ErrInvalidStatus):
		h.render.Flash(w, r, FlashDanger, "Invalid status")
	default:
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, backOr(r, "/admin/list"), http.StatusSeeOther)
}

// Delete removes a complaint and its media.
// POST /admin/complaint/{id}/delete
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := complaintID(r)
	if !ok {
		h.notFound(w, r)
		return
	}

	if err := h.admin.Delete(r.Context(), auth.AdminFrom(r.Context()), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Flash(w, r, FlashSuccess, "Complaint deleted")
	http.Redirect(w, r, "/admin/list", http.StatusSeeOther)
}

// ExportCSV downloads the filtered complaints as complaints.csv
// GET /admin/export
func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.export(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="complaints.csv"`)
	if err := services.WriteCSV(w, rows); err != nil {
		h.render.log.Error().Err(err).Msg("write csv export")
	}
}

// ExportJSON returns the filtered complaints as a JSON array
// GET /admin/export.json
func (h *AdminHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.export(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := services.WriteJSON(w, rows); err != nil {
		h.render.log.Error().Err(err).Msg("write json export")
	}
}

func (h *AdminHandler) export(w http.ResponseWriter, r *http.Request) ([]models.ExportRow, bool) {
	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: filterMessage(err)})
		return nil, false
	}
	rows, err := h.admin.Export(r.Context(), auth.AdminFrom(r.Context()), filter)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return rows, true
}

// Status shows database and host health.
// GET /admin/status
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.admin.Stats(r.Context(), auth.AdminFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusOK, st)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "admin_status", "System status", st)
}

// CheckPasswordForm renders the password check form.
// GET /admin/check_password
func (h *AdminHandler) CheckPasswordForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "admin_check_password", "Check password", nil)
}

// CheckPassword reports whether a candidate matches the admin password.
// Form posts get a flash on the login page, anything else gets JSON.
// POST /admin/check_password
func (h *AdminHandler) CheckPassword(w http.ResponseWriter, r *http.Request) {
	var candidate string
	isForm := strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")

	if isForm {
		candidate = r.FormValue("password")
	} else {
		var body struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
			return
		}
		candidate = body.Password
	}

	match := h.authn.CheckPassword(candidate)
	if isForm {
		h.render.Flash(w, r, FlashInfo, "Password match: "+strconv.FormatBool(match))
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"match": match})
}

// fail maps service errors onto responses.
func (h *AdminHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		if middleware.WantsJSON(r) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
			return
		}
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
	case errors.Is(err, models.ErrNotFound):
		h.notFound(w, r)
	default:
		h.render.ServerError(w, r, err)
	}
}

func (h *AdminHandler) notFound(w http.ResponseWriter, r *http.Request) {
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	h.render.Flash(w, r, FlashWarning, "Complaint not found")
	http.Redirect(w, r, "/admin/list", http.StatusSeeOther)
}

func complaintID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

func parseFilter(r *http.Request) (models.ComplaintFilter, error) {
	q := r.URL.Query()
	return models.ParseComplaintFilter(q.Get("search"), q.Get("status"), q.Get("date_from"), q.Get("date_to"))
}

func rawFilter(r *http.Request) map[string]string {
	q := r.URL.Query()
	return map[string]string{
		"search":    q.Get("search"),
		"status":    q.Get("status"),
		"date_from": q.Get("date_from"),
		"date_to":   q.Get("date_to"),
	}
}

// filterQuery encodes the non-empty filter values for export links.
func filterQuery(f models.ComplaintFilter) template.URL {
	q := url.Values{}
	for k, v := range f.Values() {
		if v != "" {
			q.Set(k, v)
		}
	}
	return template.URL(q.Encode())
}

func filterMessage(err error) string {
	if errors.Is(err, models.ErrInvalidStatus) {
		return "Invalid status"
	}
	return "Dates must be in YYYY-MM-DD format"
}
