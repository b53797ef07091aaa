package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"hostel-backend/internal/models"
	"hostel-backend/internal/services"
)

const (
	msgMissingFields = "Please fill in all required fields"
	msgTrackNotFound = "Complaint not found. Please check your access code or complaint ID."
	msgTrackEmpty    = "Please enter your complaint number or access code."
	msgTrackNeedCode = "Please enter the access code you received when you submitted."
	msgTooLarge      = "The attachments are too large."
)

// ComplaintHandler serves the resident pages: submission and tracking.
type ComplaintHandler struct {
	complaints     *services.ComplaintService
	render         *Renderer
	requireContact bool
	maxUpload      int64
}

func NewComplaintHandler(complaints *services.ComplaintService, render *Renderer, requireContact bool, maxUpload int64) *ComplaintHandler {
	return &ComplaintHandler{
		complaints:     complaints,
		render:         render,
		requireContact: requireContact,
		maxUpload:      maxUpload,
	}
}

type submitPage struct {
	Values         models.SubmitComplaintRequest
	Missing        map[string]bool
	RequireContact bool
	MaxMB          int64
}

type trackPage struct {
	ComplaintID string
	AccessCode  string
}

type complaintPage struct {
	Complaint *models.Complaint
	Public    bool
}

// Index sends visitors to the submission form.
// GET /
func (h *ComplaintHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/submit", http.StatusFound)
}

// SubmitForm renders an empty submission form
// GET /submit
func (h *ComplaintHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "submit", "Submit", h.submitPage(models.SubmitComplaintRequest{}, nil))
}

// TooLarge answers 413 with an empty submission form. The router also
// uses it when the body limit trips while the CSRF check reads the form.
func (h *ComplaintHandler) TooLarge(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusRequestEntityTooLarge, "submit", "Submit",
		h.submitPage(models.SubmitComplaintRequest{}, nil), Flash{FlashDanger, msgTooLarge})
}

// Submit stores a complaint from the multipart form and redirects to the
// confirmation page. A rejected form is shown again with the input kept.
// POST /submit
func (h *ComplaintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.TooLarge(w, r)
			return
		}
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	req := models.SubmitComplaintRequest{
		Name:        r.FormValue("name"),
		Room:        r.FormValue("room"),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Address:     r.FormValue("address"),
		Phone:       r.FormValue("phone"),
	}

	for field, dst := range map[string]**models.Upload{"image": &req.Image, "video": &req.Video} {
		up, closeFn, err := formUpload(r, field)
		if err != nil {
			h.render.ServerError(w, r, err)
			return
		}
		defer closeFn()
		*dst = up
	}

	res, err := h.complaints.Submit(r.Context(), req)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			missing := make(map[string]bool, len(verr.Fields))
			for _, f := range verr.Fields {
				missing[f] = true
			}
			req.Image, req.Video = nil, nil
			h.render.HTML(w, r, http.StatusBadRequest, "submit", "Submit",
				h.submitPage(req, missing), Flash{FlashDanger, msgMissingFields})
			return
		}
		h.render.ServerError(w, r, err)
		return
	}

	q := url.Values{}
	q.Set("complaint_id", strconv.FormatInt(res.ID, 10))
	q.Set("access_code", res.AccessCode)
	http.Redirect(w, r, "/submit/success?"+q.Encode(), http.StatusSeeOther)
}

// formUpload returns the file posted as field, or nil when none was sent.
func formUpload(r *http.Request, field string) (*models.Upload, func(), error) {
	noop := func() {}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}
	return &models.Upload{Filename: header.Filename, Size: header.Size, Body: file}, func() { file.Close() }, nil
}

func (h *ComplaintHandler) submitPage(values models.SubmitComplaintRequest, missing map[string]bool) submitPage {
	return submitPage{
		Values:         values,
		Missing:        missing,
		RequireContact: h.requireContact,
		MaxMB:          h.maxUpload >> 20,
	}
}

// SubmitSuccess shows the id and access code passed by Submit's redirect.
// GET /submit/success
func (h *ComplaintHandler) SubmitSuccess(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("complaint_id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/submit", http.StatusFound)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "submit_success", "Complaint received", models.SubmitResult{
		ID:         id,
		AccessCode: r.URL.Query().Get("access_code"),
	})
}

// TrackForm renders the tracking form
// GET /track
func (h *ComplaintHandler) TrackForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "track", "Track", trackPage{})
}

// Track looks a complaint up by number, access code or both and shows the
// public view. Every kind of miss gets the same message.
// POST /track
func (h *ComplaintHandler) Track(w http.ResponseWriter, r *http.Request) {
	form := trackPage{ComplaintID: r.FormValue("complaint_id"), AccessCode: r.FormValue("access_code")}

	res, err := h.track(r, form.ComplaintID, form.AccessCode)
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			msg := msgTrackEmpty
			if !verr.Has("complaint_id") {
				msg = msgTrackNeedCode
			}
			h.render.HTML(w, r, http.StatusBadRequest, "track", "Track", form, Flash{FlashDanger, msg})
		case errors.Is(err, models.ErrNotFound):
			h.render.HTML(w, r, http.StatusNotFound, "track", "Track", form, Flash{FlashDanger, msgTrackNotFound})
		default:
			h.render.ServerError(w, r, err)
		}
		return
	}

	h.render.HTML(w, r, http.StatusOK, "complaint", res.Title, complaintPage{
		Public: true,
		Complaint: &models.Complaint{
			ID:          res.ID,
			Title:       res.Title,
			Description: res.Description,
			Status:      res.Status,
			CreatedAt:   res.CreatedAt,
			Image:       res.Image,
			Video:       res.Video,
		},
	})
}

// APITrack is the JSON form of Track.
// GET /api/track?id=&code=
func (h *ComplaintHandler) APITrack(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.track(r, q.Get("id"), q.Get("code"))
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "complaint id or access code required", Fields: verr.Fields})
		case errors.Is(err, models.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		default:
			h.render.ServerError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ComplaintHandler) track(r *http.Request, rawID, code string) (*models.TrackingResult, error) {
	q, err := services.ParseTrackingQuery(rawID, code)
	if err != nil {
		return nil, err
	}
	return h.complaints.Track(r.Context(), q)
}
