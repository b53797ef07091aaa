package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"hostel-backend/internal/media"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxAccessCodeAttempts = 5

type ComplaintOptions struct {
	// RequireContact makes address and phone mandatory.
	RequireContact bool
	// RequireCode rejects tracking lookups by id alone.
	RequireCode bool
}

// ComplaintService runs the resident facing workflows: submission and
// tracking.
type ComplaintService struct {
	store    ComplaintStore
	media    media.Backend
	validate *validator.Validate
	opts     ComplaintOptions
	log      zerolog.Logger

	now     func() time.Time
	newCode func() (string, error)
}

func NewComplaintService(store ComplaintStore, mediaBackend media.Backend, opts ComplaintOptions, log zerolog.Logger) *ComplaintService {
	return &ComplaintService{
		store:    store,
		media:    mediaBackend,
		validate: newValidator(),
		opts:     opts,
		log:      log.With().Str("component", "complaints").Logger(),
		now:      time.Now,
		newCode:  NewAccessCode,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Submit validates and stores a new complaint and returns its id and access
// code. Nothing is persisted when validation fails. Attachments with a
// disallowed extension are dropped without failing the submission.
func (s *ComplaintService) Submit(ctx context.Context, req models.SubmitComplaintRequest) (*models.SubmitResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Room = strings.TrimSpace(req.Room)
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := s.validateSubmission(&req); err != nil {
		return nil, err
	}

	var stored []string
	cleanup := func() {
		for _, key := range stored {
			if err := s.media.Delete(ctx, key); err != nil {
				s.log.Warn().Err(err).Str("file", key).Msg("failed to remove orphaned upload")
			}
		}
	}

	image, err := s.storeMedia(ctx, MediaImage, req.Image)
	if err != nil {
		return nil, err
	}
	if image != nil {
		stored = append(stored, *image)
	}

	video, err := s.storeMedia(ctx, MediaVideo, req.Video)
	if err != nil {
		cleanup()
		return nil, err
	}
	if video != nil {
		stored = append(stored, *video)
	}

	c := &models.Complaint{
		Name:        req.Name,
		Room:        req.Room,
		Title:       req.Title,
		Description: req.Description,
		Image:       image,
		Video:       video,
		Address:     optional(req.Address),
		Phone:       optional(req.Phone),
	}

	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("generate access code: %w", err)
		}
		c.AccessCode = &code

		err = s.store.Create(ctx, c)
		if err == nil {
			break
		}
		if s.store.IsDuplicate(err) && attempt < maxAccessCodeAttempts {
			s.log.Warn().Int("attempt", attempt).Msg("access code collision, regenerating")
			continue
		}
		cleanup()
		return nil, fmt.Errorf("store complaint: %w", err)
	}

	metrics.ComplaintsSubmitted.Inc()
	s.log.Info().Int64("complaint_id", c.ID).Bool("image", image != nil).Bool("video", video != nil).Msg("complaint submitted")

	return &models.SubmitResult{ID: c.ID, AccessCode: *c.AccessCode}, nil
}

func (s *ComplaintService) validateSubmission(req *models.SubmitComplaintRequest) error {
	var fields []string

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}

	if s.opts.RequireContact {
		for name, val := range map[string]string{"address": req.Address, "phone": req.Phone} {
			if val == "" {
				fields = append(fields, name)
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &models.ValidationError{Fields: orderFields(fields)}
}

var formOrder = []string{"name", "room", "title", "description", "address", "phone"}

// orderFields sorts field names into form order and drops duplicates.
func orderFields(fields []string) []string {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f] = true
	}
	out := make([]string, 0, len(seen))
	for _, f := range formOrder {
		if seen[f] {
			out = append(out, f)
		}
	}
	return out
}

// storeMedia saves an allowed attachment and returns its stored name, or nil
// when there is nothing to store.
func (s *ComplaintService) storeMedia(ctx context.Context, kind MediaKind, up *models.Upload) (*string, error) {
	if up == nil || up.Body == nil || up.Filename == "" {
		return nil, nil
	}

	if !kind.Allowed(up.Filename) {
		metrics.MediaFiles.WithLabelValues(string(kind), "rejected").Inc()
		s.log.Debug().Str("kind", string(kind)).Str("filename", up.Filename).Msg("ignoring attachment with disallowed extension")
		return nil, nil
	}

	name := StoredMediaName(s.now(), up.Filename)
	if name == "" {
		metrics.MediaFiles.WithLabelValues(string(kind), "rejected").Inc()
		return nil, nil
	}

	if err := s.media.Upload(ctx, name, up.Body, up.Size); err != nil {
		return nil, fmt.Errorf("store %s: %w", kind, err)
	}
	metrics.MediaFiles.WithLabelValues(string(kind), "stored").Inc()
	return &name, nil
}

// ParseTrackingQuery reads the raw form values of the tracking page. An id
// that is not a number can never match, so it is reported as not found.
func ParseTrackingQuery(rawID, code string) (models.TrackingQuery, error) {
	q := models.TrackingQuery{AccessCode: strings.TrimSpace(code)}
	rawID = strings.TrimSpace(rawID)
	if rawID != "" {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return q, models.ErrNotFound
		}
		q.ID = &id
	}
	return q, nil
}

// Track resolves a tracking query. Any mismatch yields models.ErrNotFound so
// callers cannot tell which half of an id+code pair was wrong.
func (s *ComplaintService) Track(ctx context.Context, q models.TrackingQuery) (*models.TrackingResult, error) {
	code := strings.TrimSpace(q.AccessCode)

	var c *models.Complaint
	var err error
	switch {
	case q.ID == nil && code == "":
		return nil, &models.ValidationError{Fields: []string{"complaint_id", "access_code"}}
	case q.ID != nil && code != "":
		c, err = s.store.GetByIDAndAccessCode(ctx, *q.ID, code)
	case code != "":
		c, err = s.store.GetByAccessCode(ctx, code)
	default:
		if s.opts.RequireCode {
			return nil, &models.ValidationError{Fields: []string{"access_code"}}
		}
		c, err = s.store.GetByID(ctx, *q.ID)
	}
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	return &models.TrackingResult{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		Image:       c.Image,
		Video:       c.Video,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
