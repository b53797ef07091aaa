package handlers

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

const flashCookie = "flash"

// Flash categories double as CSS classes.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// FlashStore keeps one-time messages in a signed cookie so they survive the
// redirect that follows a form post.
type FlashStore struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func NewFlashStore(secret string, secure bool) *FlashStore {
	codec := securecookie.New([]byte(secret), nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(300)
	return &FlashStore{codec: codec, secure: secure}
}

// Add queues a message for the next rendered page. Messages already queued
// in this request are kept.
func (s *FlashStore) Add(w http.ResponseWriter, r *http.Request, category, message string) {
	pending := s.peek(r)
	pending = append(pending, Flash{Category: category, Message: message})

	value, err := s.codec.Encode(flashCookie, pending)
	if err != nil {
		return
	}
	http.SetCookie(w, s.cookie(value, 0))
	// later Adds in the same request must see this one
	r.AddCookie(&http.Cookie{Name: flashCookie, Value: value})
}

// Pop returns queued messages and clears the cookie. Tampered or expired
// cookies are dropped silently.
func (s *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []Flash {
	if _, err := r.Cookie(flashCookie); err != nil {
		return nil
	}
	http.SetCookie(w, s.cookie("", -1))
	return s.peek(r)
}

func (s *FlashStore) peek(r *http.Request) []Flash {
	cookies := r.Cookies()
	for i := len(cookies) - 1; i >= 0; i-- {
		if cookies[i].Name != flashCookie {
			continue
		}
		var list []Flash
		if err := s.codec.Decode(flashCookie, cookies[i].Value, &list); err == nil {
			return list
		}
		return nil
	}
	return nil
}

func (s *FlashStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
